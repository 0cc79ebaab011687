package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/skater-value/internal/domain/publication"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

type jsonDocument struct {
	Name        string   `json:"name"`
	PublishedAt string   `json:"published_at"`
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
}

// JSONPublisher writes one <dir>/<slug>.json file per sheet.
type JSONPublisher struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

func NewJSONPublisher(dir string, logger *logging.Logger) *JSONPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &JSONPublisher{dir: dir, logger: logger.Named("sink.json"), now: time.Now}
}

func (p *JSONPublisher) Name() string {
	return "json"
}

func (p *JSONPublisher) Path(sheet publication.Sheet) string {
	return filepath.Join(p.dir, sheet.Slug()+".json")
}

func (p *JSONPublisher) Publish(ctx context.Context, sheet publication.Sheet) error {
	if err := sheet.Validate(); err != nil {
		return err
	}

	raw, err := sonic.ConfigStd.MarshalIndent(jsonDocument{
		Name:        sheet.Name,
		PublishedAt: p.now().UTC().Format(time.RFC3339),
		Columns:     sheet.Columns,
		Rows:        sheet.Rows,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sheet %q: %w", sheet.Name, err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create json dir: %w", err)
	}
	path := p.Path(sheet)
	if err := writeFileAtomic(path, raw); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "sheet written", "path", path, "sheet", sheet.Name, "rows", len(sheet.Rows))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
