package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/riskibarqy/skater-value/internal/domain/publication"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/xuri/excelize/v2"
)

const (
	defaultWorkbookSheet = "Sheet1"
	replaceSheetName     = "__replacing__"
)

// ExcelPublisher writes every sheet into one workbook, replacing a sheet of the same name and
// leaving the others alone.
type ExcelPublisher struct {
	path   string
	mu     sync.Mutex
	logger *logging.Logger
}

func NewExcelPublisher(path string, logger *logging.Logger) *ExcelPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &ExcelPublisher{path: path, logger: logger.Named("sink.excel")}
}

func (p *ExcelPublisher) Name() string {
	return "excel"
}

func (p *ExcelPublisher) Publish(ctx context.Context, sheet publication.Sheet) error {
	if err := sheet.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	f, created, err := p.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := replaceSheet(f, sheet.Name); err != nil {
		return err
	}
	if created && sheet.Name != defaultWorkbookSheet {
		if err := f.DeleteSheet(defaultWorkbookSheet); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}

	header := make([]any, 0, len(sheet.Columns))
	for _, col := range sheet.Columns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet.Name, err)
	}
	for idx, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return fmt.Errorf("resolve row %d of %q: %w", idx, sheet.Name, err)
		}
		values := row
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("write row %d of %q: %w", idx, sheet.Name, err)
		}
	}
	if err := f.SetPanes(sheet.Name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header of %q: %w", sheet.Name, err)
	}

	if err := f.SaveAs(p.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", p.path, err)
	}

	p.logger.InfoContext(ctx, "sheet written", "path", p.path, "sheet", sheet.Name, "rows", len(sheet.Rows))
	return nil
}

func (p *ExcelPublisher) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(p.path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("stat workbook %s: %w", p.path, err)
		}
		if dir := filepath.Dir(p.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, false, fmt.Errorf("create workbook dir: %w", err)
			}
		}
		return excelize.NewFile(), true, nil
	}

	f, err := excelize.OpenFile(p.path)
	if err != nil {
		return nil, false, fmt.Errorf("open workbook %s: %w", p.path, err)
	}
	return f, false, nil
}

// replaceSheet leaves an empty sheet called name, discarding any previous content.
func replaceSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("look up sheet %q: %w", name, err)
	}
	if idx >= 0 {
		if err := f.SetSheetName(name, replaceSheetName); err != nil {
			return fmt.Errorf("rename old sheet %q: %w", name, err)
		}
	}
	newIdx, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	if idx >= 0 {
		if err := f.DeleteSheet(replaceSheetName); err != nil {
			return fmt.Errorf("drop old sheet %q: %w", name, err)
		}
		if newIdx, err = f.GetSheetIndex(name); err != nil {
			return fmt.Errorf("look up sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(newIdx)
	return nil
}
