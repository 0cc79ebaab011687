package filesystem

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

var unsafeNameRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SnapshotRepository stores each dataset as <dir>/<name>.csv. The file modification time is the
// snapshot timestamp, so a copy dropped in by hand is picked up like any other.
type SnapshotRepository struct {
	dir string
}

func NewSnapshotRepository(dir string) (*SnapshotRepository, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &SnapshotRepository{dir: dir}, nil
}

func (r *SnapshotRepository) Path(name string) string {
	return filepath.Join(r.dir, unsafeNameRegex.ReplaceAllString(name, "_")+".csv")
}

func (r *SnapshotRepository) Get(_ context.Context, name string) (dataset.Snapshot, bool, error) {
	path := r.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataset.Snapshot{}, false, nil
		}
		return dataset.Snapshot{}, false, fmt.Errorf("stat snapshot %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return dataset.Snapshot{}, false, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return dataset.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(records) == 0 {
		return dataset.Snapshot{}, false, fmt.Errorf("snapshot %s is empty", path)
	}

	table := dataset.Table{Columns: records[0], Rows: records[1:]}
	return dataset.NewSnapshot(name, table, info.ModTime()), true, nil
}

// Put writes to a temp file and renames it over the old snapshot, then stamps the file with
// the snapshot time.
func (r *SnapshotRepository) Put(_ context.Context, snapshot dataset.Snapshot) error {
	path := r.Path(snapshot.Key)
	tmp, err := os.CreateTemp(r.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot for %s: %w", snapshot.Key, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(snapshot.Payload.Columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot header %s: %w", snapshot.Key, err)
	}
	if err := w.WriteAll(snapshot.Payload.Rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot rows %s: %w", snapshot.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot %s: %w", snapshot.Key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", path, err)
	}
	if !snapshot.WrittenAt.IsZero() {
		if err := os.Chtimes(path, snapshot.WrittenAt, snapshot.WrittenAt); err != nil {
			return fmt.Errorf("stamp snapshot %s: %w", path, err)
		}
	}
	return nil
}
