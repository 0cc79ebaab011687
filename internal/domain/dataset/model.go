package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/skater-value/internal/platform/cache"
)

const (
	NameAllStrengths = "all_strengths"
	NameEvenStrength = "even_strength"
	NameRoster       = "fantrax_roster"
)

// Table is the raw tabular shape returned by every source and stored by every snapshot backend.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Validate checks the minimal shape a source must return: a header and at least one row
// whose width matches the header.
func (t Table) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	if len(t.Rows) == 0 {
		return fmt.Errorf("table has no rows")
	}
	for idx, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", idx, len(row), len(t.Columns))
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, matched case-insensitively.
func (t Table) ColumnIndex(name string) (int, bool) {
	want := strings.TrimSpace(name)
	for idx, col := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(col), want) {
			return idx, true
		}
	}
	return -1, false
}

// Clone deep-copies the table so cached snapshots are never shared with callers.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for idx, row := range t.Rows {
		out.Rows[idx] = append([]string(nil), row...)
	}
	return out
}

// Snapshot is the cached copy of one dataset.
type Snapshot = cache.Entry[Table]

func NewSnapshot(name string, table Table, writtenAt time.Time) Snapshot {
	return Snapshot{Key: name, Payload: table, WrittenAt: writtenAt}
}
