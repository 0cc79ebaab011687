package postgres

import (
	"strings"
	"testing"

	"github.com/riskibarqy/skater-value/internal/domain/publication"
)

func TestBuildInsertRowsQuery(t *testing.T) {
	sheet := publication.Sheet{
		Name:    "Discrepancy",
		Columns: []string{"Player", "Discrepancy", "Status"},
		Rows: [][]any{
			{"A", 3.5, "FA"},
			{"B", 2.25, nil},
			{"C", 1.0, ""},
		},
	}

	query, args, err := buildInsertRowsQuery(sheet, 1, 3)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO published_rows (sheet_name, position, cells) VALUES ($1, $2, $3), ($4, $5, $6)") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 6 || args[1] != 1 || args[4] != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
	if args[2] != `["B",2.25,null]` {
		t.Fatalf("unexpected cells encoding: %v", args[2])
	}
}
