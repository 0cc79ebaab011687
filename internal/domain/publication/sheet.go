package publication

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/skater-value/internal/domain/skaterstats"
	"github.com/riskibarqy/skater-value/internal/domain/valuation"
)

const (
	SheetSeasonRankings  = "Season Rankings"
	SheetPerGameRankings = "Per Game Rankings"
	SheetDiscrepancy     = "Discrepancy"

	ColumnRank         = "Rank"
	ColumnSeasonValue  = "Season Value"
	ColumnPerGameValue = "Per Game Value"
	ColumnDiscrepancy  = "Discrepancy"
	ColumnStatus       = "Status"
)

// Sheet is a named table with an explicit column order. Cells are string, int, float64 or nil.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

func (s Sheet) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("sheet name is required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("sheet %q has no columns", s.Name)
	}
	for idx, row := range s.Rows {
		if len(row) != len(s.Columns) {
			return fmt.Errorf("sheet %q row %d has %d cells, expected %d", s.Name, idx, len(row), len(s.Columns))
		}
	}
	return nil
}

// Slug is a file-system friendly form of the sheet name, e.g. "season_rankings".
func (s Sheet) Slug() string {
	return strings.ToLower(strings.Join(strings.Fields(s.Name), "_"))
}

func SeasonRankings(rows []valuation.RankedRecord, schema skaterstats.Schema) Sheet {
	return rankedSheet(SheetSeasonRankings, ColumnSeasonValue, rows, schema)
}

func PerGameRankings(rows []valuation.RankedRecord, schema skaterstats.Schema) Sheet {
	return rankedSheet(SheetPerGameRankings, ColumnPerGameValue, rows, schema)
}

func rankedSheet(name, valueColumn string, rows []valuation.RankedRecord, schema skaterstats.Schema) Sheet {
	columns := append([]string{ColumnRank, valueColumn}, schema.ColumnOrder()...)
	out := Sheet{Name: name, Columns: columns, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, r.Cells(schema))
	}
	return out
}

func Discrepancies(rows []valuation.DiscrepancyRecord) Sheet {
	out := Sheet{
		Name: SheetDiscrepancy,
		Columns: []string{
			skaterstats.ColumnPlayer,
			skaterstats.ColumnTeam,
			skaterstats.ColumnGP,
			ColumnSeasonValue,
			ColumnPerGameValue,
			ColumnDiscrepancy,
			ColumnStatus,
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, []any{r.Player, r.Team, r.GP, r.SeasonValue, r.PerGameValue, r.Discrepancy, r.Status})
	}
	return out
}
