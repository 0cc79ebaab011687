package skaterstats

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidRecord = errors.New("invalid record")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ParseTable converts a raw statistics table into records. Every identity and source category
// column must be present; numeric cells that fail coercion become Missing.
func ParseTable(table dataset.Table, schema Schema) ([]Record, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	lookup := func(name string) (int, error) {
		idx, ok := table.ColumnIndex(name)
		if !ok {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return idx, nil
	}

	playerIdx, err := lookup(ColumnPlayer)
	if err != nil {
		return nil, err
	}
	teamIdx, err := lookup(ColumnTeam)
	if err != nil {
		return nil, err
	}
	positionIdx, err := lookup(ColumnPosition)
	if err != nil {
		return nil, err
	}
	gpIdx, err := lookup(ColumnGP)
	if err != nil {
		return nil, err
	}
	pointsIdx, err := lookup(ColumnTotalPoints)
	if err != nil {
		return nil, err
	}

	categories := schema.SourceCategories()
	categoryIdx := make([]int, len(categories))
	for i, c := range categories {
		idx, err := lookup(string(c))
		if err != nil {
			return nil, err
		}
		categoryIdx[i] = idx
	}

	seen := make(map[string]int, len(table.Rows))
	out := make([]Record, 0, len(table.Rows))
	for rowNum, row := range table.Rows {
		record := Record{
			Player:      strings.TrimSpace(row[playerIdx]),
			Team:        strings.TrimSpace(row[teamIdx]),
			Position:    strings.TrimSpace(row[positionIdx]),
			GP:          ParseNumber(row[gpIdx]),
			TotalPoints: ParseNumber(row[pointsIdx]),
			Stats:       make(map[Category]float64, len(schema.Categories)),
		}
		if err := recordValidator().Struct(record); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidRecord, rowNum+1, err)
		}
		for i, c := range categories {
			record.Stats[c] = ParseNumber(row[categoryIdx[i]])
		}

		record.UID = seen[record.Player]
		seen[record.Player]++
		out = append(out, record)
	}

	return out, nil
}
