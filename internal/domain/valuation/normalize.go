package valuation

import (
	"sort"

	"github.com/riskibarqy/skater-value/internal/domain/skaterstats"
	"gonum.org/v1/gonum/stat"
)

type Basis string

const (
	BasisSeason  Basis = "season"
	BasisPerGame Basis = "per_game"
)

// RankedRecord is a merged record scored on one basis. For the per-game basis Stats hold rates.
type RankedRecord struct {
	MergedRecord
	Basis Basis
	Value float64
	Rank  int
}

// Cells projects the record onto Rank, Value and the schema column order. Missing values are nil.
func (r RankedRecord) Cells(schema skaterstats.Schema) []any {
	out := make([]any, 0, 6+len(schema.Categories))
	out = append(out, r.Rank, r.Value, r.Player, r.Team, r.Position, cell(r.GP))
	for _, c := range schema.Categories {
		out = append(out, cell(r.Stat(c)))
	}
	return out
}

func cell(v float64) any {
	if skaterstats.IsMissing(v) {
		return nil
	}
	return v
}

// Normalize scores the merged table twice: once on season totals and once on per-game rates.
// Rows without a usable GP are left out of the per-game table.
func Normalize(merged []MergedRecord, schema skaterstats.Schema) (season, perGame []RankedRecord) {
	season = make([]RankedRecord, 0, len(merged))
	for _, m := range merged {
		season = append(season, RankedRecord{MergedRecord: MergedRecord{Record: m.Clone()}, Basis: BasisSeason})
	}

	perGame = make([]RankedRecord, 0, len(merged))
	for _, m := range merged {
		if !HasSample(m.Record) {
			continue
		}
		rates := m.Clone()
		for _, c := range schema.Categories {
			v := rates.Stat(c)
			if skaterstats.IsMissing(v) {
				rates.Stats[c] = skaterstats.Missing()
				continue
			}
			rates.Stats[c] = v / m.GP
		}
		perGame = append(perGame, RankedRecord{MergedRecord: MergedRecord{Record: rates}, Basis: BasisPerGame})
	}

	score(season, schema)
	score(perGame, schema)
	return season, perGame
}

// HasSample reports whether a record has a positive games-played count to divide by.
func HasSample(r skaterstats.Record) bool {
	return !skaterstats.IsMissing(r.GP) && r.GP > 0
}

// score sums per-category population z-scores into Value, then sorts descending and ranks 1..N.
// Missing cells and categories without spread contribute nothing.
func score(rows []RankedRecord, schema skaterstats.Schema) {
	for _, c := range schema.Categories {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v := r.Stat(c); !skaterstats.IsMissing(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		mean, std := stat.PopMeanStdDev(values, nil)
		if skaterstats.IsMissing(std) || std == 0 {
			continue
		}
		for idx := range rows {
			v := rows[idx].Stat(c)
			if skaterstats.IsMissing(v) {
				continue
			}
			rows[idx].Value += stat.StdScore(v, mean, std)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value > rows[j].Value
	})
	for idx := range rows {
		rows[idx].Rank = idx + 1
	}
}
