package valuation

import "sort"

const (
	DefaultDiscrepancyMinGP = 5
	DefaultDiscrepancyLimit = 50
)

type DiscrepancyOptions struct {
	// MinGP is exclusive: the last row per name needs strictly more games on both sides.
	MinGP float64
	Limit int
}

func DefaultDiscrepancyOptions() DiscrepancyOptions {
	return DiscrepancyOptions{MinGP: DefaultDiscrepancyMinGP, Limit: DefaultDiscrepancyLimit}
}

// DiscrepancyRecord is a player whose per-game value beats their season value.
type DiscrepancyRecord struct {
	Player       string
	Team         string
	GP           float64
	SeasonValue  float64
	PerGameValue float64
	Discrepancy  float64
	Status       string
}

// Discrepancies joins both ranked tables by player name and returns the players with the
// largest positive PerGameValue − SeasonValue, largest first.
func Discrepancies(season, perGame []RankedRecord, opts DiscrepancyOptions) []DiscrepancyRecord {
	if opts.Limit <= 0 {
		opts.Limit = DefaultDiscrepancyLimit
	}

	// Re-key by name first; the surviving (last) row per name is what the GP filter sees.
	seasonByName := make(map[string]RankedRecord, len(season))
	for _, r := range season {
		seasonByName[r.Player] = r
	}
	lastPerGame := make(map[string]int, len(perGame))
	for idx, r := range perGame {
		lastPerGame[r.Player] = idx
	}

	out := make([]DiscrepancyRecord, 0, len(lastPerGame))
	for idx, pg := range perGame {
		if lastPerGame[pg.Player] != idx || !(pg.GP > opts.MinGP) {
			continue
		}
		s, ok := seasonByName[pg.Player]
		if !ok || !(s.GP > opts.MinGP) {
			continue
		}
		diff := pg.Value - s.Value
		if !(diff > 0) {
			continue
		}
		out = append(out, DiscrepancyRecord{
			Player:       pg.Player,
			Team:         pg.Team,
			GP:           pg.GP,
			SeasonValue:  s.Value,
			PerGameValue: pg.Value,
			Discrepancy:  diff,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Discrepancy > out[j].Discrepancy
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// AnnotateStatus fills Status from lookup, typically a roster's ownership status by player name.
func AnnotateStatus(records []DiscrepancyRecord, lookup func(player string) string) []DiscrepancyRecord {
	if lookup == nil {
		return records
	}
	out := make([]DiscrepancyRecord, len(records))
	for idx, r := range records {
		r.Status = lookup(r.Player)
		out[idx] = r
	}
	return out
}
