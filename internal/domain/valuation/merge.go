package valuation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/riskibarqy/skater-value/internal/domain/skaterstats"
)

var ErrAlignmentMismatch = errors.New("all-strengths and even-strength tables are not aligned")

// MergedRecord is an all-strengths record extended with the derived categories.
type MergedRecord struct {
	skaterstats.Record
}

type identity struct {
	player     string
	team       string
	occurrence int
}

func (i identity) String() string {
	return i.player + "/" + i.team + "#" + strconv.Itoa(i.occurrence)
}

func identities(records []skaterstats.Record) []identity {
	counts := make(map[[2]string]int, len(records))
	out := make([]identity, len(records))
	for idx, r := range records {
		key := [2]string{r.Player, r.Team}
		out[idx] = identity{player: r.Player, team: r.Team, occurrence: counts[key]}
		counts[key]++
	}
	return out
}

// Merge derives D Points and Special Teams Points by pairing every all-strengths row with the
// even-strength row of the same (player, team, occurrence). Inputs are left untouched.
func Merge(all, even []skaterstats.Record, schema skaterstats.Schema) ([]MergedRecord, error) {
	if len(all) != len(even) {
		return nil, fmt.Errorf("%w: %d all-strengths rows vs %d even-strength rows", ErrAlignmentMismatch, len(all), len(even))
	}

	evenByID := make(map[identity]int, len(even))
	for idx, id := range identities(even) {
		evenByID[id] = idx
	}

	wantDPoints := schema.Derived[skaterstats.CategoryDPoints]
	wantSTP := schema.Derived[skaterstats.CategorySpecialTeamsPoints]

	out := make([]MergedRecord, 0, len(all))
	for idx, id := range identities(all) {
		evenIdx, ok := evenByID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no even-strength row", ErrAlignmentMismatch, id)
		}
		delete(evenByID, id)

		merged := MergedRecord{Record: all[idx].Clone()}
		if wantDPoints {
			merged.Stats[skaterstats.CategoryDPoints] = DefensePoints(merged.Record)
		}
		if wantSTP {
			merged.Stats[skaterstats.CategorySpecialTeamsPoints] = SpecialTeamsPoints(all[idx], even[evenIdx])
		}
		out = append(out, merged)
	}

	return out, nil
}

// DefensePoints credits total points only to defensemen.
func DefensePoints(r skaterstats.Record) float64 {
	if !r.IsDefense() {
		return 0
	}
	return r.TotalPoints
}

// SpecialTeamsPoints is the share of all-situation points not scored at even strength.
func SpecialTeamsPoints(all, even skaterstats.Record) float64 {
	if skaterstats.IsMissing(all.TotalPoints) || skaterstats.IsMissing(even.TotalPoints) {
		return skaterstats.Missing()
	}
	return all.TotalPoints - even.TotalPoints
}
