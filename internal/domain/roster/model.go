package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

const (
	ColumnPlayer   = "Player"
	ColumnTeam     = "Team"
	ColumnPosition = "Position"
	ColumnStatus   = "Status"

	StatusFreeAgent = "FA"
)

var ErrMissingColumn = errors.New("roster missing required column")

// Entry is one player row of the league ownership export.
type Entry struct {
	Player   string
	Team     string
	Position string
	Status   string
}

func (e Entry) IsFreeAgent() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), StatusFreeAgent)
}

// Roster indexes entries by player name. Later rows win on duplicate names.
type Roster struct {
	entries []Entry
	byName  map[string]int
}

// Parse reads a roster table. Player and Status are required; Team and Position are optional.
func Parse(table dataset.Table) (*Roster, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	playerIdx, ok := table.ColumnIndex(ColumnPlayer)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnPlayer)
	}
	statusIdx, ok := table.ColumnIndex(ColumnStatus)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnStatus)
	}
	teamIdx, hasTeam := table.ColumnIndex(ColumnTeam)
	positionIdx, hasPosition := table.ColumnIndex(ColumnPosition)

	out := &Roster{
		entries: make([]Entry, 0, len(table.Rows)),
		byName:  make(map[string]int, len(table.Rows)),
	}
	for _, row := range table.Rows {
		entry := Entry{
			Player: strings.TrimSpace(row[playerIdx]),
			Status: strings.TrimSpace(row[statusIdx]),
		}
		if entry.Player == "" {
			continue
		}
		if hasTeam {
			entry.Team = strings.TrimSpace(row[teamIdx])
		}
		if hasPosition {
			entry.Position = strings.TrimSpace(row[positionIdx])
		}
		out.byName[normalizeName(entry.Player)] = len(out.entries)
		out.entries = append(out.entries, entry)
	}
	return out, nil
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

func (r *Roster) Lookup(player string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	idx, ok := r.byName[normalizeName(player)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Status returns the ownership status for player, or "" when the player is not on the export.
func (r *Roster) Status(player string) string {
	entry, ok := r.Lookup(player)
	if !ok {
		return ""
	}
	return entry.Status
}

func normalizeName(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}
