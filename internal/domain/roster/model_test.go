package roster

import (
	"errors"
	"testing"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

func TestParse_IndexesByName(t *testing.T) {
	t.Parallel()

	table := dataset.Table{
		Columns: []string{"ID", "Player", "Team", "Position", "Status", "Age"},
		Rows: [][]string{
			{"*01*", "Connor McDavid", "EDM", "C", "Oilers Fan", "27"},
			{"*02*", "Cale  Makar", "COL", "D", "FA", "25"},
			{"*03*", "", "", "", "FA", ""},
		},
	}

	r, err := Parse(table)
	if err != nil {
		t.Fatalf("parse roster: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected blank player row to be skipped, got %d", r.Len())
	}
	if got := r.Status("connor mcdavid"); got != "Oilers Fan" {
		t.Fatalf("unexpected status: %q", got)
	}
	entry, ok := r.Lookup("Cale Makar")
	if !ok || !entry.IsFreeAgent() || entry.Position != "D" {
		t.Fatalf("unexpected entry: %+v ok=%v", entry, ok)
	}
	if got := r.Status("Nobody"); got != "" {
		t.Fatalf("expected empty status for unknown player, got %q", got)
	}
}

func TestParse_RequiresStatus(t *testing.T) {
	t.Parallel()

	_, err := Parse(dataset.Table{Columns: []string{"Player"}, Rows: [][]string{{"A"}}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestRoster_NilIsEmpty(t *testing.T) {
	t.Parallel()

	var r *Roster
	if r.Len() != 0 || r.Status("A") != "" {
		t.Fatalf("nil roster should behave as empty")
	}
}
