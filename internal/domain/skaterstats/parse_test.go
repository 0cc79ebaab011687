package skaterstats

import (
	"errors"
	"testing"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
)

func sampleTable() dataset.Table {
	return dataset.Table{
		Columns: []string{
			"Player", "Team", "Position", "GP", "TOI", "Goals", "Total Assists", "Total Points",
			"Shots", "Hits", "Shots Blocked", "Takeaways", "Faceoffs Won",
		},
		Rows: [][]string{
			{"Connor McDavid", "EDM", "C", "76", "1,637.5", "32", "100", "132", "262", "25", "22", "51", "555"},
			{"Cale Makar", "COL", "D", "77", "1911.2", "21", "69", "90", "229", "30", "98", "44", "0"},
			{"Elias Lindholm", "CGY", "C", "49", "930.1", "9", "17", "26", "-", "31", "22", "19", "564"},
			{"Elias Lindholm", "VAN", "C", "26", "508.0", "6", "6", "12", "51", "11", "11", "9", "271"},
		},
	}
}

func TestParseTable_CoercesAndAssignsUID(t *testing.T) {
	t.Parallel()

	records, err := ParseTable(sampleTable(), DefaultSchema())
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("unexpected record count: %d", len(records))
	}

	mcdavid := records[0]
	if mcdavid.Stat(CategoryTOI) != 1637.5 {
		t.Fatalf("expected thousands separator to be accepted, got %v", mcdavid.Stat(CategoryTOI))
	}
	if mcdavid.TotalPoints != 132 || mcdavid.GP != 76 {
		t.Fatalf("unexpected identity numbers: %+v", mcdavid)
	}

	if !IsMissing(records[2].Stat(CategoryShots)) {
		t.Fatalf("expected dash to be missing, got %v", records[2].Stat(CategoryShots))
	}
	if records[2].UID != 0 || records[3].UID != 1 {
		t.Fatalf("expected per-name counter, got %d and %d", records[2].UID, records[3].UID)
	}
	if records[0].UID != 0 || records[1].UID != 0 {
		t.Fatalf("expected first occurrence to be 0")
	}

	if _, ok := mcdavid.Stats[CategoryDPoints]; ok {
		t.Fatalf("derived categories must not be read from source")
	}
}

func TestParseTable_MissingColumn(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	table.Columns[8] = "SOG"

	_, err := ParseTable(table, DefaultSchema())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestParseTable_RejectsBlankIdentity(t *testing.T) {
	t.Parallel()

	table := sampleTable()
	table.Rows[1][1] = "  "

	_, err := ParseTable(table, DefaultSchema())
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    float64
		missing bool
	}{
		{raw: "12", want: 12},
		{raw: " 3.25 ", want: 3.25},
		{raw: "1,024", want: 1024},
		{raw: "-", missing: true},
		{raw: "", missing: true},
		{raw: "inf", missing: true},
		{raw: "NaN", missing: true},
	}
	for _, tc := range cases {
		got := ParseNumber(tc.raw)
		if tc.missing {
			if !IsMissing(got) {
				t.Fatalf("ParseNumber(%q)=%v want missing", tc.raw, got)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseNumber(%q)=%v want=%v", tc.raw, got, tc.want)
		}
	}
}

func TestSchema_ColumnOrder(t *testing.T) {
	t.Parallel()

	schema := DefaultSchema()
	cols := schema.ColumnOrder()
	if len(cols) != 14 {
		t.Fatalf("unexpected column count: %d", len(cols))
	}
	if cols[0] != ColumnPlayer || cols[3] != ColumnGP || cols[4] != string(CategoryDPoints) || cols[13] != string(CategoryTOI) {
		t.Fatalf("unexpected column order: %v", cols)
	}
	if got := len(schema.SourceCategories()); got != 8 {
		t.Fatalf("unexpected source category count: %d", got)
	}
}
