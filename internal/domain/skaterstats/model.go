package skaterstats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Category is a statistical column that takes part in value normalization.
type Category string

const (
	CategoryDPoints            Category = "D Points"
	CategoryGoals              Category = "Goals"
	CategoryTotalAssists       Category = "Total Assists"
	CategoryShots              Category = "Shots"
	CategorySpecialTeamsPoints Category = "Special Teams Points"
	CategoryHits               Category = "Hits"
	CategoryShotsBlocked       Category = "Shots Blocked"
	CategoryTakeaways          Category = "Takeaways"
	CategoryFaceoffsWon        Category = "Faceoffs Won"
	CategoryTOI                Category = "TOI"
)

const (
	ColumnPlayer      = "Player"
	ColumnTeam        = "Team"
	ColumnPosition    = "Position"
	ColumnGP          = "GP"
	ColumnTotalPoints = "Total Points"

	PositionDefense = "D"
)

// Schema is the single description of the columns every stage works with.
type Schema struct {
	// Categories are normalized and summed, in output order.
	Categories []Category
	// Derived categories are computed by the merge step instead of read from the source.
	Derived map[Category]bool
}

func DefaultSchema() Schema {
	return Schema{
		Categories: []Category{
			CategoryDPoints,
			CategoryGoals,
			CategoryTotalAssists,
			CategoryShots,
			CategorySpecialTeamsPoints,
			CategoryHits,
			CategoryShotsBlocked,
			CategoryTakeaways,
			CategoryFaceoffsWon,
			CategoryTOI,
		},
		Derived: map[Category]bool{
			CategoryDPoints:            true,
			CategorySpecialTeamsPoints: true,
		},
	}
}

func (s Schema) Validate() error {
	if len(s.Categories) == 0 {
		return fmt.Errorf("schema has no categories")
	}
	seen := make(map[Category]struct{}, len(s.Categories))
	for _, c := range s.Categories {
		if strings.TrimSpace(string(c)) == "" {
			return fmt.Errorf("schema has an empty category")
		}
		if _, ok := seen[c]; ok {
			return fmt.Errorf("schema category %q is duplicated", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// SourceCategories lists the categories that must be read from source tables.
func (s Schema) SourceCategories() []Category {
	out := make([]Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		if s.Derived[c] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ColumnOrder is the canonical projection shared by every published table.
func (s Schema) ColumnOrder() []string {
	out := make([]string, 0, 4+len(s.Categories))
	out = append(out, ColumnPlayer, ColumnTeam, ColumnPosition, ColumnGP)
	for _, c := range s.Categories {
		out = append(out, string(c))
	}
	return out
}

// Record is one row per (player, team stint) for a single situational filter.
// Numeric fields use NaN for values that failed coercion.
type Record struct {
	UID         int
	Player      string `validate:"required"`
	Team        string `validate:"required"`
	Position    string `validate:"required"`
	GP          float64
	TotalPoints float64
	Stats       map[Category]float64
}

// Stat returns the category value or Missing when absent.
func (r Record) Stat(c Category) float64 {
	if v, ok := r.Stats[c]; ok {
		return v
	}
	return Missing()
}

func (r Record) Clone() Record {
	out := r
	out.Stats = make(map[Category]float64, len(r.Stats))
	for k, v := range r.Stats {
		out.Stats[k] = v
	}
	return out
}

func (r Record) IsDefense() bool {
	return strings.TrimSpace(r.Position) == PositionDefense
}

// Missing is the marker for a value that could not be coerced to a number.
func Missing() float64 {
	return math.NaN()
}

func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// ParseNumber coerces a raw cell to a float. Thousands separators are accepted; anything else
// that is not a finite number becomes Missing.
func ParseNumber(raw string) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Missing()
	}
	value = strings.ReplaceAll(value, ",", "")
	out, err := strconv.ParseFloat(value, 64)
	if err != nil || IsMissing(out) {
		return Missing()
	}
	return out
}
