package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/skater-value/internal/domain/publication"
)

func TestJSONPublisher_WritesAndReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pub := NewJSONPublisher(dir, nil)
	pub.now = func() time.Time { return time.Date(2026, 1, 14, 8, 0, 0, 0, time.UTC) }

	sheet := publication.Sheet{
		Name:    "Per Game Rankings",
		Columns: []string{"Rank", "Per Game Value", "Player", "Hits"},
		Rows:    [][]any{{1, 3.5, "A", nil}, {2, 1.0, "B", 0.75}},
	}
	if err := pub.Publish(context.Background(), sheet); err != nil {
		t.Fatalf("publish: %v", err)
	}
	sheet.Rows = sheet.Rows[:1]
	if err := pub.Publish(context.Background(), sheet); err != nil {
		t.Fatalf("republish: %v", err)
	}

	raw, err := os.ReadFile(pub.Path(sheet))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		Name        string   `json:"name"`
		PublishedAt string   `json:"published_at"`
		Columns     []string `json:"columns"`
		Rows        [][]any  `json:"rows"`
	}
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if doc.Name != "Per Game Rankings" || doc.PublishedAt != "2026-01-14T08:00:00Z" {
		t.Fatalf("unexpected metadata: %+v", doc)
	}
	if len(doc.Rows) != 1 || doc.Rows[0][2] != "A" || doc.Rows[0][3] != nil {
		t.Fatalf("unexpected rows: %v", doc.Rows)
	}
	if pub.Path(sheet) != filepath.Join(dir, "per_game_rankings.json") {
		t.Fatalf("unexpected path: %s", pub.Path(sheet))
	}
}
