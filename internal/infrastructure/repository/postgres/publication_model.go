package postgres

import "time"

const (
	publishedSheetTable = "published_sheets"
	publishedRowTable   = "published_rows"
)

type publishedSheetTableModel struct {
	Name        string    `db:"name"`
	Columns     string    `db:"columns"`
	RowCount    int       `db:"row_count"`
	PublishedAt time.Time `db:"published_at"`
}

type publishedRowTableModel struct {
	SheetName string `db:"sheet_name"`
	Position  int    `db:"position"`
	Cells     string `db:"cells"`
}
