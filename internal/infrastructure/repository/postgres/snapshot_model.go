package postgres

import "time"

const snapshotTable = "dataset_snapshots"

type snapshotTableModel struct {
	Name      string    `db:"name"`
	Columns   string    `db:"columns"`
	Rows      string    `db:"rows"`
	RowCount  int       `db:"row_count"`
	WrittenAt time.Time `db:"written_at"`
}
