package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	qb "github.com/riskibarqy/skater-value/internal/platform/querybuilder"
)

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Get(ctx context.Context, name string) (dataset.Snapshot, bool, error) {
	query, args, err := qb.Select("name", "columns", "rows", "row_count", "written_at").
		From(snapshotTable).
		Where(qb.Eq("name", name)).
		ToSQL()
	if err != nil {
		return dataset.Snapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return dataset.Snapshot{}, false, nil
		}
		return dataset.Snapshot{}, false, fmt.Errorf("get snapshot name=%s: %w", name, err)
	}

	table := dataset.Table{}
	if err := sonic.UnmarshalString(row.Columns, &table.Columns); err != nil {
		return dataset.Snapshot{}, false, fmt.Errorf("decode snapshot columns name=%s: %w", name, err)
	}
	if err := sonic.UnmarshalString(row.Rows, &table.Rows); err != nil {
		return dataset.Snapshot{}, false, fmt.Errorf("decode snapshot rows name=%s: %w", name, err)
	}

	return dataset.NewSnapshot(row.Name, table, row.WrittenAt), true, nil
}

func (r *SnapshotRepository) Put(ctx context.Context, snapshot dataset.Snapshot) error {
	columns, err := sonic.MarshalString(snapshot.Payload.Columns)
	if err != nil {
		return fmt.Errorf("encode snapshot columns: %w", err)
	}
	rows, err := sonic.MarshalString(snapshot.Payload.Rows)
	if err != nil {
		return fmt.Errorf("encode snapshot rows: %w", err)
	}

	query, args, err := qb.InsertModel(snapshotTable, snapshotTableModel{
		Name:      snapshot.Key,
		Columns:   columns,
		Rows:      rows,
		RowCount:  snapshot.Payload.Len(),
		WrittenAt: snapshot.WrittenAt.UTC(),
	}, `ON CONFLICT (name)
DO UPDATE SET
    columns = EXCLUDED.columns,
    rows = EXCLUDED.rows,
    row_count = EXCLUDED.row_count,
    written_at = EXCLUDED.written_at`)
	if err != nil {
		return fmt.Errorf("build upsert snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot name=%s: %w", snapshot.Key, err)
	}
	return nil
}
