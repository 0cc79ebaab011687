package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/skater-value/internal/domain/publication"
	qb "github.com/riskibarqy/skater-value/internal/platform/querybuilder"
)

// PublicationRepository keeps the latest copy of each published sheet.
type PublicationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPublicationRepository(db *sqlx.DB) *PublicationRepository {
	return &PublicationRepository{db: db, now: time.Now}
}

func (r *PublicationRepository) Name() string {
	return "postgres"
}

// Publish replaces the stored sheet and all of its rows in one transaction.
func (r *PublicationRepository) Publish(ctx context.Context, sheet publication.Sheet) error {
	columns, err := sonic.MarshalString(sheet.Columns)
	if err != nil {
		return fmt.Errorf("encode sheet columns: %w", err)
	}

	return withTx(ctx, r.db, "publish sheet", func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertModel(publishedSheetTable, publishedSheetTableModel{
			Name:        sheet.Name,
			Columns:     columns,
			RowCount:    len(sheet.Rows),
			PublishedAt: r.now().UTC(),
		}, `ON CONFLICT (name)
DO UPDATE SET
    columns = EXCLUDED.columns,
    row_count = EXCLUDED.row_count,
    published_at = EXCLUDED.published_at`)
		if err != nil {
			return fmt.Errorf("build upsert sheet query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert sheet name=%s: %w", sheet.Name, err)
		}

		query, args, err = qb.DeleteFrom(publishedRowTable).Where(qb.Eq("sheet_name", sheet.Name)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete sheet rows query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete sheet rows name=%s: %w", sheet.Name, err)
		}

		for _, window := range batches(len(sheet.Rows), insertBatchSize) {
			query, args, err := buildInsertRowsQuery(sheet, window[0], window[1])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert sheet rows name=%s offset=%d: %w", sheet.Name, window[0], err)
			}
		}
		return nil
	})
}

func buildInsertRowsQuery(sheet publication.Sheet, start, end int) (string, []any, error) {
	insert := qb.InsertInto(publishedRowTable)
	for idx := start; idx < end; idx++ {
		cells, err := sonic.MarshalString(sheet.Rows[idx])
		if err != nil {
			return "", nil, fmt.Errorf("encode sheet row %d: %w", idx, err)
		}
		insert.Model(publishedRowTableModel{SheetName: sheet.Name, Position: idx, Cells: cells})
	}
	query, args, err := insert.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build insert sheet rows query: %w", err)
	}
	return query, args, nil
}
