package store

import (
	"context"
	"fmt"

	"zakatdesk/internal/utils"
	"zakatdesk/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const historyTableName = "zakatdesk.case_history"

var historyColumns = utils.StructTagValues(types.HistoryEntry{})

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// AppendEntry inserts one audit record. Rows are never updated.
func (r *HistoryRepository) AppendEntry(ctx context.Context, entry *types.HistoryEntry) error {
	query, args, err := psql().
		Insert(historyTableName).
		SetMap(utils.StructToMap(entry)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert history query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record history entry")
}

// EntriesByCase returns the case's history, newest first.
func (r *HistoryRepository) EntriesByCase(ctx context.Context, caseID string) ([]*types.HistoryEntry, error) {
	query, args, err := psql().
		Select(historyColumns...).
		From(historyTableName).
		Where(sq.Eq{"case_id": caseID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate history query: %w", err)
	}

	var entries = make([]*types.HistoryEntry, 0)
	err = pgxscan.Select(ctx, r.pool, &entries, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to get history entries")
	}

	return entries, nil
}
