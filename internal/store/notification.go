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

const notificationTableName = "zakatdesk.notifications"

var notificationColumns = utils.StructTagValues(types.Notification{})

// NotificationRepository persists notifications for the delivery layer to
// pick up.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Notify(ctx context.Context, n *types.Notification) error {
	query, args, err := psql().
		Insert(notificationTableName).
		SetMap(utils.StructToMap(n)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build notification insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

func (r *NotificationRepository) LatestForRecipient(ctx context.Context, recipientID string, limit uint64) ([]*types.Notification, error) {
	query, args, err := psql().
		Select(notificationColumns...).
		From(notificationTableName).
		Where(sq.Eq{"recipient_id": recipientID}).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest notifications query: %w", err)
	}

	out := make([]*types.Notification, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select latest notifications: %w", err)
	}

	return out, nil
}
