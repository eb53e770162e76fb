package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
)

type notificationRepo struct {
	q sqlx.ExtContext
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = time.Now().UTC()
	n.IsRead = false

	err := r.q.QueryRowxContext(ctx, r.q.Rebind(
		`INSERT INTO notifications (user_id, type, message, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		n.UserID, n.Type, n.Message, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", n.UserID)
		}
		return fmt.Errorf("sqlstore: creating notification for user %d: %w", n.UserID, err)
	}
	return nil
}

// ListRecent returns the latest notifications for userID, read or not,
// newest first.
func (r *notificationRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	notifs := []model.Notification{}
	err := sqlx.SelectContext(ctx, r.q, &notifs, r.q.Rebind(
		`SELECT id, user_id, type, message, is_read, created_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing notifications of user %d: %w", userID, err)
	}
	return notifs, nil
}

// MarkRead flags one notification. Ownership is part of the WHERE clause,
// so a foreign id simply matches nothing.
func (r *notificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: marking notification %d read: %w", id, err)
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx, r.q.Rebind(
		`UPDATE notifications SET is_read = TRUE WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("sqlstore: marking notifications of user %d read: %w", userID, err)
	}
	return nil
}

func (r *notificationRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM notifications WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting notifications of user %d: %w", userID, err)
	}
	return rowsAffected(res)
}
