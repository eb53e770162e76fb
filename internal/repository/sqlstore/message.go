package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
)

type messageRepo struct {
	q sqlx.ExtContext
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	msg.CreatedAt = time.Now().UTC()

	err := r.q.QueryRowxContext(ctx, r.q.Rebind(
		`INSERT INTO messages (sender_id, receiver_id, content, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", msg.ReceiverID)
		}
		return fmt.Errorf("sqlstore: creating message %d->%d: %w", msg.SenderID, msg.ReceiverID, err)
	}
	return nil
}

// Conversation returns the messages exchanged between a and b, oldest first.
// The id breaks ties between rows written within the same clock tick.
func (r *messageRepo) Conversation(ctx context.Context, a, b int64) ([]model.Message, error) {
	msgs := []model.Message{}
	err := sqlx.SelectContext(ctx, r.q, &msgs, r.q.Rebind(
		`SELECT id, sender_id, receiver_id, content, created_at
		 FROM messages
		 WHERE `+pairClause+`
		 ORDER BY created_at ASC, id ASC`),
		a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing conversation %d<->%d: %w", a, b, err)
	}
	return msgs, nil
}

func (r *messageRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`DELETE FROM messages WHERE sender_id = ? OR receiver_id = ?`), userID, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting messages of user %d: %w", userID, err)
	}
	return rowsAffected(res)
}
