package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
)

type friendshipRepo struct {
	q sqlx.ExtContext
}

// pairClause matches the row for {a, b} in either direction.
// Arguments are bound as a, b, b, a.
const pairClause = `(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`

func (r *friendshipRepo) Between(ctx context.Context, a, b int64) (*model.Friendship, error) {
	var f model.Friendship
	err := sqlx.GetContext(ctx, r.q, &f, r.q.Rebind(
		`SELECT id, sender_id, receiver_id, status, created_at
		 FROM friendships
		 WHERE `+pairClause+`
		 LIMIT 1`),
		a, b, b, a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("connection", b)
		}
		return nil, fmt.Errorf("sqlstore: looking up friendship %d<->%d: %w", a, b, err)
	}
	return &f, nil
}

// Create inserts f. The unique pair index turns a racing duplicate into
// apperror.ErrConflict.
func (r *friendshipRepo) Create(ctx context.Context, f *model.Friendship) error {
	if f.Status == "" {
		f.Status = model.FriendshipPending
	}
	f.CreatedAt = time.Now().UTC()

	err := r.q.QueryRowxContext(ctx, r.q.Rebind(
		`INSERT INTO friendships (sender_id, receiver_id, status, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		f.SenderID, f.ReceiverID, string(f.Status), f.CreatedAt,
	).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("request already exists")
		}
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", f.ReceiverID)
		}
		return fmt.Errorf("sqlstore: creating friendship %d->%d: %w", f.SenderID, f.ReceiverID, err)
	}
	return nil
}

func (r *friendshipRepo) Accept(ctx context.Context, senderID, receiverID int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`UPDATE friendships
		 SET status = ?
		 WHERE sender_id = ? AND receiver_id = ? AND status = ?`),
		string(model.FriendshipAccepted), senderID, receiverID, string(model.FriendshipPending))
	if err != nil {
		return false, fmt.Errorf("sqlstore: accepting friendship %d->%d: %w", senderID, receiverID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteBetween removes the pair's row whatever its direction or status.
func (r *friendshipRepo) DeleteBetween(ctx context.Context, a, b int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`DELETE FROM friendships WHERE `+pairClause), a, b, b, a)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting friendship %d<->%d: %w", a, b, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("connection", b)
	}
	return nil
}

// ListForUser returns every friendship touching userID joined with the other
// party's public fields.
func (r *friendshipRepo) ListForUser(ctx context.Context, userID int64) ([]model.Connection, error) {
	rows := []model.Connection{}
	err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(
		`SELECT u.id, u.username, u.skills, f.status, f.sender_id, f.receiver_id
		 FROM friendships f
		 JOIN users u
		   ON u.id = CASE WHEN f.sender_id = ? THEN f.receiver_id ELSE f.sender_id END
		 WHERE f.sender_id = ? OR f.receiver_id = ?
		 ORDER BY f.created_at DESC, f.id DESC`),
		userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing network of user %d: %w", userID, err)
	}
	return rows, nil
}

func (r *friendshipRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`DELETE FROM friendships WHERE sender_id = ? OR receiver_id = ?`), userID, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting friendships of user %d: %w", userID, err)
	}
	return rowsAffected(res)
}
