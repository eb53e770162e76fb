package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
)

type snippetRepo struct {
	q sqlx.ExtContext
}

// Create inserts a new snippet and fills in ID and CreatedAt.
//
// PARAMETERIZED QUERIES:
// Every value goes through a placeholder, never through string building.
// Code bodies in particular are arbitrary user text.
func (r *snippetRepo) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.CreatedAt = time.Now().UTC()

	err := r.q.QueryRowxContext(ctx, r.q.Rebind(
		`INSERT INTO snippets (user_id, title, language, code, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		snippet.UserID,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Description,
		snippet.CreatedAt,
	).Scan(&snippet.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", snippet.UserID)
		}
		return fmt.Errorf("sqlstore: creating snippet: %w", err)
	}
	return nil
}

// ListByUser returns a user's snippets, newest first.
func (r *snippetRepo) ListByUser(ctx context.Context, userID int64) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	err := sqlx.SelectContext(ctx, r.q, &snippets, r.q.Rebind(
		`SELECT id, user_id, title, language, code, description, created_at
		 FROM snippets
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing snippets for user %d: %w", userID, err)
	}
	return snippets, nil
}

// Delete removes a snippet owned by userID. Someone else's snippet looks
// exactly like a missing one.
func (r *snippetRepo) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting snippet %d: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

func (r *snippetRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM snippets WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: deleting snippets of user %d: %w", userID, err)
	}
	return rowsAffected(res)
}
