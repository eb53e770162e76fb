package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
)

type userRepo struct {
	q sqlx.ExtContext
}

const userColumns = `id, username, email, password, bio, skills, github_id, created_at`

// Create inserts user and fills in its ID and CreatedAt.
// A duplicate username or email comes back as apperror.ErrConflict.
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	err := r.q.QueryRowxContext(ctx, r.q.Rebind(
		`INSERT INTO users (username, email, password, bio, skills, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Bio,
		user.Skills,
		user.GitHubID,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username or email already registered")
		}
		return fmt.Errorf("sqlstore: inserting user %q: %w", user.Username, err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *userRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return r.getOne(ctx, "github_id", githubID)
}

// getOne looks a user up by a unique column. column is always a constant
// from this file, never caller input.
func (r *userRepo) getOne(ctx context.Context, column string, value any) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.q, &u, r.q.Rebind(
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlstore: getting user by %s: %w", column, err)
	}
	return &u, nil
}

// UpdateProfile writes username, bio and skills.
func (r *userRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`UPDATE users SET username = ?, bio = ?, skills = ? WHERE id = ?`),
		user.Username, user.Bio, user.Skills, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username already taken")
		}
		return fmt.Errorf("sqlstore: updating user %d: %w", user.ID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(
		`UPDATE users SET password = ? WHERE id = ?`), hash, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating password for user %d: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// Search finds users whose username contains query (case-insensitive),
// skipping excludeID.
func (r *userRepo) Search(ctx context.Context, query string, excludeID int64, limit int) ([]model.UserSummary, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	users := []model.UserSummary{}
	err := sqlx.SelectContext(ctx, r.q, &users, r.q.Rebind(
		`SELECT id, username, skills
		 FROM users
		 WHERE LOWER(username) LIKE ? ESCAPE '\' AND id != ?
		 ORDER BY username
		 LIMIT ?`),
		pattern, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: searching users: %w", err)
	}
	return users, nil
}

// Delete removes the user row only. Dependent rows must already be gone;
// see service.AccountService.Terminate.
func (r *userRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
