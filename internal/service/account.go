package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

const SearchLimit = 5

// AccountService covers a user's own account and the user directory.
type AccountService struct {
	store     repository.Store
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAccountService(
	store repository.Store,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{store: store, passwords: passwords, metrics: m, logger: logger}
}

// Me returns the caller's own record.
func (s *AccountService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %d: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile replaces username, bio and skills.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, username, bio, skills string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %d: %w", userID, err)
	}

	user.Username = username
	user.Bio = strings.TrimSpace(bio)
	user.Skills = strings.TrimSpace(skills)

	if err := s.store.Users().UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("service/account: updating user %d: %w", userID, err)
	}
	return user, nil
}

// ChangePassword requires the current password, even right after login.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return apperror.ValidationFailed("newPassword",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/account: fetching user %d: %w", userID, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		return apperror.ValidationFailed("currentPassword", "current password is incorrect")
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/account: updating password for user %d: %w", userID, err)
	}

	s.logger.Info("password changed", slog.Int64("userID", userID))
	return nil
}

// Search returns up to SearchLimit users whose username contains query.
// The caller never appears in their own results.
func (s *AccountService) Search(ctx context.Context, callerID int64, query string) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}
	users, err := s.store.Users().Search(ctx, query, callerID, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("service/account: searching %q: %w", query, err)
	}
	return users, nil
}

// Profile is another user's public page.
type Profile struct {
	User     model.PublicProfile `json:"user"`
	Snippets []model.Snippet     `json:"snippets"`
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching profile %d: %w", userID, err)
	}
	snippets, err := s.store.Snippets().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing snippets of %d: %w", userID, err)
	}
	return &Profile{User: user.Public(), Snippets: snippets}, nil
}

// Terminate deletes userID and everything that references it, in one
// transaction:
//
//  1. messages sent or received
//  2. friendships on either side
//  3. notifications addressed to the user
//  4. snippets
//  5. the user row
//
// Dependents go first because the foreign keys have no ON DELETE CASCADE.
// If the user row is already gone at step 5 the whole thing rolls back and
// the error matches both apperror.ErrTransaction and apperror.ErrNotFound.
// Tokens issued to the user stay cryptographically valid until they expire;
// the client is expected to discard its own.
func (s *AccountService) Terminate(ctx context.Context, userID int64) error {
	var removed [4]int64

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if removed[0], err = tx.Messages().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if removed[1], err = tx.Friendships().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if removed[2], err = tx.Notifications().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if removed[3], err = tx.Snippets().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, apperror.ErrNotFound) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "account termination rolled back",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return apperror.TransactionFailed(err)
	}

	s.metrics.RecordSocialEvent(metrics.EventTerminate)
	s.logger.Info("account terminated",
		slog.Int64("userID", userID),
		slog.Int64("messages", removed[0]),
		slog.Int64("friendships", removed[1]),
		slog.Int64("notifications", removed[2]),
		slog.Int64("snippets", removed[3]),
	)
	return nil
}
