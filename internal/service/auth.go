// AuthService turns credentials into bearer tokens:
//
//	AuthHandler (HTTP) → AuthService → Store.Users()
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Two ways in: email + password, or a GitHub profile obtained by the OAuth
// handler. Both end in the same AuthResult.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

const (
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

type AuthService struct {
	store     repository.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and a freshly issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password account. Username and email must be unused.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		// Only the length check can fail here for a caller-supplied value.
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks an email/password pair.
//
// Unknown email and wrong password are both validation failures with
// distinct messages, which is what the client UI expects.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("email", "user not found")
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", email, err)
	}

	// An empty hash (GitHub-only account) fails here too.
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.Int64("userID", user.ID))
		return nil, apperror.ValidationFailed("password", "invalid password")
	}

	return s.issue(user)
}

// LoginWithGitHub finds the account linked to ghUser, creating it on first
// login. A taken username gets the GitHub id appended ("octocat-583231").
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}

	user, err := s.store.Users().GetByGitHubID(ctx, ghUser.ID)
	switch {
	case err == nil:
		return s.issue(user)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up githubID=%d: %w", ghUser.ID, err)
	}

	ghID := ghUser.ID
	email := strings.ToLower(ghUser.Email)
	if email == "" {
		email = ghUser.FallbackEmail()
	}
	user = &model.User{Username: ghUser.Login, Email: email, GitHubID: &ghID}

	err = s.store.Users().Create(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// Either the login or the email is already used by a password
		// account. Neither is ours to take over.
		user.Username = ghUser.Login + "-" + strconv.FormatInt(ghID, 10)
		user.Email = ghUser.FallbackEmail()
		err = s.store.Users().Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating user for githubID=%d: %w", ghID, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
		slog.Int64("githubID", ghID),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func validateUsername(username string) error {
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	return nil
}
