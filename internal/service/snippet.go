// Package service contains the business logic of the API.
//
// THE LAYERS:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (business) → validates, enforces rules, owns transactions
//	Repository (data)  → reads/writes the database
//
// Services accept plain values (ids, strings) and return models or
// apperror values. They never see an *http.Request and never choose a
// status code; the handler layer maps apperror sentinels to HTTP.
//
// TRANSACTIONS LIVE HERE:
// A service that needs several statements to succeed or fail together asks
// the repository.Store for a transaction with InTx and uses the Store it is
// handed. Whether that Store is SQLite or PostgreSQL is decided once, in
// main.go.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/model"
	"github.com/sakif/devnode/internal/repository"
)

const (
	MaxSnippetTitleLength = 100
	MaxCodeLength         = 100000 // ~100KB of code
	DefaultLanguage       = "plaintext"
)

// SnippetService manages a user's own snippets.
type SnippetService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewSnippetService(store repository.Store, logger *slog.Logger) *SnippetService {
	return &SnippetService{store: store, logger: logger}
}

// Create validates and saves a snippet owned by userID.
// The language tag is free text; an empty one becomes "plaintext".
func (s *SnippetService) Create(ctx context.Context, userID int64, title, language, code, description string) (*model.Snippet, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxSnippetTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxSnippetTitleLength))
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}

	snippet := &model.Snippet{
		UserID:      userID,
		Title:       title,
		Language:    language,
		Code:        code,
		Description: strings.TrimSpace(description),
	}

	if err := s.store.Snippets().Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/snippet: creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.Int64("userID", userID),
		slog.String("language", snippet.Language),
	)
	return snippet, nil
}

// ListMine returns userID's snippets, newest first.
func (s *SnippetService) ListMine(ctx context.Context, userID int64) ([]model.Snippet, error) {
	snippets, err := s.store.Snippets().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}
	return snippets, nil
}

// Delete removes a snippet if userID owns it. Deleting someone else's
// snippet reports NotFound, the same as a snippet that never existed.
func (s *SnippetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.Snippets().Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("service/snippet: deleting snippet %d: %w", id, err)
	}
	s.logger.Info("snippet deleted", slog.Int64("id", id), slog.Int64("userID", userID))
	return nil
}
