package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/devnode/internal/apperror"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/news"
)

// ArticleSource is satisfied by *news.Client.
type ArticleSource interface {
	Articles(ctx context.Context, tag string) ([]news.Article, error)
}

// NewsService serves the developer news feed.
type NewsService struct {
	source  ArticleSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewNewsService(source ArticleSource, m *metrics.Metrics, logger *slog.Logger) *NewsService {
	return &NewsService{source: source, metrics: m, logger: logger}
}

// Feed returns articles for tag. A bad tag is a validation error; upstream
// failures keep news.ErrUpstream in the chain.
func (s *NewsService) Feed(ctx context.Context, tag string) ([]news.Article, error) {
	articles, err := s.source.Articles(ctx, tag)
	if err != nil {
		if errors.Is(err, news.ErrInvalidTag) {
			return nil, apperror.ValidationFailed("tag", "tag must be 1-30 lowercase letters or digits")
		}
		s.metrics.RecordNewsFetch(false)
		s.logger.Warn("news fetch failed", slog.String("tag", tag), slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/news: fetching %q: %w", tag, err)
	}
	s.metrics.RecordNewsFetch(true)
	return articles, nil
}
