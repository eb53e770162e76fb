package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devnode/internal/service"
)

type NewsHandler struct {
	news   *service.NewsService
	logger *slog.Logger
}

func NewNewsHandler(news *service.NewsService, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{news: news, logger: logger}
}

// HandleFeed: GET /api/news?tag=go
func (h *NewsHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	articles, err := h.news.Feed(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}
