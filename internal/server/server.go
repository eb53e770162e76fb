// Package server is the composition root: it opens the store, builds every
// service and handler, mounts the routes and runs the HTTP server until a
// shutdown signal arrives.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/devnode/internal/auth"
	"github.com/sakif/devnode/internal/config"
	"github.com/sakif/devnode/internal/handler"
	"github.com/sakif/devnode/internal/metrics"
	"github.com/sakif/devnode/internal/middleware"
	"github.com/sakif/devnode/internal/news"
	"github.com/sakif/devnode/internal/repository/sqlstore"
	"github.com/sakif/devnode/internal/service"
)

const (
	healthTimeout   = 2 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Server owns the store; Start closes it on the way out.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   *sqlstore.Store
	metrics *metrics.Metrics
}

// New opens the configured database, applies migrations when AutoMigrate
// is set, and wires the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
		logger.Info("migrations applied", slog.String("driver", store.Driver()))
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires the router around an already open store.
func NewWithStore(cfg config.Config, store *sqlstore.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts:
//
//	GET  /healthz, GET /metrics                       public
//	POST /api/auth/register, /api/auth/login          public
//	GET  /api/auth/github/login, .../callback         public, 404 when GitHub is not configured
//	GET  /api/news                                    public
//	everything else under /api                        bearer token required
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	} else {
		s.logger.Info("GitHub login disabled: GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set")
	}

	newsClient := news.NewClient(s.config.NewsBaseURL)

	authSvc := service.NewAuthService(s.store, tokens, passwords, s.logger)
	accountSvc := service.NewAccountService(s.store, passwords, s.metrics, s.logger)
	snippetSvc := service.NewSnippetService(s.store, s.logger)
	socialSvc := service.NewSocialService(s.store, s.metrics, s.logger)
	messageSvc := service.NewMessageService(s.store, s.metrics, s.logger)
	notificationSvc := service.NewNotificationService(s.store, s.logger)
	newsSvc := service.NewNewsService(newsClient, s.metrics, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, github, s.config.FrontendURL, s.logger)
	accountHandler := handler.NewAccountHandler(accountSvc, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, s.logger)
	socialHandler := handler.NewSocialHandler(socialSvc, s.logger)
	messageHandler := handler.NewMessageHandler(messageSvc, s.logger)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, s.logger)
	newsHandler := handler.NewNewsHandler(newsSvc, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		r.Get("/news", newsHandler.HandleFeed)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/user/me", accountHandler.HandleMe)
			r.Put("/user/update", accountHandler.HandleUpdate)
			r.Put("/user/change-password", accountHandler.HandleChangePassword)
			r.Delete("/user/terminate", accountHandler.HandleTerminate)

			r.Get("/users/search", accountHandler.HandleSearch)
			r.Get("/users/{id}", accountHandler.HandleProfile)

			r.Get("/snippets", snippetHandler.HandleList)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)

			r.Post("/friends/request", socialHandler.HandleSendRequest)
			r.Put("/friends/accept", socialHandler.HandleAccept)
			r.Get("/friends", socialHandler.HandleList)
			r.Delete("/friends/{otherId}", socialHandler.HandleRemove)

			r.Get("/messages/{otherId}", messageHandler.HandleConversation)
			r.Post("/messages", messageHandler.HandleSend)

			r.Get("/notifications", notificationHandler.HandleList)
			r.Put("/notifications/read-all", notificationHandler.HandleMarkAllRead)
			r.Put("/notifications/{id}/read", notificationHandler.HandleMarkRead)
		})
	})

	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: s.store.Driver()}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.store.Driver()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("shutdown requested", slog.String("reason", context.Cause(ctx).Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
