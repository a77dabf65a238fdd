package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
	"github.com/custodia-labs/sercha-pulse/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	frontendURL   string
	cookieTTL     time.Duration
	secureCookies bool

	// Services
	authService        driving.AuthService
	oauthService       driving.OAuthService
	aggregationService driving.AggregationService

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// FrontendURL is where callbacks redirect after a connect attempt.
	FrontendURL string
	// CORSOrigins lists allowed origins; empty disables CORS headers.
	CORSOrigins []string
	// CookieTTL bounds the OAuth flow cookie; it should match the state TTL.
	CookieTTL time.Duration
	// SecureCookies marks the flow cookie Secure (HTTPS deployments).
	SecureCookies bool

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8080,
		Version:     "dev",
		FrontendURL: "http://localhost:3000",
		CookieTTL:   10 * time.Minute,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	oauthService driving.OAuthService,
	aggregationService driving.AggregationService,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieTTL := cfg.CookieTTL
	if cookieTTL == 0 {
		cookieTTL = 10 * time.Minute
	}

	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		logger:             logger.With("component", "http"),
		frontendURL:        cfg.FrontendURL,
		cookieTTL:          cookieTTL,
		secureCookies:      cfg.SecureCookies,
		authService:        authService,
		oauthService:       oauthService,
		aggregationService: aggregationService,
		db:                 db,
		redisClient:        redisClient,
	}

	s.setupRoutes()

	// Outermost first: recovery, request id, logging, CORS.
	var handler http.Handler = s.router
	if len(cfg.CORSOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.CORSOrigins).Handler(handler)
	}
	handler = NewLoggingMiddleware(s.logger).Handler(handler)
	handler = RequestID(handler)
	handler = NewRecoveryMiddleware(s.logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Integration lifecycle (authenticated)
	s.router.Handle("POST /api/v1/integrations/connect", authed(s.handleConnect))
	s.router.Handle("GET /api/v1/integrations", authed(s.handleListIntegrations))
	s.router.Handle("DELETE /api/v1/integrations/{provider}", authed(s.handleDisconnect))
	s.router.Handle("GET /api/v1/integrations/{provider}/containers", authed(s.handleListContainers))
	s.router.Handle("GET /api/v1/providers", authed(s.handleListProviders))

	// Callbacks are public: the provider redirects the browser here.
	// The signed state and the flow cookie authenticate the request.
	for _, p := range domain.SupportedProviders() {
		s.router.HandleFunc("GET "+driving.CallbackPath(p), s.handleOAuthCallback(p))
	}

	// Unified data
	s.router.Handle("GET /api/v1/unified", authed(s.handleUnified))
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
