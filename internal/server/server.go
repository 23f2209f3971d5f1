// Package server provides the HTTP server and routing.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/fundfolio/fundfolio/internal/config"
	"github.com/fundfolio/fundfolio/internal/di"
	authhandlers "github.com/fundfolio/fundfolio/internal/modules/auth/handlers"
	paymenthandlers "github.com/fundfolio/fundfolio/internal/modules/payments/handlers"
	portfoliohandlers "github.com/fundfolio/fundfolio/internal/modules/portfolio/handlers"
	tradinghandlers "github.com/fundfolio/fundfolio/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
	}

	s.systemHandlers = NewSystemHandlers(
		cfg.Log,
		cfg.Container.UsersDB,
		cfg.Container.LedgerDB,
	)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	authHandler := authhandlers.NewHandler(s.container.AuthService, s.log)
	tradingHandler := tradinghandlers.NewHandler(s.container.Engine, s.container.OrderRepo, s.log)
	portfolioHandler := portfoliohandlers.NewHandler(s.container.PortfolioService, s.log)
	paymentHandler := paymenthandlers.NewHandler(s.container.PaymentsService, s.log)

	// Health check and system status
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/system/status", s.systemHandlers.HandleSystemStatus)

	// Public auth routes
	authHandler.RegisterPublicRoutes(s.router)

	// Authenticated routes
	s.router.Group(func(r chi.Router) {
		r.Use(s.container.AuthService.Middleware)

		authHandler.RegisterProtectedRoutes(r)
		tradingHandler.RegisterRoutes(r)
		portfolioHandler.RegisterRoutes(r)
		paymentHandler.RegisterRoutes(r)
	})
}

// handleHealth is a lightweight liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, db := range []interface {
		QuickCheck(context.Context) error
		Name() string
	}{s.container.UsersDB, s.container.LedgerDB} {
		if err := db.QuickCheck(ctx); err != nil {
			s.log.Error().Err(err).Str("db", db.Name()).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

// Start starts the HTTP server (blocks until shutdown)
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() chi.Router {
	return s.router
}
