package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/thepom/thepom/internal/handler"
	"github.com/thepom/thepom/internal/server/middleware"
	"github.com/thepom/thepom/internal/service"
	"github.com/thepom/thepom/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	// CORSOrigins is enforced in production only; other environments
	// accept any origin.
	CORSOrigins []string
	Production  bool
	MaxBodySize int64 // bytes
	// LoginRateLimit is the number of login attempts allowed per client
	// address per minute. Zero disables the limit.
	LoginRateLimit int
	// SessionSweepInterval runs the expired-session cleanup in-process.
	// Zero leaves cleanup to an external scheduler.
	SessionSweepInterval time.Duration
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            3000,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
		MaxBodySize:     1 << 20, // 1MB
		LoginRateLimit:  20,
	}
}

// Server is the HTTP API for admin authentication and management.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	adminSvc   *service.AdminService
	cleaner    *service.SessionCleaner
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. Call
// ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, adminSvc *service.AdminService, cleaner *service.SessionCleaner, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		adminSvc: adminSvc,
		cleaner:  cleaner,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// --- Health checks (no auth required) ---
	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReadyz)

	errs := handler.Errors{Dev: !s.cfg.Production, Logger: s.logger}
	adminHandler := handler.NewAdminHandler(s.authSvc, s.adminSvc, errs, s.cfg.Production)
	logHandler := handler.NewLoginLogHandler(s.adminSvc, errs)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(s.cfg.LoginRateLimit)).Post("/admin/login", adminHandler.Login)
		r.Post("/admin/logout", adminHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.VerifyToken(s.authSvc, s.logger))
			r.Use(middleware.RequireAdmin)

			r.Get("/admin/me", adminHandler.Me)
			r.Get("/admin", adminHandler.List)
			r.Post("/admin", adminHandler.Create)
			r.Get("/admin/{id}", adminHandler.Get)
			r.Put("/admin/{id}", adminHandler.Update)
			r.Delete("/admin/{id}", adminHandler.Delete)

			r.Get("/admin-login-logs", logHandler.List)
			r.Get("/admin-login-logs/{id}", logHandler.Get)
		})
	})

	s.router = r
}

func (s *Server) allowOrigin(r *http.Request, origin string) bool {
	if !s.cfg.Production {
		return true
	}
	return slices.Contains(s.cfg.CORSOrigins, origin)
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success":true,"message":"Server is running"}`))
}

// handleReadyz reports database reachability and whether session tracking
// is active. A missing admin_sessions table does not make the server
// unready; authentication degrades to token-only trust.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok", "sessions": "enabled"}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	} else if ok, err := s.store.SessionTableExists(r.Context()); err != nil {
		checks["sessions"] = "error: " + err.Error()
	} else if !ok {
		checks["sessions"] = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM.
// It then drains in-flight requests, stops the session sweeper, and closes
// the database.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.cleaner != nil && s.cfg.SessionSweepInterval > 0 {
		s.cleaner.Start(s.cfg.SessionSweepInterval)
		defer s.cleaner.Stop()
		s.logger.Info("session sweeper started", "interval", s.cfg.SessionSweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if s.cleaner != nil {
		s.cleaner.Stop()
	}
	s.store.Close()
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
