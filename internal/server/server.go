// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:      config.Load() → server.New(cfg, logger)
//	server.New:   sqlite.DB → PasswordService, TokenService → SessionManager
//	              sqlite.DB → AuthService, RecipeService → AuthHandler, RecipeHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
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

	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/config"
	"github.com/sakif/recipe-box/internal/handler"
	"github.com/sakif/recipe-box/internal/middleware"
	sqliteRepo "github.com/sakif/recipe-box/internal/repository/sqlite"
	"github.com/sakif/recipe-box/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after shutdown;
// callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every layer.
//
// cfg.SessionSecret must already be set (see config.EnsureSessionSecret).
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /signup          → create account + session       (public)
// POST   /login           → start session                  (public)
// GET    /check_session   → current user                   (session, checked in handler)
// DELETE /logout          → end session                    (session, checked in handler)
// GET    /recipes         → list recipes                   (RequireAuth)
// POST   /recipes         → create recipe                  (RequireAuth)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS (only when origins are configured)
// 6. SecurityHeaders, MaxBytes
// 7. sessions.Load: resolves the session cookie for every route
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	sessions := auth.NewSessionManager(s.db, tokens, s.config.SessionTTL, s.config.CookieSecure, s.logger)

	authService := service.NewAuthService(s.db, passwords, s.logger)
	recipeService := service.NewRecipeService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, sessions, s.logger)
	recipeHandler := handler.NewRecipeHandler(recipeService, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// Credentials must be allowed or the browser drops the session cookie on
	// cross-origin requests. That in turn forbids a "*" origin.
	if len(s.config.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Use(middleware.SecurityHeaders(s.config.CookieSecure))
	s.router.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	s.router.Use(sessions.Load)

	// === Auth Routes ===
	s.router.Post("/signup", authHandler.HandleSignup)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/check_session", authHandler.HandleCheckSession)
	s.router.Delete("/logout", authHandler.HandleLogout)

	// === Recipe Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(sessions.RequireAuth)
		r.Get("/recipes", recipeHandler.HandleList)
		r.Post("/recipes", recipeHandler.HandleCreate)
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
