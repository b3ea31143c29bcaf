// Package api implements the HTTP API server.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aific/finances-backend/internal/api/handlers"
	"github.com/aific/finances-backend/internal/api/middleware"
	"github.com/aific/finances-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.DocumentService
}

// NewServer creates a new API server around the document service.
func NewServer(cfg Config, svc *service.DocumentService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Accounts and statement imports
		accountsHandler := handlers.NewAccountsHandler(s.svc)
		r.Get("/accounts", accountsHandler.List)
		r.Post("/accounts", accountsHandler.Create)
		r.Post("/accounts/{id}/import", accountsHandler.ImportCSV)
		r.Post("/import/ofx", accountsHandler.ImportOFX)

		// Transactions
		transactionsHandler := handlers.NewTransactionsHandler(s.svc)
		r.Get("/transactions", transactionsHandler.List)
		r.Get("/transactions/{accountID}/{txID}", transactionsHandler.Get)
		r.Put("/transactions/{accountID}/{txID}/detector", transactionsHandler.AssignDetector)
		r.Put("/transactions/{accountID}/{txID}/note", transactionsHandler.SetNote)

		// Categories and detectors
		categoriesHandler := handlers.NewCategoriesHandler(s.svc)
		r.Get("/categories", categoriesHandler.List)
		r.Post("/categories", categoriesHandler.Create)
		r.Get("/categories/{id}", categoriesHandler.Get)
		r.Put("/categories/{id}", categoriesHandler.Update)
		r.Post("/detectors", categoriesHandler.CreateDetector)
		r.Get("/detectors/{id}", categoriesHandler.GetDetector)
		r.Patch("/detectors/{id}", categoriesHandler.UpdateDetector)

		// Document persistence
		documentHandler := handlers.NewDocumentHandler(s.svc)
		r.Post("/document/save", documentHandler.Save)
		r.Post("/document/load", documentHandler.Load)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
