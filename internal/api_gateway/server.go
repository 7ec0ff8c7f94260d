package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/crop-trade-ledger/internal/api_gateway/handler"
	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// Services groups everything the HTTP layer calls into
type Services struct {
	Posting        service.PostingService
	PostingRequest service.PostingRequestService
	Registry       service.RegistryService
	Reporting      service.ReportingService
	Journal        service.JournalService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services.
// A nil rateLimiter disables rate limiting.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, rateLimiter *limiter.Limiter) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, cfg, httpRouter, rateLimiter, handlers{
		posting:        handler.NewPostingHandler(log, services.Posting),
		postingRequest: handler.NewPostingRequestHandler(log, services.PostingRequest),
		account:        handler.NewAccountHandler(log, services.Registry, services.Reporting),
		item:           handler.NewItemHandler(log, services.Registry, services.Reporting),
		contact:        handler.NewContactHandler(log, services.Registry, services.Reporting),
		season:         handler.NewSeasonHandler(log, services.Registry),
		report:         handler.NewReportHandler(log, services.Reporting),
		journal:        handler.NewJournalHandler(log, services.Journal),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the write timeout for in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
