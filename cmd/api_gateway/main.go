package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crop-trade-ledger/internal/api_gateway"
	"github.com/crop-trade-ledger/internal/api_gateway/middleware"
	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/data"
	"github.com/crop-trade-ledger/internal/data/mongo"
	"github.com/crop-trade-ledger/internal/data/redis"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/crop-trade-ledger/internal/platform/messaging/producers"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/crop-trade-ledger/internal/reporting"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	shared.Epsilon = cfg.Ledger.Epsilon

	storage, err := data.Open(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Redis backs the statement cache and the shared rate limit counters
	var (
		redisClient *goredis.Client
		reportCache reporting.Cache
	)
	if cfg.Redis.Enabled() {
		redisClient, err = persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		reportCache = redis.NewReportCache(redisClient, cfg.Redis.ReportCacheTTL, log)
	}

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit.Rate, redisClient)
	if err != nil {
		log.Error("Failed to initialize rate limiter", "error", err)
		os.Exit(1)
	}

	kafkaProducer, err := producers.NewPostingRequestProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize posting request producer", "error", err)
		os.Exit(1)
	}

	reports := reporting.NewService(storage.UnitOfWork, reportCache, log)
	orchestrator := posting.NewOrchestrator(storage.UnitOfWork, log, posting.WithCommitHooks(reports.Invalidate))
	registryService := registry.NewService(storage.UnitOfWork, log, reports.Invalidate)

	seeded, err := registryService.SeedChart(appCtx)
	if err != nil {
		log.Error("Failed to seed chart of accounts", "error", err)
		os.Exit(1)
	}
	log.Info("Chart of accounts ready", "created", seeded)

	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())
	rejectionRepo := mongo.NewRejectionRepository(log, mongoDB.Database())

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Posting:        orchestrator,
		PostingRequest: service.NewPostingRequestService(log, kafkaProducer, storage.UnitOfWork, rejectionRepo),
		Registry:       registryService,
		Reporting:      reports,
		Journal:        service.NewJournalService(log, journalRepo),
	}, rateLimiter)
	log.Info("REST server initialized", "storage", storage.Driver, "auth", cfg.Auth.Enabled())

	errChan := make(chan error, 1)

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serverErr = <-errChan:
		log.Error("Server error occurred", "error", serverErr)
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing what they depend on
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}
	if err := kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
		shutdownErr = err
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}
	storage.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil || shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
