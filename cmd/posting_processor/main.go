package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/data"
	"github.com/crop-trade-ledger/internal/data/mongo"
	"github.com/crop-trade-ledger/internal/data/redis"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/crop-trade-ledger/internal/platform/messaging/consumers"
	"github.com/crop-trade-ledger/internal/platform/messaging/producers"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/posting_processor/components"
	"github.com/crop-trade-ledger/internal/posting_processor/consumer"
	"github.com/crop-trade-ledger/internal/posting_processor/outbox_poller"
	"github.com/crop-trade-ledger/internal/posting_processor/service"
	"github.com/crop-trade-ledger/internal/reporting"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("posting_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	shared.Epsilon = cfg.Ledger.Epsilon

	log.Info("Starting Posting Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage", cfg.Storage.Driver,
	)

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
	if err := mongoDB.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}

	// committed postings invalidate the gateway's statement cache
	var hooks []unitofwork.CommitHook
	if cfg.Redis.Enabled() {
		redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		reports := reporting.NewService(storage.UnitOfWork, redis.NewReportCache(redisClient, cfg.Redis.ReportCacheTTL, log), log)
		hooks = append(hooks, reports.Invalidate)
	}

	orchestrator := posting.NewOrchestrator(storage.UnitOfWork, log, posting.WithCommitHooks(hooks...))
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())
	rejectionRepo := mongo.NewRejectionRepository(log, mongoDB.Database())

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	processingService := components.CreateProcessingService(orchestrator, rejectionRepo, log, cfg)
	requestHandler := consumer.NewPostingRequestHandler(log, processingService, dlqProducer)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		storage.UnitOfWork,
		outbox_poller.NewJournalProjector(journalRepo, log),
		log,
	)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.PostingTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case serviceErr = <-errChan:
		log.Error("Service error occurred", "error", serviceErr)
	}

	cancelAppCtx()

	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}
	storage.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Posting Processor shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Posting Processor shutdown completed successfully")
}
