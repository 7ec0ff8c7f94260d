package components

import (
	"log/slog"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/posting_processor/service"
)

// CreateProcessingService wires the orchestrator and rejection store behind a worker pool.
func CreateProcessingService(
	orchestrator service.Dispatcher,
	rejections RejectionStore,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	baseService := service.NewProcessingService(
		orchestrator,
		NewRejectionRecorder(rejections, logger),
		posting.IsBusinessError,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
