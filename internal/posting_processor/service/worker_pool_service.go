package service

import (
	"context"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds how many postings run at once. Each call
// blocks until its worker finishes so the consumer commits offsets in order.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size, ants.WithPanicHandler(func(p interface{}) {
		logger.Error("Worker panicked while processing posting request", "panic", p)
	}))
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessPosting submits the request to the pool and waits for its result
func (s *WorkerPoolProcessingService) ProcessPosting(ctx context.Context, request *shared.PostingRequest) error {
	logger := s.logger.With("request_id", request.RequestID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Debug("Submitting posting request to worker pool", "type", request.Type)

	resultChan := make(chan error, 1)
	requestCopy := *request

	err := s.pool.Submit(func() {
		var err error
		defer func() {
			if p := recover(); p != nil {
				resultChan <- errPanicked{value: p}
				panic(p)
			}
			resultChan <- err
		}()
		err = s.baseService.ProcessPosting(ctx, &requestCopy)
	})
	if err != nil {
		logger.Error("Failed to submit posting request to worker pool", "error", err)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
