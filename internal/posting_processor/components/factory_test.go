package components

import (
	"testing"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/posting_processor/service"
	"github.com/stretchr/testify/assert"
)

// stubDispatcher is never called; the factory only wires it
type stubDispatcher struct {
	service.Dispatcher
}

func TestCreateProcessingService(t *testing.T) {
	cfg := &config.Config{
		WorkerPool: config.WorkerPoolConfig{
			Size: 5,
		},
	}

	processingService := CreateProcessingService(stubDispatcher{}, &MockRejectionStore{}, discardLogger(), cfg)
	assert.NotNil(t, processingService)

	pool, ok := processingService.(*service.WorkerPoolProcessingService)
	if assert.True(t, ok, "expected the worker pool wrapper") {
		assert.Equal(t, 5, pool.Capacity())
		pool.Shutdown()
	}
}
