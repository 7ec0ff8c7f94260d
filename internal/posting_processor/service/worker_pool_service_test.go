package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProcessingService mocks the ProcessingService interface
type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessPosting(ctx context.Context, request *shared.PostingRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func TestWorkerPoolProcessingService_ProcessPosting(t *testing.T) {
	request := newRequest()

	tests := []struct {
		name          string
		expectedError error
	}{
		{name: "successful processing"},
		{name: "processing error", expectedError: errors.New("processing error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := new(MockProcessingService)
			base.On("ProcessPosting", mock.Anything, mock.MatchedBy(func(r *shared.PostingRequest) bool {
				return r.RequestID == request.RequestID
			})).Return(tt.expectedError).Once()

			svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 2}, discardLogger())
			require.NoError(t, err)
			defer svc.Shutdown()

			err = svc.ProcessPosting(context.Background(), request)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			base.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolProcessingService_Concurrency(t *testing.T) {
	base := new(MockProcessingService)
	svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 5}, discardLogger())
	require.NoError(t, err)
	defer svc.Shutdown()

	var counter int64
	base.On("ProcessPosting", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&counter, 1)
	}).Return(nil)

	const numRequests = 10
	var wg sync.WaitGroup
	wg.Add(numRequests)
	for i := 0; i < numRequests; i++ {
		go func() {
			defer wg.Done()
			r := newRequest()
			r.RequestID = uuid.New()
			assert.NoError(t, svc.ProcessPosting(context.Background(), r))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numRequests), atomic.LoadInt64(&counter))
	assert.Equal(t, 5, svc.Capacity())
}

func TestWorkerPoolProcessingService_PanicBecomesError(t *testing.T) {
	base := new(MockProcessingService)
	base.On("ProcessPosting", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil)

	svc, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 1}, discardLogger())
	require.NoError(t, err)
	defer svc.Shutdown()

	err = svc.ProcessPosting(context.Background(), newRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
