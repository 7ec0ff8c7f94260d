package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupPostingRequestRouter(svc *MockPostingRequestService) *gin.Engine {
	h := NewPostingRequestHandler(discardLogger(), svc)
	r := setupTestRouter()
	r.POST("/postings", h.Submit)
	r.GET("/postings/:request_id", h.Status)
	return r
}

func TestPostingRequestHandler_Submit(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		requestID := uuid.New()
		svc := new(MockPostingRequestService)
		svc.On("Submit", mock.Anything, shared.PostingTypeExpense, mock.MatchedBy(func(p json.RawMessage) bool {
			return json.Valid(p)
		})).Return(&shared.PostingRequest{RequestID: requestID, Type: shared.PostingTypeExpense}, nil).Once()

		rr := performRequest(setupPostingRequestRouter(svc), http.MethodPost, "/postings",
			`{"type":"EXPENSE","payload":{"expense_account_id":50102,"payment_account_id":10101,"amount":"75"}}`)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		var accepted PostingAcceptedResponse
		decodeResponse(t, rr, &accepted)
		assert.Equal(t, requestID.String(), accepted.RequestID)
		assert.Equal(t, shared.PostingStatusPending, accepted.Status)
		svc.AssertExpectations(t)
	})

	t.Run("MissingPayload", func(t *testing.T) {
		svc := new(MockPostingRequestService)
		rr := performRequest(setupPostingRequestRouter(svc), http.MethodPost, "/postings", `{"type":"EXPENSE"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownType", func(t *testing.T) {
		svc := new(MockPostingRequestService)
		svc.On("Submit", mock.Anything, shared.PostingType("REFUND"), mock.Anything).
			Return(nil, shared.NewValidationError("request", "invalid posting type")).Once()

		rr := performRequest(setupPostingRequestRouter(svc), http.MethodPost, "/postings", `{"type":"REFUND","payload":{}}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rr, nil).Error.Code)
	})

	t.Run("BrokerDown", func(t *testing.T) {
		svc := new(MockPostingRequestService)
		svc.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("kafka: leader not available")).Once()

		rr := performRequest(setupPostingRequestRouter(svc), http.MethodPost, "/postings", `{"type":"SALE","payload":{}}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestPostingRequestHandler_Status(t *testing.T) {
	requestID := uuid.NewString()

	tests := []struct {
		name   string
		status *service.PostingRequestStatus
	}{
		{name: "Committed", status: &service.PostingRequestStatus{RequestID: requestID, Status: shared.PostingStatusCommitted, TransactionRef: "EXP-3"}},
		{name: "Rejected", status: &service.PostingRequestStatus{RequestID: requestID, Status: shared.PostingStatusRejected, Code: "INSUFFICIENT_STOCK", Reason: "insufficient stock"}},
		{name: "Pending", status: &service.PostingRequestStatus{RequestID: requestID, Status: shared.PostingStatusPending}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPostingRequestService)
			svc.On("Status", mock.Anything, requestID).Return(tt.status, nil).Once()

			rr := performRequest(setupPostingRequestRouter(svc), http.MethodGet, "/postings/"+requestID, "")

			assert.Equal(t, http.StatusOK, rr.Code)
			var got service.PostingRequestStatus
			decodeResponse(t, rr, &got)
			assert.Equal(t, *tt.status, got)
		})
	}

	t.Run("MalformedID", func(t *testing.T) {
		svc := new(MockPostingRequestService)
		svc.On("Status", mock.Anything, "nope").Return(nil, shared.NewValidationError("request_id", "must be a UUID")).Once()

		rr := performRequest(setupPostingRequestRouter(svc), http.MethodGet, "/postings/nope", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
