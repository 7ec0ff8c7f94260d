package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupJournalRouter(svc *MockJournalService) *gin.Engine {
	h := NewJournalHandler(discardLogger(), svc)
	r := setupTestRouter()
	r.GET("/journals/:ref", h.GetByRef)
	r.GET("/accounts/:id/journals", h.GetByAccountID)
	return r
}

func TestJournalHandler_GetByRef(t *testing.T) {
	tests := []struct {
		name       string
		event      *ledger.JournalEvent
		err        error
		wantStatus int
	}{
		{name: "Projected", event: &ledger.JournalEvent{TransactionRef: "PUR-1", AccountIDs: []int64{10103, 20101}}, wantStatus: http.StatusOK},
		{name: "NotYetProjected", err: ledger.ErrReferenceNotFound{Ref: "PUR-1"}, wantStatus: http.StatusNotFound},
		{name: "MongoFailure", err: errors.New("server selection timeout"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockJournalService)
			svc.On("GetJournal", mock.Anything, "PUR-1").Return(tt.event, tt.err).Once()

			rr := performRequest(setupJournalRouter(svc), http.MethodGet, "/journals/PUR-1", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.event != nil {
				var event ledger.JournalEvent
				decodeResponse(t, rr, &event)
				assert.Equal(t, tt.event.AccountIDs, event.AccountIDs)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestJournalHandler_GetByAccountID(t *testing.T) {
	t.Run("Paginated", func(t *testing.T) {
		svc := new(MockJournalService)
		events := []*ledger.JournalEvent{{TransactionRef: "SAL-2"}, {TransactionRef: "PUR-1"}}
		svc.On("GetJournalsByAccountID", mock.Anything, int64(10101), 2, 2).Return(events, int64(5), nil).Once()

		rr := performRequest(setupJournalRouter(svc), http.MethodGet, "/accounts/10101/journals?page=2&per_page=2", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		var got []ledger.JournalEvent
		resp := decodeResponse(t, rr, &got)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Equal(t, 5, resp.Meta.TotalItems)
		assert.Len(t, got, 2)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		svc := new(MockJournalService)
		rr := performRequest(setupJournalRouter(svc), http.MethodGet, "/accounts/10101/journals?page=0", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetJournalsByAccountID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidAccountID", func(t *testing.T) {
		rr := performRequest(setupJournalRouter(new(MockJournalService)), http.MethodGet, "/accounts/cash/journals", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
