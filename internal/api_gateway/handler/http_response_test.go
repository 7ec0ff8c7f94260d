package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{name: "Validation", err: shared.NewValidationError("quantity", "must be positive"), wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMessage: "validation failed on quantity: must be positive"},
		{name: "UnknownAccount", err: account.ErrAccountNotFound{AccountID: 7}, wantStatus: http.StatusNotFound, wantCode: "UNKNOWN_ACCOUNT"},
		{name: "UnknownItem", err: inventory.ErrItemNotFound{ItemID: 3}, wantStatus: http.StatusNotFound, wantCode: "UNKNOWN_ITEM"},
		{name: "RecordNotFound", err: business.ErrRecordNotFound{Source: ledger.SourceTypeSale, ID: 9}, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "InsufficientStock", err: inventory.ErrInsufficientStock{ItemID: 1, Requested: decimal.NewFromInt(5), Available: decimal.NewFromInt(2)}, wantStatus: http.StatusConflict, wantCode: "INSUFFICIENT_STOCK"},
		{name: "AlreadyReversed", err: ledger.ErrAlreadyReversed{Ref: "PUR-1"}, wantStatus: http.StatusConflict, wantCode: "ALREADY_REVERSED"},
		{name: "HasActivity", err: account.ErrHasActivity{AccountID: 10101}, wantStatus: http.StatusConflict, wantCode: "ACCOUNT_HAS_ACTIVITY"},
		{name: "NotPostable", err: account.ErrNotPostable{AccountID: 1}, wantStatus: http.StatusConflict, wantCode: "ACCOUNT_NOT_POSTABLE"},
		{name: "UnknownSeason", err: season.ErrSeasonNotFound{SeasonID: 4}, wantStatus: http.StatusNotFound, wantCode: "UNKNOWN_SEASON"},
		{name: "NoActiveSeason", err: season.ErrNoActiveSeason, wantStatus: http.StatusNotFound, wantCode: "UNKNOWN_SEASON"},
		{name: "SeasonInUse", err: season.ErrSeasonInUse{SeasonID: 4}, wantStatus: http.StatusConflict, wantCode: "SEASON_CONFLICT"},
		{name: "DuplicateRequest", err: unitofwork.ErrDuplicateRequest{RequestID: "r-1"}, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_REQUEST"},
		{name: "Unbalanced", err: ledger.ErrUnbalancedPosting{Ref: "MAN-1", Debit: decimal.NewFromInt(1), Credit: decimal.Zero}, wantStatus: http.StatusInternalServerError, wantCode: "UNBALANCED_POSTING", wantMessage: "The posting could not be completed"},
		{name: "PostingFailed", err: shared.PostingFailedError{Operation: "insert entries", Err: errors.New("conn reset")}, wantStatus: http.StatusInternalServerError, wantCode: "POSTING_FAILED", wantMessage: "The posting could not be completed"},
		{name: "Unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_SERVER_ERROR", wantMessage: "An internal server error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/fail", func(c *gin.Context) {
				RespondError(c, discardLogger(), tt.err)
			})

			rr := performRequest(router, http.MethodGet, "/fail", "")

			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeResponse(t, rr, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error.Message)
			} else {
				assert.Equal(t, tt.err.Error(), resp.Error.Message)
			}
			assert.NotEmpty(t, resp.CorrelationID)
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, 2, 10, 21)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 21, resp.Meta.TotalItems)

	resp = NewPaginatedResponse(nil, 1, 10, 20)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}
