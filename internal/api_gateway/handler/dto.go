package handler

import (
	"encoding/json"
	"time"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	Name               string          `json:"name" binding:"required,max=200"`
	Category           string          `json:"category" binding:"required"`
	ParentID           *int64          `json:"parent_id,omitempty" binding:"omitempty,gt=0"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceDate time.Time       `json:"opening_balance_date"`
}

// CreateItemRequest represents a request to register a traded commodity
type CreateItemRequest struct {
	Name string `json:"name" binding:"required,max=200"`
	Unit string `json:"unit" binding:"required,max=20"`
}

// CreateContactRequest represents a request to register a supplier or customer
type CreateContactRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Phone      string `json:"phone,omitempty" binding:"max=30"`
	IsSupplier bool   `json:"is_supplier"`
	IsCustomer bool   `json:"is_customer"`
}

// SeasonRequest represents a new or edited trading season; an empty status means UPCOMING
type SeasonRequest struct {
	Name      string    `json:"name" binding:"required,max=100"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status,omitempty" binding:"omitempty,oneof=UPCOMING ACTIVE COMPLETED"`
}

// SubmitPostingRequest represents an asynchronous posting handed to the processor
type SubmitPostingRequest struct {
	Type    shared.PostingType `json:"type" binding:"required"`
	Payload json.RawMessage    `json:"payload" binding:"required"`
}

// PostingResponse represents a committed business event in API responses
type PostingResponse struct {
	TransactionRef string          `json:"transaction_ref"`
	Record         business.Record `json:"record"`
}

// PostingAcceptedResponse is returned when a posting request was queued
type PostingAcceptedResponse struct {
	RequestID string               `json:"request_id"`
	Status    shared.PostingStatus `json:"status"`
}

// AccountListQuery filters the chart of accounts by category
type AccountListQuery struct {
	Categories []string `form:"category"`
}

// AsOfQuery selects a point-in-time statement; an empty as_of means today
type AsOfQuery struct {
	AsOf time.Time `form:"as_of" time_format:"2006-01-02" time_utc:"1"`
}

// DateRangeQuery bounds a statement; either end may be omitted
type DateRangeQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To   *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

// SeasonQuery narrows a report to one season
type SeasonQuery struct {
	SeasonID *int64 `form:"season_id" binding:"omitempty,gt=0"`
}

// AuditQuery filters the audit trail
type AuditQuery struct {
	Entity   string `form:"entity" binding:"max=64"`
	RecordID int64  `form:"record_id" binding:"min=0"`
	PaginationParams
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// Offset converts the page number into a row offset
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}
