package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/posting"
	"github.com/crop-trade-ledger/internal/registry"
	"github.com/crop-trade-ledger/internal/reporting"
)

// PostingService posts business events synchronously
type PostingService interface {
	PostPurchase(ctx context.Context, cmd posting.PurchaseCommand) (*business.Purchase, error)
	PostSale(ctx context.Context, cmd posting.SaleCommand) (*business.Sale, error)
	PostPayment(ctx context.Context, cmd posting.PaymentCommand) (*business.Payment, error)
	PostExpense(ctx context.Context, cmd posting.ExpenseCommand) (*business.Expense, error)
	PostAdjustment(ctx context.Context, cmd posting.AdjustmentCommand) (*business.Adjustment, error)
	PostPurchaseReturn(ctx context.Context, cmd posting.ReturnCommand) (*business.Return, error)
	PostSaleReturn(ctx context.Context, cmd posting.ReturnCommand) (*business.Return, error)
	PostManualJournal(ctx context.Context, cmd posting.ManualJournalCommand) (*business.ManualJournal, error)

	// Reverse voids a posted record
	// Returns ErrAlreadyReversed if it was reversed before
	Reverse(ctx context.Context, cmd posting.ReversalCommand) (*posting.Reversal, error)
}

// RegistryService manages accounts, items, contacts and seasons
type RegistryService interface {
	CreateAccount(ctx context.Context, cmd registry.CreateAccountCommand) (*account.Account, error)
	GetAccount(ctx context.Context, id int64) (*account.Account, error)
	ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error)
	// DeleteAccount returns ErrHasActivity if any ledger entry references the account
	DeleteAccount(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, name, unit string) (*inventory.Item, error)
	GetItem(ctx context.Context, id int64) (*inventory.Item, error)
	ListItems(ctx context.Context) ([]*inventory.Item, error)

	CreateContact(ctx context.Context, cmd registry.CreateContactCommand) (*contact.Contact, error)
	GetContact(ctx context.Context, id int64) (*contact.Contact, error)
	ListContacts(ctx context.Context) ([]*contact.Contact, error)

	CreateSeason(ctx context.Context, cmd registry.SeasonCommand) (*season.Season, error)
	UpdateSeason(ctx context.Context, id int64, cmd registry.SeasonCommand) (*season.Season, error)
	// DeleteSeason returns ErrSeasonInUse if any record is tagged with the season
	DeleteSeason(ctx context.Context, id int64) error
	GetSeason(ctx context.Context, id int64) (*season.Season, error)
	ListSeasons(ctx context.Context) ([]*season.Season, error)
	ActiveSeason(ctx context.Context) (*season.Season, error)
}

// ReportingService answers read-only statement queries
type ReportingService interface {
	TrialBalance(ctx context.Context, asOf time.Time) (*reporting.TrialBalance, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (*reporting.BalanceSheet, error)
	IncomeStatement(ctx context.Context, from *time.Time, to time.Time) (*reporting.IncomeStatement, error)
	CashFlow(ctx context.Context, from, to *time.Time) (*reporting.CashFlow, error)
	InventoryValuation(ctx context.Context) (*reporting.InventoryValuation, error)
	AccountLedger(ctx context.Context, accountID int64, from, to *time.Time) (*reporting.AccountLedger, error)
	ContactStatement(ctx context.Context, contactID int64, from, to *time.Time) (*reporting.ContactStatement, error)
	SeasonPerformance(ctx context.Context, seasonID int64) (*reporting.SeasonPerformance, error)
	ItemMargins(ctx context.Context, seasonID *int64) (*reporting.ItemMargins, error)

	EntriesForRef(ctx context.Context, ref string) ([]*ledger.Entry, error)
	Position(ctx context.Context, itemID int64) (*inventory.Position, error)
	Movements(ctx context.Context, itemID int64, from, to *time.Time) ([]*inventory.Movement, error)
	AuditTrail(ctx context.Context, filter audit.Filter) ([]*audit.Record, error)
}

// JournalService reads the projected journal history
type JournalService interface {
	// GetJournal returns ErrReferenceNotFound if the journal was not projected yet
	GetJournal(ctx context.Context, ref string) (*ledger.JournalEvent, error)

	// GetJournalsByAccountID retrieves a page of journals touching an account
	// Returns journals, total count of all journals for the account, and any error
	GetJournalsByAccountID(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.JournalEvent, int64, error)
}

// PostingRequestService enqueues postings for the processor and reports their outcome
type PostingRequestService interface {
	Submit(ctx context.Context, typ shared.PostingType, payload json.RawMessage) (*shared.PostingRequest, error)
	Status(ctx context.Context, requestID string) (*PostingRequestStatus, error)
}

// PostingRequestStatus is the outcome of an asynchronous posting request as seen by the client
type PostingRequestStatus struct {
	RequestID      string               `json:"request_id"`
	Status         shared.PostingStatus `json:"status"`
	TransactionRef string               `json:"transaction_ref,omitempty"`
	Code           string               `json:"code,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	RejectedAt     *time.Time           `json:"rejected_at,omitempty"`
}
