// Package unitofwork defines the atomic boundary the posting orchestrator writes through.
package unitofwork

import (
	"context"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/season"
)

// Store exposes repositories bound to one unit of work
type Store interface {
	Accounts() account.Repository
	Ledger() ledger.Repository
	Inventory() inventory.Repository
	Contacts() contact.Repository
	Records() business.Repository
	Seasons() season.Repository
	Audit() audit.Repository
	Outbox() outbox.Repository
	Requests() RequestLog
}

// UnitOfWork runs functions against a Store with all-or-nothing semantics
type UnitOfWork interface {
	// Do runs fn in one atomic write transaction; any error rolls everything back
	Do(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	// Read runs fn on a consistent read-only snapshot
	Read(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// RequestLog remembers asynchronous posting requests that already committed
type RequestLog interface {
	// Record fails with ErrDuplicateRequest when requestID was recorded before
	Record(ctx context.Context, requestID, transactionRef string) error
	Lookup(ctx context.Context, requestID string) (string, bool, error)
}

// ErrDuplicateRequest indicates a posting request id that already committed
type ErrDuplicateRequest struct {
	RequestID string
}

func (e ErrDuplicateRequest) Error() string {
	return "posting request already processed: " + e.RequestID
}

// CommitHook runs after a unit of work that changed the ledger has committed
type CommitHook func(ctx context.Context)
