package posting

import (
	"context"
	"errors"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/shopspring/decimal"
)

// unit bundles the collaborators bound to one unit of work
type unit struct {
	store  unitofwork.Store
	ledger *ledger.Store
	stock  *inventory.Engine
	md     shared.Metadata
	now    time.Time
}

func (o *Orchestrator) newUnit(ctx context.Context, s unitofwork.Store) *unit {
	return &unit{
		store:  s,
		ledger: ledger.NewStore(s.Ledger(), o.logger, o.now),
		stock:  inventory.NewEngine(s.Inventory(), o.now),
		md:     shared.MetadataFrom(ctx),
		now:    o.now().UTC(),
	}
}

type role int

const (
	supplierRole role = iota
	customerRole
)

func (u *unit) contact(ctx context.Context, id int64, r role) (*contact.Contact, error) {
	c, err := u.store.Contacts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case r == supplierRole && !c.IsSupplier:
		return nil, shared.NewValidationError("contact_id", c.Name+" is not a supplier")
	case r == customerRole && !c.IsCustomer:
		return nil, shared.NewValidationError("contact_id", c.Name+" is not a customer")
	}
	return c, nil
}

// season picks the season a record is tagged with: the one asked for, or else the
// active season when its dates cover the record date
func (u *unit) season(ctx context.Context, id *int64, date time.Time) (*int64, error) {
	if id != nil {
		s, err := u.store.Seasons().GetByID(ctx, *id)
		if err != nil {
			return nil, err
		}
		return &s.ID, nil
	}

	active, err := u.store.Seasons().GetActive(ctx)
	if errors.Is(err, season.ErrNoActiveSeason) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !active.Covers(date) {
		return nil, nil
	}
	return &active.ID, nil
}

// paymentAccount returns a cash or bank account to move money through
func (u *unit) paymentAccount(ctx context.Context, id int64) (int64, error) {
	acc, err := u.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if !acc.Category.IsCashEquivalent() {
		return 0, shared.NewValidationError("payment_account_id", "must be a cash or bank account")
	}
	return acc.ID, nil
}

// settlementAccount resolves the payment account of a purchase or sale paid in part at once
func (u *unit) settlementAccount(ctx context.Context, amount decimal.Decimal, id *int64) (int64, error) {
	if !amount.IsPositive() {
		return 0, nil
	}
	if id == nil {
		return 0, shared.NewValidationError("payment_account_id", "is required when an amount is settled")
	}
	return u.paymentAccount(ctx, *id)
}

// checkSettlement rejects paying more than the total
func checkSettlement(field string, total, paid decimal.Decimal) error {
	if paid.Sub(total).GreaterThan(shared.Epsilon) {
		return shared.NewValidationError(field, "cannot exceed the total of "+total.String())
	}
	return nil
}

// post stores the journal and applies its balance deltas. Every account must exist
// and accept postings.
func (u *unit) post(ctx context.Context, j *ledger.Journal) error {
	for _, id := range j.AccountIDs() {
		acc, err := u.store.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !acc.Category.IsPostable() {
			return account.ErrNotPostable{AccountID: id}
		}
	}

	if _, err := u.ledger.Post(ctx, j); err != nil {
		return err
	}
	return u.applyDeltas(ctx, j)
}

func (u *unit) applyDeltas(ctx context.Context, j *ledger.Journal) error {
	for _, d := range j.Deltas() {
		if d.Amount.IsZero() {
			continue
		}
		if err := u.store.Accounts().ApplyDelta(ctx, d.AccountID, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (u *unit) audit(ctx context.Context, rec business.Record, op audit.Operation, oldValues, newValues interface{}) error {
	row, err := audit.NewRecord(rec.Entity(), rec.RecordID(), op, oldValues, newValues, u.md.Actor, u.md.CorrelationID, u.now)
	if err != nil {
		return err
	}
	return u.store.Audit().Append(ctx, row)
}

// finish queues the journal for projection and remembers the request that produced it
func (u *unit) finish(ctx context.Context, j *ledger.Journal) (*ledger.JournalEvent, error) {
	event := ledger.NewJournalEvent(j, u.md.Actor, u.md.CorrelationID, u.md.RequestID, u.now)
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}
	if err := u.store.Outbox().Create(ctx, msg); err != nil {
		return nil, err
	}

	if u.md.RequestID != "" {
		if err := u.store.Requests().Record(ctx, u.md.RequestID, j.Ref); err != nil {
			return nil, err
		}
	}
	return event, nil
}

// record loads a business record of any source type
func (u *unit) record(ctx context.Context, source ledger.SourceType, id int64) (business.Record, error) {
	records := u.store.Records()
	switch source {
	case ledger.SourceTypePurchase:
		return records.GetPurchase(ctx, id)
	case ledger.SourceTypeSale:
		return records.GetSale(ctx, id)
	case ledger.SourceTypePayment:
		return records.GetPayment(ctx, id)
	case ledger.SourceTypeExpense:
		return records.GetExpense(ctx, id)
	case ledger.SourceTypeAdjustment:
		return records.GetAdjustment(ctx, id)
	case ledger.SourceTypeReturn:
		return records.GetReturn(ctx, id)
	case ledger.SourceTypeManual:
		return records.GetManualJournal(ctx, id)
	}
	return nil, shared.NewValidationError("source_type", "unknown source type "+string(source))
}

func reference(rec business.Record) inventory.Reference {
	return inventory.Reference{Type: string(rec.Source()), ID: rec.RecordID()}
}

// dateOr defaults an unset business date to now
func dateOr(date, now time.Time) time.Time {
	if date.IsZero() {
		return now
	}
	return date
}
