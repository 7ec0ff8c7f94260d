// Package memory implements the unit of work on in-process maps. Each write unit
// works on a copy of the state that replaces the committed state only when the
// unit returns without error, so a failed posting leaves no trace. A committed
// state is never modified again, which lets readers use it without holding a lock.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
)

// firstCustomAccountID matches the accounts id sequence of the Postgres schema
const firstCustomAccountID = 90001

// ErrReadOnly is returned by writes attempted inside Read
var ErrReadOnly = errors.New("memory store: write inside a read-only unit")

// Store is an in-memory unitofwork.UnitOfWork. Write units run one at a time;
// reads never wait for them or for each other.
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex
	state  *state
}

func NewStore() *Store {
	st := newState()
	st.frozen = true
	return &Store{state: st}
}

// Do runs fn against a private copy of the state and publishes it on success
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, s unitofwork.Store) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	working := s.committed().clone()
	if err := fn(ctx, &view{st: working}); err != nil {
		return err
	}

	working.frozen = true
	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

// Read runs fn against the state committed when it starts. Commits made while fn
// runs are not visible to it.
func (s *Store) Read(ctx context.Context, fn func(ctx context.Context, s unitofwork.Store) error) error {
	return fn(ctx, &view{st: s.committed()})
}

func (s *Store) committed() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

type view struct {
	st *state
}

func (v *view) Accounts() account.Repository    { return accountRepo{v.st} }
func (v *view) Ledger() ledger.Repository       { return ledgerRepo{v.st} }
func (v *view) Inventory() inventory.Repository { return inventoryRepo{v.st} }
func (v *view) Contacts() contact.Repository    { return contactRepo{v.st} }
func (v *view) Records() business.Repository    { return recordRepo{v.st} }
func (v *view) Seasons() season.Repository      { return seasonRepo{v.st} }
func (v *view) Audit() audit.Repository         { return auditRepo{v.st} }
func (v *view) Outbox() outbox.Repository       { return outboxRepo{v.st} }
func (v *view) Requests() unitofwork.RequestLog { return requestLog{v.st} }

// table holds rows of one kind by id. Rows are stored by value so a clone
// never shares mutable state with the committed copy.
type table[T any] struct {
	next int64
	rows map[int64]T
}

func newTable[T any](first int64) *table[T] {
	return &table[T]{next: first, rows: make(map[int64]T)}
}

func (t *table[T]) nextID() int64 {
	id := t.next
	t.next++
	return id
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{next: t.next, rows: make(map[int64]T, len(t.rows))}
	for id, row := range t.rows {
		c.rows[id] = row
	}
	return c
}

type state struct {
	accounts  *table[account.Account]
	entries   *table[ledger.Entry]
	items     *table[inventory.Item]
	positions map[int64]inventory.Position
	movements *table[inventory.Movement]
	contacts  *table[contact.Contact]

	purchases   *table[business.Purchase]
	sales       *table[business.Sale]
	payments    *table[business.Payment]
	expenses    *table[business.Expense]
	adjustments *table[business.Adjustment]
	returns     *table[business.Return]
	manuals     *table[business.ManualJournal]
	seasons     *table[season.Season]

	audit    *table[audit.Record]
	outbox   *table[outbox.Message]
	requests map[string]string

	// frozen is set once the state is committed
	frozen bool
}

func (s *state) writable() error {
	if s.frozen {
		return ErrReadOnly
	}
	return nil
}

func newState() *state {
	return &state{
		accounts:    newTable[account.Account](firstCustomAccountID),
		entries:     newTable[ledger.Entry](1),
		items:       newTable[inventory.Item](1),
		positions:   make(map[int64]inventory.Position),
		movements:   newTable[inventory.Movement](1),
		contacts:    newTable[contact.Contact](1),
		purchases:   newTable[business.Purchase](1),
		sales:       newTable[business.Sale](1),
		payments:    newTable[business.Payment](1),
		expenses:    newTable[business.Expense](1),
		adjustments: newTable[business.Adjustment](1),
		returns:     newTable[business.Return](1),
		manuals:     newTable[business.ManualJournal](1),
		seasons:     newTable[season.Season](1),
		audit:       newTable[audit.Record](1),
		outbox:      newTable[outbox.Message](1),
		requests:    make(map[string]string),
	}
}

func (s *state) clone() *state {
	positions := make(map[int64]inventory.Position, len(s.positions))
	for id, p := range s.positions {
		positions[id] = p
	}
	requests := make(map[string]string, len(s.requests))
	for id, ref := range s.requests {
		requests[id] = ref
	}

	return &state{
		accounts:    s.accounts.clone(),
		entries:     s.entries.clone(),
		items:       s.items.clone(),
		positions:   positions,
		movements:   s.movements.clone(),
		contacts:    s.contacts.clone(),
		purchases:   s.purchases.clone(),
		sales:       s.sales.clone(),
		payments:    s.payments.clone(),
		expenses:    s.expenses.clone(),
		adjustments: s.adjustments.clone(),
		returns:     s.returns.clone(),
		manuals:     s.manuals.clone(),
		seasons:     s.seasons.clone(),
		audit:       s.audit.clone(),
		outbox:      s.outbox.clone(),
		requests:    requests,
	}
}

var _ unitofwork.UnitOfWork = (*Store)(nil)
