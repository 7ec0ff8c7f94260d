package memory

import (
	"context"
	"sort"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/outbox"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/shopspring/decimal"
)

type accountRepo struct{ st *state }

func (r accountRepo) Create(_ context.Context, acc *account.Account) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if acc.ID == 0 {
		acc.ID = r.st.accounts.nextID()
	}
	r.st.accounts.rows[acc.ID] = *acc
	return nil
}

func (r accountRepo) CreateIfNotExists(_ context.Context, acc *account.Account) (bool, error) {
	if err := r.st.writable(); err != nil {
		return false, err
	}
	if _, ok := r.st.accounts.rows[acc.ID]; ok {
		return false, nil
	}
	r.st.accounts.rows[acc.ID] = *acc
	return true, nil
}

func (r accountRepo) GetByID(_ context.Context, id int64) (*account.Account, error) {
	acc, ok := r.st.accounts.rows[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r accountRepo) List(_ context.Context, filter account.Filter) ([]*account.Account, error) {
	var accounts []*account.Account
	for _, acc := range r.st.accounts.rows {
		acc := acc
		if filter.Matches(&acc) {
			accounts = append(accounts, &acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r accountRepo) ApplyDelta(_ context.Context, id int64, amount decimal.Decimal) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	acc, ok := r.st.accounts.rows[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.ApplyDelta(amount)
	r.st.accounts.rows[id] = acc
	return nil
}

func (r accountRepo) ApplyOpeningDelta(_ context.Context, id int64, amount decimal.Decimal) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	acc, ok := r.st.accounts.rows[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.OpeningBalance = acc.OpeningBalance.Add(amount)
	acc.ApplyDelta(amount)
	r.st.accounts.rows[id] = acc
	return nil
}

func (r accountRepo) HasActivity(_ context.Context, id int64) (bool, error) {
	for _, e := range r.st.entries.rows {
		if e.AccountID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r accountRepo) Delete(_ context.Context, id int64) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if _, ok := r.st.accounts.rows[id]; !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	delete(r.st.accounts.rows, id)
	return nil
}

type ledgerRepo struct{ st *state }

func (r ledgerRepo) Insert(_ context.Context, entries []*ledger.Entry) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	for _, e := range entries {
		e.ID = r.st.entries.nextID()
		r.st.entries.rows[e.ID] = *e
	}
	return nil
}

func (r ledgerRepo) collect(keep func(e *ledger.Entry) bool) []*ledger.Entry {
	var entries []*ledger.Entry
	for _, e := range r.st.entries.rows {
		e := e
		if keep(&e) {
			entries = append(entries, &e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func (r ledgerRepo) EntriesForRef(_ context.Context, ref string) ([]*ledger.Entry, error) {
	entries := r.collect(func(e *ledger.Entry) bool { return e.TransactionRef == ref })
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (r ledgerRepo) EntriesForAccount(_ context.Context, accountID int64, rng ledger.Range) ([]*ledger.Entry, error) {
	return r.collect(func(e *ledger.Entry) bool {
		return e.AccountID == accountID && !e.Deleted && rng.Contains(e.EntryDate)
	}), nil
}

func (r ledgerRepo) MarkDeleted(_ context.Context, ref string) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	voided := 0
	for id, e := range r.st.entries.rows {
		if e.TransactionRef == ref && !e.Deleted {
			e.Deleted = true
			r.st.entries.rows[id] = e
			voided++
		}
	}
	if voided == 0 {
		return ledger.ErrAlreadyReversed{Ref: ref}
	}
	return nil
}

func (r ledgerRepo) Activity(_ context.Context, rng ledger.Range) ([]ledger.AccountActivity, error) {
	totals := make(map[int64]*ledger.AccountActivity)
	for _, e := range r.st.entries.rows {
		if e.Deleted || !rng.Contains(e.EntryDate) {
			continue
		}
		a, ok := totals[e.AccountID]
		if !ok {
			a = &ledger.AccountActivity{AccountID: e.AccountID, Debit: decimal.Zero, Credit: decimal.Zero}
			totals[e.AccountID] = a
		}
		a.Debit = a.Debit.Add(e.Debit)
		a.Credit = a.Credit.Add(e.Credit)
	}

	activity := make([]ledger.AccountActivity, 0, len(totals))
	for _, a := range totals {
		activity = append(activity, *a)
	}
	sort.Slice(activity, func(i, j int) bool { return activity[i].AccountID < activity[j].AccountID })
	return activity, nil
}

type inventoryRepo struct{ st *state }

func (r inventoryRepo) CreateItem(_ context.Context, item *inventory.Item) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	item.ID = r.st.items.nextID()
	r.st.items.rows[item.ID] = *item
	return nil
}

func (r inventoryRepo) GetItem(_ context.Context, id int64) (*inventory.Item, error) {
	item, ok := r.st.items.rows[id]
	if !ok {
		return nil, inventory.ErrItemNotFound{ItemID: id}
	}
	return &item, nil
}

func (r inventoryRepo) ListItems(_ context.Context) ([]*inventory.Item, error) {
	items := make([]*inventory.Item, 0, len(r.st.items.rows))
	for _, item := range r.st.items.rows {
		item := item
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// LockPosition needs no lock of its own; write units are already serialized
func (r inventoryRepo) LockPosition(ctx context.Context, itemID int64) (*inventory.Position, error) {
	return r.GetPosition(ctx, itemID)
}

func (r inventoryRepo) GetPosition(_ context.Context, itemID int64) (*inventory.Position, error) {
	item, ok := r.st.items.rows[itemID]
	if !ok {
		return nil, inventory.ErrItemNotFound{ItemID: itemID}
	}
	p, ok := r.st.positions[itemID]
	if !ok {
		zero := inventory.ZeroPosition(itemID)
		zero.UpdatedAt = item.CreatedAt
		return zero, nil
	}
	return &p, nil
}

func (r inventoryRepo) ListPositions(ctx context.Context) ([]*inventory.Position, error) {
	items, _ := r.ListItems(ctx)
	positions := make([]*inventory.Position, 0, len(items))
	for _, item := range items {
		p, err := r.GetPosition(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (r inventoryRepo) SavePosition(_ context.Context, p *inventory.Position) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if _, ok := r.st.items.rows[p.ItemID]; !ok {
		return inventory.ErrItemNotFound{ItemID: p.ItemID}
	}
	r.st.positions[p.ItemID] = *p
	return nil
}

func (r inventoryRepo) AppendMovement(_ context.Context, m *inventory.Movement) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	m.ID = r.st.movements.nextID()
	r.st.movements.rows[m.ID] = *m
	return nil
}

func (r inventoryRepo) Movements(_ context.Context, itemID int64, from, to *time.Time) ([]*inventory.Movement, error) {
	rng := ledger.Range{From: from, To: to}
	var movements []*inventory.Movement
	for _, m := range r.st.movements.rows {
		m := m
		if m.ItemID == itemID && rng.Contains(m.MovementDate) {
			movements = append(movements, &m)
		}
	}
	sort.Slice(movements, func(i, j int) bool {
		if !movements[i].MovementDate.Equal(movements[j].MovementDate) {
			return movements[i].MovementDate.Before(movements[j].MovementDate)
		}
		return movements[i].ID < movements[j].ID
	})
	return movements, nil
}

type contactRepo struct{ st *state }

func (r contactRepo) Create(_ context.Context, c *contact.Contact) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	c.ID = r.st.contacts.nextID()
	r.st.contacts.rows[c.ID] = *c
	return nil
}

func (r contactRepo) GetByID(_ context.Context, id int64) (*contact.Contact, error) {
	c, ok := r.st.contacts.rows[id]
	if !ok {
		return nil, contact.ErrContactNotFound{ContactID: id}
	}
	return &c, nil
}

func (r contactRepo) List(_ context.Context) ([]*contact.Contact, error) {
	contacts := make([]*contact.Contact, 0, len(r.st.contacts.rows))
	for _, c := range r.st.contacts.rows {
		c := c
		contacts = append(contacts, &c)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}

type auditRepo struct{ st *state }

func (r auditRepo) Append(_ context.Context, rec *audit.Record) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	rec.ID = r.st.audit.nextID()
	r.st.audit.rows[rec.ID] = *rec
	return nil
}

// List returns matching records newest first
func (r auditRepo) List(_ context.Context, filter audit.Filter) ([]*audit.Record, error) {
	var records []*audit.Record
	for _, rec := range r.st.audit.rows {
		rec := rec
		if filter.Entity != "" && rec.Entity != filter.Entity {
			continue
		}
		if filter.RecordID != 0 && rec.RecordID != filter.RecordID {
			continue
		}
		records = append(records, &rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if filter.Offset >= len(records) {
		return nil, nil
	}
	records = records[filter.Offset:]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

type outboxRepo struct{ st *state }

func (r outboxRepo) Create(_ context.Context, message *outbox.Message) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	message.ID = r.st.outbox.nextID()
	r.st.outbox.rows[message.ID] = *message
	return nil
}

func (r outboxRepo) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var messages []*outbox.Message
	for _, m := range r.st.outbox.rows {
		m := m
		if m.Status == shared.OutboxStatusPending {
			messages = append(messages, &m)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r outboxRepo) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	m, ok := r.st.outbox.rows[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}
	now := time.Now().UTC()
	m.Status = status
	m.LastAttemptAt = &now
	r.st.outbox.rows[id] = m
	return nil
}

func (r outboxRepo) IncrementAttempts(_ context.Context, id int64) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	m, ok := r.st.outbox.rows[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}
	m.IncrementAttempts()
	r.st.outbox.rows[id] = m
	return nil
}

type requestLog struct{ st *state }

func (r requestLog) Record(_ context.Context, requestID, transactionRef string) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	if _, ok := r.st.requests[requestID]; ok {
		return unitofwork.ErrDuplicateRequest{RequestID: requestID}
	}
	r.st.requests[requestID] = transactionRef
	return nil
}

func (r requestLog) Lookup(_ context.Context, requestID string) (string, bool, error) {
	ref, ok := r.st.requests[requestID]
	return ref, ok, nil
}
