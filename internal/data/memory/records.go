package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

type recordRepo struct{ st *state }

func notFound(source ledger.SourceType, id int64) error {
	return business.ErrRecordNotFound{Source: source, ID: id}
}

func (r recordRepo) CreatePurchase(_ context.Context, p *business.Purchase) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	p.ID = r.st.purchases.nextID()
	r.st.purchases.rows[p.ID] = *p
	return nil
}

func (r recordRepo) GetPurchase(_ context.Context, id int64) (*business.Purchase, error) {
	p, ok := r.st.purchases.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypePurchase, id)
	}
	return &p, nil
}

func (r recordRepo) CreateSale(_ context.Context, s *business.Sale) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	s.ID = r.st.sales.nextID()
	r.st.sales.rows[s.ID] = *s
	return nil
}

func (r recordRepo) GetSale(_ context.Context, id int64) (*business.Sale, error) {
	s, ok := r.st.sales.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypeSale, id)
	}
	return &s, nil
}

func (r recordRepo) CreatePayment(_ context.Context, p *business.Payment) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	p.ID = r.st.payments.nextID()
	r.st.payments.rows[p.ID] = *p
	return nil
}

func (r recordRepo) GetPayment(_ context.Context, id int64) (*business.Payment, error) {
	p, ok := r.st.payments.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypePayment, id)
	}
	return &p, nil
}

func (r recordRepo) CreateExpense(_ context.Context, e *business.Expense) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	e.ID = r.st.expenses.nextID()
	r.st.expenses.rows[e.ID] = *e
	return nil
}

func (r recordRepo) GetExpense(_ context.Context, id int64) (*business.Expense, error) {
	e, ok := r.st.expenses.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypeExpense, id)
	}
	return &e, nil
}

func (r recordRepo) CreateAdjustment(_ context.Context, a *business.Adjustment) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	a.ID = r.st.adjustments.nextID()
	r.st.adjustments.rows[a.ID] = *a
	return nil
}

func (r recordRepo) GetAdjustment(_ context.Context, id int64) (*business.Adjustment, error) {
	a, ok := r.st.adjustments.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypeAdjustment, id)
	}
	return &a, nil
}

func (r recordRepo) CreateReturn(_ context.Context, ret *business.Return) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	ret.ID = r.st.returns.nextID()
	r.st.returns.rows[ret.ID] = *ret
	return nil
}

func (r recordRepo) GetReturn(_ context.Context, id int64) (*business.Return, error) {
	ret, ok := r.st.returns.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypeReturn, id)
	}
	return &ret, nil
}

func (r recordRepo) CreateManualJournal(_ context.Context, m *business.ManualJournal) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	m.ID = r.st.manuals.nextID()
	r.st.manuals.rows[m.ID] = *m
	return nil
}

func (r recordRepo) GetManualJournal(_ context.Context, id int64) (*business.ManualJournal, error) {
	m, ok := r.st.manuals.rows[id]
	if !ok {
		return nil, notFound(ledger.SourceTypeManual, id)
	}
	return &m, nil
}

func (r recordRepo) ReturnedQuantity(_ context.Context, kind business.ReturnKind, originalID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, ret := range r.st.returns.rows {
		if ret.Kind == kind && ret.OriginalID == originalID && !ret.IsReversed() {
			total = total.Add(ret.Quantity)
		}
	}
	return total, nil
}

// stamp sets ReversedAt on m unless it is already set
func stamp(m *business.Meta, source ledger.SourceType, at time.Time) error {
	if m.IsReversed() {
		return business.ErrAlreadyReversed{Source: source, ID: m.ID}
	}
	m.ReversedAt = &at
	return nil
}

func markReversed[T any](t *table[T], id int64, source ledger.SourceType, at time.Time, meta func(*T) *business.Meta) error {
	row, ok := t.rows[id]
	if !ok {
		return notFound(source, id)
	}
	if err := stamp(meta(&row), source, at); err != nil {
		return err
	}
	t.rows[id] = row
	return nil
}

func (r recordRepo) MarkReversed(_ context.Context, source ledger.SourceType, id int64, at time.Time) error {
	if err := r.st.writable(); err != nil {
		return err
	}
	switch source {
	case ledger.SourceTypePurchase:
		return markReversed(r.st.purchases, id, source, at, func(p *business.Purchase) *business.Meta { return &p.Meta })
	case ledger.SourceTypeSale:
		return markReversed(r.st.sales, id, source, at, func(s *business.Sale) *business.Meta { return &s.Meta })
	case ledger.SourceTypePayment:
		return markReversed(r.st.payments, id, source, at, func(p *business.Payment) *business.Meta { return &p.Meta })
	case ledger.SourceTypeExpense:
		return markReversed(r.st.expenses, id, source, at, func(e *business.Expense) *business.Meta { return &e.Meta })
	case ledger.SourceTypeAdjustment:
		return markReversed(r.st.adjustments, id, source, at, func(a *business.Adjustment) *business.Meta { return &a.Meta })
	case ledger.SourceTypeReturn:
		return markReversed(r.st.returns, id, source, at, func(ret *business.Return) *business.Meta { return &ret.Meta })
	case ledger.SourceTypeManual:
		return markReversed(r.st.manuals, id, source, at, func(m *business.ManualJournal) *business.Meta { return &m.Meta })
	}
	return fmt.Errorf("unknown source type %q", source)
}

// ContactActivity mirrors the Postgres statement query: debit raises what the contact
// owes the business and credit lowers it.
func (r recordRepo) ContactActivity(_ context.Context, contactID int64, rng ledger.Range) ([]*business.ContactLine, error) {
	var lines []*business.ContactLine
	add := func(rec business.Record, date time.Time, description string, debit, credit decimal.Decimal) {
		if !rng.Contains(date) {
			return
		}
		lines = append(lines, &business.ContactLine{
			Date:           date,
			Source:         rec.Source(),
			RecordID:       rec.RecordID(),
			TransactionRef: rec.TransactionRef(),
			Description:    description,
			Debit:          debit,
			Credit:         credit,
		})
	}

	for _, p := range r.st.purchases.rows {
		p := p
		if p.ContactID == contactID && !p.IsReversed() {
			add(&p, p.PurchaseDate, p.Notes, p.AmountPaid, p.Total)
		}
	}
	for _, s := range r.st.sales.rows {
		s := s
		if s.ContactID == contactID && !s.IsReversed() {
			add(&s, s.SaleDate, s.Notes, s.Total, s.AmountReceived)
		}
	}
	for _, p := range r.st.payments.rows {
		p := p
		if p.ContactID != contactID || p.IsReversed() {
			continue
		}
		if p.Direction == business.PaymentDirectionPay {
			add(&p, p.PaymentDate, p.Notes, p.Amount, decimal.Zero)
		} else {
			add(&p, p.PaymentDate, p.Notes, decimal.Zero, p.Amount)
		}
	}
	for _, ret := range r.st.returns.rows {
		ret := ret
		if ret.ContactID != contactID || ret.IsReversed() {
			continue
		}
		if ret.Kind == business.ReturnKindPurchase {
			add(&ret, ret.ReturnDate, ret.Reason, ret.Amount, decimal.Zero)
		} else {
			add(&ret, ret.ReturnDate, ret.Reason, decimal.Zero, ret.Amount)
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].TransactionRef < lines[j].TransactionRef
	})
	return lines, nil
}
