// Package posting turns business events into balanced journals. Each event runs in
// a single unit of work that writes the record, its ledger entries, the balance
// deltas, any stock movement, an audit row and an outbox message, or nothing at all.
package posting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Orchestrator struct {
	uow      unitofwork.UnitOfWork
	validate *validator.Validate
	accounts account.SystemAccounts
	logger   *slog.Logger
	hooks    []unitofwork.CommitHook
	now      func() time.Time
}

type Option func(*Orchestrator)

// WithSystemAccounts overrides the accounts the standard postings use
func WithSystemAccounts(a account.SystemAccounts) Option {
	return func(o *Orchestrator) { o.accounts = a }
}

// WithCommitHooks registers functions run after every committed posting
func WithCommitHooks(hooks ...unitofwork.CommitHook) Option {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, hooks...) }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(uow unitofwork.UnitOfWork, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uow:      uow,
		validate: NewValidator(),
		accounts: account.DefaultSystemAccounts(),
		logger:   logger.With("component", "posting"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// draft is what an event handler hands back to the shared commit path
type draft struct {
	record business.Record
	date   time.Time
	lines  []ledger.Line
	// moveStock runs after the journal is stored; nil for events without stock
	moveStock func(ctx context.Context) error
}

// post runs build and the common tail of every posting inside one unit of work
func post[R business.Record](ctx context.Context, o *Orchestrator, op string, build func(ctx context.Context, u *unit) (*draft, error)) (R, error) {
	var (
		zero  R
		rec   R
		event *ledger.JournalEvent
	)

	if err := o.checkRequest(ctx); err != nil {
		return zero, o.fail(ctx, op, err)
	}

	err := o.uow.Do(ctx, func(ctx context.Context, s unitofwork.Store) error {
		u := o.newUnit(ctx, s)
		d, err := build(ctx, u)
		if err != nil {
			return err
		}

		j, err := ledger.NewJournal(d.record.TransactionRef(), d.date, d.record.Source(), d.record.RecordID(), d.lines)
		if err != nil {
			return err
		}
		if err := u.post(ctx, j); err != nil {
			return err
		}
		if d.moveStock != nil {
			if err := d.moveStock(ctx); err != nil {
				return err
			}
		}
		if err := u.audit(ctx, d.record, audit.OperationCreate, nil, d.record); err != nil {
			return err
		}

		event, err = u.finish(ctx, j)
		if err != nil {
			return err
		}
		rec = d.record.(R)
		return nil
	})
	if err != nil {
		return zero, o.fail(ctx, op, err)
	}

	o.committed(ctx, event)
	return rec, nil
}

// checkRequest refuses a request id that already produced a posting
func (o *Orchestrator) checkRequest(ctx context.Context) error {
	md := shared.MetadataFrom(ctx)
	if md.RequestID == "" {
		return nil
	}
	return o.uow.Read(ctx, func(ctx context.Context, s unitofwork.Store) error {
		_, found, err := s.Requests().Lookup(ctx, md.RequestID)
		if err != nil {
			return err
		}
		if found {
			return unitofwork.ErrDuplicateRequest{RequestID: md.RequestID}
		}
		return nil
	})
}

func (o *Orchestrator) committed(ctx context.Context, event *ledger.JournalEvent) {
	logger.FromContext(ctx, o.logger).Info("Posting committed",
		"transaction_ref", event.TransactionRef,
		"source_type", event.SourceType,
		"source_id", event.SourceID,
		"entries", len(event.Entries),
	)
	for _, hook := range o.hooks {
		hook(ctx)
	}
}

// fail passes business errors through and wraps everything else as a storage failure
func (o *Orchestrator) fail(ctx context.Context, op string, err error) error {
	log := logger.FromContext(ctx, o.logger)

	var unbalanced ledger.ErrUnbalancedPosting
	if errors.As(err, &unbalanced) {
		log.Error("Posting produced an unbalanced journal", "operation", op, "error", err)
		return err
	}
	if IsBusinessError(err) {
		log.Warn("Posting rejected", "operation", op, "error", err)
		return err
	}

	log.Error("Posting failed", "operation", op, "error", err)
	return shared.PostingFailedError{Operation: op, Err: err}
}

// PostPurchase books a stock purchase on credit, settling amount_paid at once when given.
//
//	Dr Inventory        total
//	Cr Accounts Payable total
//	Dr Accounts Payable paid
//	Cr payment account  paid
func (o *Orchestrator) PostPurchase(ctx context.Context, cmd PurchaseCommand) (*business.Purchase, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "purchase", err)
	}

	return post[*business.Purchase](ctx, o, "purchase", func(ctx context.Context, u *unit) (*draft, error) {
		if _, err := u.contact(ctx, cmd.ContactID, supplierRole); err != nil {
			return nil, err
		}
		if _, err := u.store.Inventory().GetItem(ctx, cmd.ItemID); err != nil {
			return nil, err
		}

		total := cmd.Quantity.Mul(cmd.UnitPrice)
		if err := checkSettlement("amount_paid", total, cmd.AmountPaid); err != nil {
			return nil, err
		}
		payAccount, err := u.settlementAccount(ctx, cmd.AmountPaid, cmd.PaymentAccountID)
		if err != nil {
			return nil, err
		}

		purchaseDate := ledger.DateOf(dateOr(cmd.Date, u.now))
		seasonID, err := u.season(ctx, cmd.SeasonID, purchaseDate)
		if err != nil {
			return nil, err
		}

		p := &business.Purchase{
			Meta:             business.Meta{CreatedAt: u.now},
			ContactID:        cmd.ContactID,
			ItemID:           cmd.ItemID,
			Quantity:         cmd.Quantity,
			UnitPrice:        cmd.UnitPrice,
			Total:            total,
			AmountPaid:       cmd.AmountPaid,
			PaymentAccountID: cmd.PaymentAccountID,
			PurchaseDate:     purchaseDate,
			SeasonID:         seasonID,
			InvoiceNumber:    cmd.InvoiceNumber,
			Notes:            cmd.Notes,
		}
		if err := u.store.Records().CreatePurchase(ctx, p); err != nil {
			return nil, err
		}

		ref := p.TransactionRef()
		lines := []ledger.Line{
			ledger.Debit(o.accounts.Inventory, total, "Purchase "+ref),
			ledger.Credit(o.accounts.AccountsPayable, total, "Purchase "+ref),
		}
		if p.AmountPaid.IsPositive() {
			lines = append(lines,
				ledger.Debit(o.accounts.AccountsPayable, p.AmountPaid, "Payment on "+ref),
				ledger.Credit(payAccount, p.AmountPaid, "Payment on "+ref),
			)
		}

		return &draft{
			record: p,
			date:   p.PurchaseDate,
			lines:  lines,
			moveStock: func(ctx context.Context) error {
				_, _, err := u.stock.RecordInbound(ctx, p.ItemID, p.Quantity, p.UnitPrice, reference(p), p.PurchaseDate)
				return err
			},
		}, nil
	})
}

// PostSale books revenue and the cost of the goods sold at the current average cost.
// The unit cost is frozen on the sale so returns and reversals use the same figure.
//
//	Dr Accounts Receivable total    Dr COGS      cost
//	Cr Sales Revenue       total    Cr Inventory cost
func (o *Orchestrator) PostSale(ctx context.Context, cmd SaleCommand) (*business.Sale, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "sale", err)
	}

	return post[*business.Sale](ctx, o, "sale", func(ctx context.Context, u *unit) (*draft, error) {
		if _, err := u.contact(ctx, cmd.ContactID, customerRole); err != nil {
			return nil, err
		}
		if _, err := u.store.Inventory().GetItem(ctx, cmd.ItemID); err != nil {
			return nil, err
		}

		total := cmd.Quantity.Mul(cmd.UnitPrice)
		if err := checkSettlement("amount_received", total, cmd.AmountReceived); err != nil {
			return nil, err
		}
		payAccount, err := u.settlementAccount(ctx, cmd.AmountReceived, cmd.PaymentAccountID)
		if err != nil {
			return nil, err
		}

		pos, err := u.store.Inventory().LockPosition(ctx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if cmd.Quantity.GreaterThan(pos.Quantity) {
			return nil, inventory.ErrInsufficientStock{ItemID: cmd.ItemID, Requested: cmd.Quantity, Available: pos.Quantity}
		}

		saleDate := ledger.DateOf(dateOr(cmd.Date, u.now))
		seasonID, err := u.season(ctx, cmd.SeasonID, saleDate)
		if err != nil {
			return nil, err
		}

		s := &business.Sale{
			Meta:             business.Meta{CreatedAt: u.now},
			ContactID:        cmd.ContactID,
			ItemID:           cmd.ItemID,
			Quantity:         cmd.Quantity,
			UnitPrice:        cmd.UnitPrice,
			Total:            total,
			AmountReceived:   cmd.AmountReceived,
			PaymentAccountID: cmd.PaymentAccountID,
			UnitCost:         pos.AverageCost,
			COGS:             cmd.Quantity.Mul(pos.AverageCost),
			SaleDate:         saleDate,
			SeasonID:         seasonID,
			InvoiceNumber:    cmd.InvoiceNumber,
			Notes:            cmd.Notes,
		}
		if err := u.store.Records().CreateSale(ctx, s); err != nil {
			return nil, err
		}

		ref := s.TransactionRef()
		lines := []ledger.Line{
			ledger.Debit(o.accounts.AccountsReceivable, total, "Sale "+ref),
			ledger.Credit(o.accounts.SalesRevenue, total, "Sale "+ref),
		}
		if s.COGS.IsPositive() {
			lines = append(lines,
				ledger.Debit(o.accounts.CostOfGoodsSold, s.COGS, "Cost of "+ref),
				ledger.Credit(o.accounts.Inventory, s.COGS, "Cost of "+ref),
			)
		}
		if s.AmountReceived.IsPositive() {
			lines = append(lines,
				ledger.Debit(payAccount, s.AmountReceived, "Receipt on "+ref),
				ledger.Credit(o.accounts.AccountsReceivable, s.AmountReceived, "Receipt on "+ref),
			)
		}

		return &draft{
			record: s,
			date:   s.SaleDate,
			lines:  lines,
			moveStock: func(ctx context.Context) error {
				_, _, err := u.stock.RecordOutbound(ctx, s.ItemID, s.Quantity, reference(s), s.SaleDate)
				return err
			},
		}, nil
	})
}

// PostPayment settles a supplier payable (PAY) or collects a customer receivable (RECEIVE)
func (o *Orchestrator) PostPayment(ctx context.Context, cmd PaymentCommand) (*business.Payment, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "payment", err)
	}

	return post[*business.Payment](ctx, o, "payment", func(ctx context.Context, u *unit) (*draft, error) {
		r := customerRole
		if cmd.Direction == business.PaymentDirectionPay {
			r = supplierRole
		}
		if _, err := u.contact(ctx, cmd.ContactID, r); err != nil {
			return nil, err
		}
		payAccount, err := u.paymentAccount(ctx, cmd.PaymentAccountID)
		if err != nil {
			return nil, err
		}

		p := &business.Payment{
			Meta:             business.Meta{CreatedAt: u.now},
			ContactID:        cmd.ContactID,
			Direction:        cmd.Direction,
			Amount:           cmd.Amount,
			PaymentAccountID: payAccount,
			PaymentDate:      ledger.DateOf(dateOr(cmd.Date, u.now)),
			Notes:            cmd.Notes,
		}
		if err := u.store.Records().CreatePayment(ctx, p); err != nil {
			return nil, err
		}

		ref := p.TransactionRef()
		var lines []ledger.Line
		if p.Direction == business.PaymentDirectionPay {
			lines = []ledger.Line{
				ledger.Debit(o.accounts.AccountsPayable, p.Amount, "Payment "+ref),
				ledger.Credit(payAccount, p.Amount, "Payment "+ref),
			}
		} else {
			lines = []ledger.Line{
				ledger.Debit(payAccount, p.Amount, "Receipt "+ref),
				ledger.Credit(o.accounts.AccountsReceivable, p.Amount, "Receipt "+ref),
			}
		}
		return &draft{record: p, date: p.PaymentDate, lines: lines}, nil
	})
}

// PostExpense pays an expense out of a cash or bank account
func (o *Orchestrator) PostExpense(ctx context.Context, cmd ExpenseCommand) (*business.Expense, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "expense", err)
	}

	return post[*business.Expense](ctx, o, "expense", func(ctx context.Context, u *unit) (*draft, error) {
		expenseAccount, err := u.store.Accounts().GetByID(ctx, cmd.ExpenseAccountID)
		if err != nil {
			return nil, err
		}
		if expenseAccount.Category != account.CategoryExpense {
			return nil, shared.NewValidationError("expense_account_id", "must be an expense account")
		}
		payAccount, err := u.paymentAccount(ctx, cmd.PaymentAccountID)
		if err != nil {
			return nil, err
		}

		expenseDate := ledger.DateOf(dateOr(cmd.Date, u.now))
		seasonID, err := u.season(ctx, cmd.SeasonID, expenseDate)
		if err != nil {
			return nil, err
		}

		e := &business.Expense{
			Meta:             business.Meta{CreatedAt: u.now},
			ExpenseAccountID: expenseAccount.ID,
			PaymentAccountID: payAccount,
			Amount:           cmd.Amount,
			ExpenseDate:      expenseDate,
			SeasonID:         seasonID,
			Description:      cmd.Description,
		}
		if err := u.store.Records().CreateExpense(ctx, e); err != nil {
			return nil, err
		}

		desc := e.Description
		if desc == "" {
			desc = "Expense " + e.TransactionRef()
		}
		return &draft{
			record: e,
			date:   e.ExpenseDate,
			lines: []ledger.Line{
				ledger.Debit(e.ExpenseAccountID, e.Amount, desc),
				ledger.Credit(payAccount, e.Amount, desc),
			},
		}, nil
	})
}

// PostAdjustment books a stock count correction at the current average cost.
// Losses go to Inventory Losses and surpluses to Inventory Gains.
func (o *Orchestrator) PostAdjustment(ctx context.Context, cmd AdjustmentCommand) (*business.Adjustment, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "adjustment", err)
	}

	return post[*business.Adjustment](ctx, o, "adjustment", func(ctx context.Context, u *unit) (*draft, error) {
		pos, err := u.store.Inventory().LockPosition(ctx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if cmd.Type.IsOutbound() && cmd.Quantity.GreaterThan(pos.Quantity) {
			return nil, inventory.ErrInsufficientStock{ItemID: cmd.ItemID, Requested: cmd.Quantity, Available: pos.Quantity}
		}

		a := &business.Adjustment{
			Meta:           business.Meta{CreatedAt: u.now},
			ItemID:         cmd.ItemID,
			Type:           cmd.Type,
			Quantity:       cmd.Quantity,
			UnitCost:       pos.AverageCost,
			Cost:           cmd.Quantity.Mul(pos.AverageCost),
			AdjustmentDate: ledger.DateOf(dateOr(cmd.Date, u.now)),
			Reason:         cmd.Reason,
		}
		if !a.Cost.IsPositive() {
			return nil, shared.NewValidationError("item_id", "item has no average cost to value the adjustment at")
		}
		if err := u.store.Records().CreateAdjustment(ctx, a); err != nil {
			return nil, err
		}

		desc := string(a.Type) + " " + a.TransactionRef()
		var lines []ledger.Line
		if a.Type.IsOutbound() {
			lines = []ledger.Line{
				ledger.Debit(o.accounts.InventoryLoss, a.Cost, desc),
				ledger.Credit(o.accounts.Inventory, a.Cost, desc),
			}
		} else {
			lines = []ledger.Line{
				ledger.Debit(o.accounts.Inventory, a.Cost, desc),
				ledger.Credit(o.accounts.InventoryGain, a.Cost, desc),
			}
		}

		return &draft{
			record: a,
			date:   a.AdjustmentDate,
			lines:  lines,
			moveStock: func(ctx context.Context) error {
				_, _, err := u.stock.RecordAdjustment(ctx, a.ItemID, a.Type, a.Quantity, reference(a), a.AdjustmentDate)
				return err
			},
		}, nil
	})
}

// returnable checks the quantity still open on an original purchase or sale
func returnable(ctx context.Context, u *unit, kind business.ReturnKind, original business.Record, bought, requested decimal.Decimal) error {
	if original.IsReversed() {
		return business.ErrAlreadyReversed{Source: original.Source(), ID: original.RecordID()}
	}
	returned, err := u.store.Records().ReturnedQuantity(ctx, kind, original.RecordID())
	if err != nil {
		return err
	}
	open := bought.Sub(returned)
	if requested.Sub(open).GreaterThan(shared.Epsilon) {
		return shared.NewValidationError("quantity", "only "+open.String()+" of "+original.TransactionRef()+" can still be returned")
	}
	return nil
}

// PostPurchaseReturn sends goods back to the supplier at the original unit price
//
//	Dr Accounts Payable amount
//	Cr Inventory        amount
func (o *Orchestrator) PostPurchaseReturn(ctx context.Context, cmd ReturnCommand) (*business.Return, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "purchase_return", err)
	}

	return post[*business.Return](ctx, o, "purchase_return", func(ctx context.Context, u *unit) (*draft, error) {
		p, err := u.store.Records().GetPurchase(ctx, cmd.OriginalID)
		if err != nil {
			return nil, err
		}
		if err := returnable(ctx, u, business.ReturnKindPurchase, p, p.Quantity, cmd.Quantity); err != nil {
			return nil, err
		}

		pos, err := u.store.Inventory().LockPosition(ctx, p.ItemID)
		if err != nil {
			return nil, err
		}
		if cmd.Quantity.GreaterThan(pos.Quantity) {
			return nil, inventory.ErrInsufficientStock{ItemID: p.ItemID, Requested: cmd.Quantity, Available: pos.Quantity}
		}

		amount := cmd.Quantity.Mul(p.UnitPrice)
		r := &business.Return{
			Meta:       business.Meta{CreatedAt: u.now},
			Kind:       business.ReturnKindPurchase,
			OriginalID: p.ID,
			ContactID:  p.ContactID,
			ItemID:     p.ItemID,
			Quantity:   cmd.Quantity,
			UnitPrice:  p.UnitPrice,
			Amount:     amount,
			UnitCost:   p.UnitPrice,
			Cost:       amount,
			ReturnDate: ledger.DateOf(dateOr(cmd.Date, u.now)),
			Reason:     cmd.Reason,
		}
		if err := u.store.Records().CreateReturn(ctx, r); err != nil {
			return nil, err
		}

		desc := "Return of " + p.TransactionRef()
		return &draft{
			record: r,
			date:   r.ReturnDate,
			lines: []ledger.Line{
				ledger.Debit(o.accounts.AccountsPayable, amount, desc),
				ledger.Credit(o.accounts.Inventory, amount, desc),
			},
			moveStock: func(ctx context.Context) error {
				_, _, err := u.stock.RecordOutbound(ctx, r.ItemID, r.Quantity, reference(r), r.ReturnDate)
				return err
			},
		}, nil
	})
}

// PostSaleReturn takes goods back from a customer. Revenue is reduced through Sales
// Returns and the stock comes back at the unit cost frozen on the sale.
//
//	Dr Sales Returns       amount    Dr Inventory cost
//	Cr Accounts Receivable amount    Cr COGS      cost
func (o *Orchestrator) PostSaleReturn(ctx context.Context, cmd ReturnCommand) (*business.Return, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "sale_return", err)
	}

	return post[*business.Return](ctx, o, "sale_return", func(ctx context.Context, u *unit) (*draft, error) {
		s, err := u.store.Records().GetSale(ctx, cmd.OriginalID)
		if err != nil {
			return nil, err
		}
		if err := returnable(ctx, u, business.ReturnKindSale, s, s.Quantity, cmd.Quantity); err != nil {
			return nil, err
		}

		r := &business.Return{
			Meta:       business.Meta{CreatedAt: u.now},
			Kind:       business.ReturnKindSale,
			OriginalID: s.ID,
			ContactID:  s.ContactID,
			ItemID:     s.ItemID,
			Quantity:   cmd.Quantity,
			UnitPrice:  s.UnitPrice,
			Amount:     cmd.Quantity.Mul(s.UnitPrice),
			UnitCost:   s.UnitCost,
			Cost:       cmd.Quantity.Mul(s.UnitCost),
			ReturnDate: ledger.DateOf(dateOr(cmd.Date, u.now)),
			Reason:     cmd.Reason,
		}
		if err := u.store.Records().CreateReturn(ctx, r); err != nil {
			return nil, err
		}

		desc := "Return of " + s.TransactionRef()
		lines := []ledger.Line{
			ledger.Debit(o.accounts.SalesReturns, r.Amount, desc),
			ledger.Credit(o.accounts.AccountsReceivable, r.Amount, desc),
		}
		if r.Cost.IsPositive() {
			lines = append(lines,
				ledger.Debit(o.accounts.Inventory, r.Cost, desc),
				ledger.Credit(o.accounts.CostOfGoodsSold, r.Cost, desc),
			)
		}

		return &draft{
			record: r,
			date:   r.ReturnDate,
			lines:  lines,
			moveStock: func(ctx context.Context) error {
				_, _, err := u.stock.RecordInbound(ctx, r.ItemID, r.Quantity, r.UnitCost, reference(r), r.ReturnDate)
				return err
			},
		}, nil
	})
}

// PostManualJournal debits one postable account and credits another
func (o *Orchestrator) PostManualJournal(ctx context.Context, cmd ManualJournalCommand) (*business.ManualJournal, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "manual_journal", err)
	}

	return post[*business.ManualJournal](ctx, o, "manual_journal", func(ctx context.Context, u *unit) (*draft, error) {
		m := &business.ManualJournal{
			Meta:            business.Meta{CreatedAt: u.now},
			DebitAccountID:  cmd.DebitAccountID,
			CreditAccountID: cmd.CreditAccountID,
			Amount:          cmd.Amount,
			EntryDate:       ledger.DateOf(dateOr(cmd.Date, u.now)),
			Description:     cmd.Description,
		}
		if err := u.store.Records().CreateManualJournal(ctx, m); err != nil {
			return nil, err
		}

		desc := m.Description
		if desc == "" {
			desc = "Journal " + m.TransactionRef()
		}
		return &draft{
			record: m,
			date:   m.EntryDate,
			lines: []ledger.Line{
				ledger.Debit(m.DebitAccountID, m.Amount, desc),
				ledger.Credit(m.CreditAccountID, m.Amount, desc),
			},
		}, nil
	})
}
