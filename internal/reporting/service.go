// Package reporting derives statements from the ledger. Every statement is read from a
// single consistent snapshot and never writes anything.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// valuationTolerance absorbs the drift of averages rounded to ten places
var valuationTolerance = decimal.New(1, -6)

// Cache stores derived statements until the next committed posting. Get reports the
// generation it looked in and Set writes under the generation it is given.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (gen int64, found bool, err error)
	Set(ctx context.Context, gen int64, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	uow              unitofwork.UnitOfWork
	cache            Cache
	inventoryAccount int64
	logger           *slog.Logger
	now              func() time.Time
}

// NewService builds the statement service. cache may be nil.
func NewService(uow unitofwork.UnitOfWork, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		uow:              uow,
		cache:            cache,
		inventoryAccount: account.Inventory,
		logger:           logger.With("component", "reporting"),
		now:              time.Now,
	}
}

// Invalidate drops every cached statement. It is registered as a commit hook.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Failed to invalidate report cache", "error", err)
	}
}

func cached[T any](ctx context.Context, s *Service, key string, build func(ctx context.Context, st unitofwork.Store) (*T, error)) (*T, error) {
	log := logger.FromContext(ctx, s.logger)

	// the generation is fixed before the snapshot is taken
	var (
		gen      int64
		storable bool
	)
	if s.cache != nil {
		var hit T
		g, found, err := s.cache.Get(ctx, key, &hit)
		switch {
		case err != nil:
			log.Warn("Report cache read failed", "key", key, "error", err)
		case found:
			return &hit, nil
		default:
			gen, storable = g, true
		}
	}

	var out *T
	err := s.uow.Read(ctx, func(ctx context.Context, st unitofwork.Store) error {
		var err error
		out, err = build(ctx, st)
		return err
	})
	if err != nil {
		return nil, err
	}

	if storable {
		if err := s.cache.Set(ctx, gen, key, out); err != nil {
			log.Warn("Report cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return ledger.DateOf(t)
}

func dayKey(t *time.Time) string {
	if t == nil {
		return "open"
	}
	return ledger.DateOf(*t).Format("2006-01-02")
}

// before returns the range that ends the day before from, or nil for an open start
func before(from *time.Time) *ledger.Range {
	if from == nil {
		return nil
	}
	end := ledger.DateOf(*from).AddDate(0, 0, -1)
	return &ledger.Range{To: &end}
}

// TrialBalance lists every account with activity up to asOf, opening balances folded in
// as the first entry. An opening balance dated after asOf is left out together with its
// share of the offset account. A zero asOf means today.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalance, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, "trial-balance:"+dayKey(&asOf), func(ctx context.Context, st unitofwork.Store) (*TrialBalance, error) {
		return trialBalance(ctx, st, asOf)
	})
}

// openingsAsOf returns the opening balance of each account that is in effect on asOf
func openingsAsOf(accounts []*account.Account, asOf time.Time) map[int64]decimal.Decimal {
	openings := make(map[int64]decimal.Decimal, len(accounts))
	notYetOpen := decimal.Zero
	for _, acc := range accounts {
		if acc.ID == account.OpeningOffset || acc.OpeningBalance.IsZero() {
			continue
		}
		if ledger.DateOf(acc.OpeningBalanceDate).After(asOf) {
			notYetOpen = notYetOpen.Add(acc.OpeningBalance)
			continue
		}
		openings[acc.ID] = acc.OpeningBalance
	}
	for _, acc := range accounts {
		if acc.ID == account.OpeningOffset {
			openings[acc.ID] = acc.OpeningBalance.Add(notYetOpen)
		}
	}
	return openings
}

func trialBalance(ctx context.Context, st unitofwork.Store, asOf time.Time) (*TrialBalance, error) {
	accounts, err := st.Accounts().List(ctx, account.Filter{})
	if err != nil {
		return nil, err
	}
	activity, err := st.Ledger().Activity(ctx, ledger.Range{To: &asOf})
	if err != nil {
		return nil, err
	}
	byAccount := make(map[int64]ledger.AccountActivity, len(activity))
	for _, a := range activity {
		byAccount[a.AccountID] = a
	}
	openings := openingsAsOf(accounts, asOf)

	tb := &TrialBalance{AsOf: asOf, Rows: []TrialBalanceRow{}, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, acc := range accounts {
		a, active := byAccount[acc.ID]
		opening := openings[acc.ID]
		if !active && opening.IsZero() {
			continue
		}

		debit, credit := a.Debit, a.Credit
		if opening.IsPositive() {
			debit = debit.Add(opening)
		} else {
			credit = credit.Sub(opening)
		}

		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID: acc.ID,
			Name:      acc.Name,
			Category:  acc.Category,
			Debit:     debit,
			Credit:    credit,
			Net:       debit.Sub(credit),
		})
		tb.TotalDebit = tb.TotalDebit.Add(debit)
		tb.TotalCredit = tb.TotalCredit.Add(credit)
	}
	tb.Balanced = shared.NearlyEqual(tb.TotalDebit, tb.TotalCredit)
	return tb, nil
}

// BalanceSheet groups balance sheet accounts as of asOf. Retained earnings is the
// net income of everything posted up to asOf, so assets always equal liabilities
// plus equity plus retained earnings.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (*BalanceSheet, error) {
	asOf = s.asOf(asOf)
	return cached(ctx, s, "balance-sheet:"+dayKey(&asOf), func(ctx context.Context, st unitofwork.Store) (*BalanceSheet, error) {
		tb, err := trialBalance(ctx, st, asOf)
		if err != nil {
			return nil, err
		}
		income, err := incomeStatement(ctx, st, nil, asOf)
		if err != nil {
			return nil, err
		}

		bs := &BalanceSheet{
			AsOf:             asOf,
			Assets:           []StatementLine{},
			Liabilities:      []StatementLine{},
			Equity:           []StatementLine{},
			TotalAssets:      decimal.Zero,
			TotalLiabilities: decimal.Zero,
			TotalEquity:      decimal.Zero,
			RetainedEarnings: income.NetIncome,
		}
		for _, row := range tb.Rows {
			switch {
			case row.Category.IsAsset():
				bs.Assets = append(bs.Assets, StatementLine{AccountID: row.AccountID, Name: row.Name, Amount: row.Net})
				bs.TotalAssets = bs.TotalAssets.Add(row.Net)
			case row.Category.IsLiability():
				bs.Liabilities = append(bs.Liabilities, StatementLine{AccountID: row.AccountID, Name: row.Name, Amount: row.Net.Neg()})
				bs.TotalLiabilities = bs.TotalLiabilities.Sub(row.Net)
			case row.Category.IsEquity():
				bs.Equity = append(bs.Equity, StatementLine{AccountID: row.AccountID, Name: row.Name, Amount: row.Net.Neg()})
				bs.TotalEquity = bs.TotalEquity.Sub(row.Net)
			}
		}

		claims := bs.TotalLiabilities.Add(bs.TotalEquity).Add(bs.RetainedEarnings)
		bs.Balanced = shared.NearlyEqual(bs.TotalAssets, claims)
		if !bs.Balanced {
			logger.FromContext(ctx, s.logger).Error("Balance sheet does not balance",
				"as_of", asOf, "assets", bs.TotalAssets.String(), "claims", claims.String())
		}
		return bs, nil
	})
}

// IncomeStatement sums revenue (credit minus debit) and expenses (debit minus credit)
// between from and to inclusive. A nil from starts at the first entry.
func (s *Service) IncomeStatement(ctx context.Context, from *time.Time, to time.Time) (*IncomeStatement, error) {
	to = s.asOf(to)
	key := fmt.Sprintf("income-statement:%s:%s", dayKey(from), dayKey(&to))
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*IncomeStatement, error) {
		return incomeStatement(ctx, st, from, to)
	})
}

func incomeStatement(ctx context.Context, st unitofwork.Store, from *time.Time, to time.Time) (*IncomeStatement, error) {
	accounts, err := st.Accounts().List(ctx, account.Filter{Categories: []account.Category{account.CategoryRevenue, account.CategoryExpense}})
	if err != nil {
		return nil, err
	}
	activity, err := st.Ledger().Activity(ctx, ledger.Range{From: from, To: &to})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*account.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}

	is := &IncomeStatement{
		From:          from,
		To:            to,
		Revenue:       []StatementLine{},
		Expenses:      []StatementLine{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, a := range activity {
		acc, ok := byID[a.AccountID]
		if !ok {
			continue
		}
		if acc.Category == account.CategoryRevenue {
			amount := a.Credit.Sub(a.Debit)
			is.Revenue = append(is.Revenue, StatementLine{AccountID: acc.ID, Name: acc.Name, Amount: amount})
			is.TotalRevenue = is.TotalRevenue.Add(amount)
		} else {
			amount := a.Debit.Sub(a.Credit)
			is.Expenses = append(is.Expenses, StatementLine{AccountID: acc.ID, Name: acc.Name, Amount: amount})
			is.TotalExpenses = is.TotalExpenses.Add(amount)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	return is, nil
}

// AccountLedger lists the live entries of one account with an opening and running balance
func (s *Service) AccountLedger(ctx context.Context, accountID int64, from, to *time.Time) (*AccountLedger, error) {
	key := fmt.Sprintf("account-ledger:%d:%s:%s", accountID, dayKey(from), dayKey(to))
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*AccountLedger, error) {
		acc, err := st.Accounts().GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}

		opening := acc.OpeningBalance
		if prior := before(from); prior != nil {
			entries, err := st.Ledger().EntriesForAccount(ctx, accountID, *prior)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				opening = opening.Add(e.Net())
			}
		}

		entries, err := st.Ledger().EntriesForAccount(ctx, accountID, ledger.Range{From: from, To: to})
		if err != nil {
			return nil, err
		}
		lines, closing := running(entries, opening)
		return &AccountLedger{
			Account:        acc,
			From:           from,
			To:             to,
			OpeningBalance: opening,
			Lines:          lines,
			ClosingBalance: closing,
		}, nil
	})
}

// CashFlow follows every cash and bank account through one running balance
func (s *Service) CashFlow(ctx context.Context, from, to *time.Time) (*CashFlow, error) {
	key := fmt.Sprintf("cash-flow:%s:%s", dayKey(from), dayKey(to))
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*CashFlow, error) {
		accounts, err := st.Accounts().List(ctx, account.Filter{Categories: []account.Category{account.CategoryCash, account.CategoryBank}})
		if err != nil {
			return nil, err
		}

		cf := &CashFlow{From: from, To: to, AccountIDs: []int64{}, TotalInflow: decimal.Zero, TotalOutflow: decimal.Zero}
		opening := decimal.Zero
		var entries []*ledger.Entry
		for _, acc := range accounts {
			cf.AccountIDs = append(cf.AccountIDs, acc.ID)
			opening = opening.Add(acc.OpeningBalance)
			if prior := before(from); prior != nil {
				earlier, err := st.Ledger().EntriesForAccount(ctx, acc.ID, *prior)
				if err != nil {
					return nil, err
				}
				for _, e := range earlier {
					opening = opening.Add(e.Net())
				}
			}

			inRange, err := st.Ledger().EntriesForAccount(ctx, acc.ID, ledger.Range{From: from, To: to})
			if err != nil {
				return nil, err
			}
			entries = append(entries, inRange...)
		}
		sort.SliceStable(entries, func(i, j int) bool {
			if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
				return entries[i].EntryDate.Before(entries[j].EntryDate)
			}
			return entries[i].ID < entries[j].ID
		})

		cf.OpeningBalance = opening
		cf.Lines, cf.ClosingBalance = running(entries, opening)
		for _, e := range entries {
			cf.TotalInflow = cf.TotalInflow.Add(e.Debit)
			cf.TotalOutflow = cf.TotalOutflow.Add(e.Credit)
		}
		return cf, nil
	})
}

func running(entries []*ledger.Entry, opening decimal.Decimal) ([]LedgerLine, decimal.Decimal) {
	balance := opening
	lines := make([]LedgerLine, 0, len(entries))
	for _, e := range entries {
		balance = balance.Add(e.Net())
		lines = append(lines, LedgerLine{
			EntryID:        e.ID,
			Date:           e.EntryDate,
			TransactionRef: e.TransactionRef,
			AccountID:      e.AccountID,
			Description:    e.Description,
			SourceType:     e.SourceType,
			Debit:          e.Debit,
			Credit:         e.Credit,
			Balance:        balance,
		})
	}
	return lines, balance
}

// ContactStatement lists a contact's purchases, sales, payments and returns with a
// running balance that is positive while the contact owes us
func (s *Service) ContactStatement(ctx context.Context, contactID int64, from, to *time.Time) (*ContactStatement, error) {
	key := fmt.Sprintf("contact-statement:%d:%s:%s", contactID, dayKey(from), dayKey(to))
	return cached(ctx, s, key, func(ctx context.Context, st unitofwork.Store) (*ContactStatement, error) {
		c, err := st.Contacts().GetByID(ctx, contactID)
		if err != nil {
			return nil, err
		}

		opening := decimal.Zero
		if prior := before(from); prior != nil {
			earlier, err := st.Records().ContactActivity(ctx, contactID, *prior)
			if err != nil {
				return nil, err
			}
			for _, l := range earlier {
				opening = opening.Add(l.Debit).Sub(l.Credit)
			}
		}

		activity, err := st.Records().ContactActivity(ctx, contactID, ledger.Range{From: from, To: to})
		if err != nil {
			return nil, err
		}

		cs := &ContactStatement{
			ContactID:      c.ID,
			Name:           c.Name,
			From:           from,
			To:             to,
			OpeningBalance: opening,
			Lines:          make([]ContactStatementLine, 0, len(activity)),
		}
		balance := opening
		for _, l := range activity {
			balance = balance.Add(l.Debit).Sub(l.Credit)
			cs.Lines = append(cs.Lines, ContactStatementLine{
				Date:           l.Date,
				SourceType:     l.Source,
				RecordID:       l.RecordID,
				TransactionRef: l.TransactionRef,
				Description:    l.Description,
				Debit:          l.Debit,
				Credit:         l.Credit,
				Balance:        balance,
			})
		}
		cs.ClosingBalance = balance
		return cs, nil
	})
}

// InventoryValuation values every item at its average cost and compares the total
// with the inventory account
func (s *Service) InventoryValuation(ctx context.Context) (*InventoryValuation, error) {
	return cached(ctx, s, "inventory-valuation", func(ctx context.Context, st unitofwork.Store) (*InventoryValuation, error) {
		items, err := st.Inventory().ListItems(ctx)
		if err != nil {
			return nil, err
		}
		positions, err := st.Inventory().ListPositions(ctx)
		if err != nil {
			return nil, err
		}
		inv, err := st.Accounts().GetByID(ctx, s.inventoryAccount)
		if err != nil {
			return nil, err
		}

		byItem := make(map[int64]decimal.Decimal, len(positions))
		avg := make(map[int64]decimal.Decimal, len(positions))
		for _, p := range positions {
			byItem[p.ItemID] = p.Quantity
			avg[p.ItemID] = p.AverageCost
		}

		v := &InventoryValuation{Rows: make([]ValuationRow, 0, len(items)), TotalValue: decimal.Zero, LedgerBalance: inv.CurrentBalance}
		for _, item := range items {
			qty, cost := byItem[item.ID], avg[item.ID]
			value := qty.Mul(cost)
			v.Rows = append(v.Rows, ValuationRow{
				ItemID:      item.ID,
				Name:        item.Name,
				Unit:        item.Unit,
				Quantity:    qty,
				AverageCost: cost,
				Value:       value,
			})
			v.TotalValue = v.TotalValue.Add(value)
		}
		v.Reconciled = v.TotalValue.Sub(v.LedgerBalance).Abs().LessThanOrEqual(valuationTolerance)
		return v, nil
	})
}
