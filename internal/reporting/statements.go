package reporting

import (
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's debit and credit totals, opening balance included
type TrialBalanceRow struct {
	AccountID int64            `json:"account_id"`
	Name      string           `json:"name"`
	Category  account.Category `json:"category"`
	Debit     decimal.Decimal  `json:"debit"`
	Credit    decimal.Decimal  `json:"credit"`
	// Net is Debit minus Credit
	Net decimal.Decimal `json:"net"`
}

type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// StatementLine is an account and its amount read in the account's natural direction
type StatementLine struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	// RetainedEarnings is the net income from the first entry up to AsOf
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	Balanced         bool            `json:"balanced"`
}

type IncomeStatement struct {
	From          *time.Time      `json:"from,omitempty"`
	To            time.Time       `json:"to"`
	Revenue       []StatementLine `json:"revenue"`
	Expenses      []StatementLine `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// LedgerLine is an entry with the running balance after it
type LedgerLine struct {
	EntryID        int64             `json:"entry_id"`
	Date           time.Time         `json:"date"`
	TransactionRef string            `json:"transaction_ref"`
	AccountID      int64             `json:"account_id"`
	Description    string            `json:"description,omitempty"`
	SourceType     ledger.SourceType `json:"source_type"`
	Debit          decimal.Decimal   `json:"debit"`
	Credit         decimal.Decimal   `json:"credit"`
	Balance        decimal.Decimal   `json:"balance"`
}

type AccountLedger struct {
	Account        *account.Account `json:"account"`
	From           *time.Time       `json:"from,omitempty"`
	To             *time.Time       `json:"to,omitempty"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Lines          []LedgerLine     `json:"lines"`
	ClosingBalance decimal.Decimal  `json:"closing_balance"`
}

// CashFlow follows every cash and bank account together. Debits are inflows.
type CashFlow struct {
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	AccountIDs     []int64         `json:"account_ids"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []LedgerLine    `json:"lines"`
	TotalInflow    decimal.Decimal `json:"total_inflow"`
	TotalOutflow   decimal.Decimal `json:"total_outflow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

type ContactStatementLine struct {
	Date           time.Time         `json:"date"`
	SourceType     ledger.SourceType `json:"source_type"`
	RecordID       int64             `json:"record_id"`
	TransactionRef string            `json:"transaction_ref"`
	Description    string            `json:"description"`
	Debit          decimal.Decimal   `json:"debit"`
	Credit         decimal.Decimal   `json:"credit"`
	Balance        decimal.Decimal   `json:"balance"`
}

// ContactStatement balances are positive when the contact owes us
type ContactStatement struct {
	ContactID      int64                  `json:"contact_id"`
	Name           string                 `json:"name"`
	From           *time.Time             `json:"from,omitempty"`
	To             *time.Time             `json:"to,omitempty"`
	OpeningBalance decimal.Decimal        `json:"opening_balance"`
	Lines          []ContactStatementLine `json:"lines"`
	ClosingBalance decimal.Decimal        `json:"closing_balance"`
}

type ValuationRow struct {
	ItemID      int64           `json:"item_id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
}

// InventoryValuation values stock at average cost next to the inventory account balance
type InventoryValuation struct {
	Rows          []ValuationRow  `json:"rows"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Reconciled    bool            `json:"reconciled"`
}

// SeasonPerformance totals the records tagged with one season. Net profit charges
// every purchase of the season, sold or not, as the season's stock outlay.
type SeasonPerformance struct {
	Season       *season.Season  `json:"season"`
	Revenue      decimal.Decimal `json:"revenue"`
	COGS         decimal.Decimal `json:"cogs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	Expenses     decimal.Decimal `json:"expenses"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

type ItemMargin struct {
	ItemID        int64           `json:"item_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
	COGS          decimal.Decimal `json:"cogs"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// ItemMargins is gross profit per crop from the cost frozen on each sale
type ItemMargins struct {
	SeasonID    *int64          `json:"season_id,omitempty"`
	Rows        []ItemMargin    `json:"rows"`
	Revenue     decimal.Decimal `json:"revenue"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
}
