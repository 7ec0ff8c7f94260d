package account

import "github.com/shopspring/decimal"

// Well-known account ids of the seeded chart
const (
	HeaderAssets             int64 = 1
	HeaderCurrentAssets      int64 = 101
	MainCash                 int64 = 10101
	Bank                     int64 = 10102
	Inventory                int64 = 10103
	AccountsReceivable       int64 = 10104
	HeaderLiabilities        int64 = 2
	HeaderCurrentLiabilities int64 = 201
	AccountsPayable          int64 = 20101
	HeaderEquity             int64 = 3
	Capital                  int64 = 30101
	Drawings                 int64 = 30102
	RetainedEarnings         int64 = 30103
	HeaderRevenue            int64 = 4
	SalesRevenue             int64 = 40101
	SalesReturns             int64 = 40102
	InventoryGains           int64 = 40105
	HeaderExpenses           int64 = 5
	CostOfGoodsSold          int64 = 50101
	GeneralExpenses          int64 = 50102
	InventoryLosses          int64 = 50108
)

// OpeningOffset absorbs the other side of every opening balance
const OpeningOffset = Capital

// SystemAccounts are the accounts the posting formulas credit and debit implicitly
type SystemAccounts struct {
	Inventory          int64
	AccountsReceivable int64
	AccountsPayable    int64
	SalesRevenue       int64
	SalesReturns       int64
	InventoryGain      int64
	CostOfGoodsSold    int64
	InventoryLoss      int64
}

func DefaultSystemAccounts() SystemAccounts {
	return SystemAccounts{
		Inventory:          Inventory,
		AccountsReceivable: AccountsReceivable,
		AccountsPayable:    AccountsPayable,
		SalesRevenue:       SalesRevenue,
		SalesReturns:       SalesReturns,
		InventoryGain:      InventoryGains,
		CostOfGoodsSold:    CostOfGoodsSold,
		InventoryLoss:      InventoryLosses,
	}
}

// DefaultChart returns the seed chart of accounts with zero opening balances, parents first.
func DefaultChart() []*Account {
	node := func(id int64, name string, category Category, parent int64) *Account {
		acc := &Account{ID: id, Name: name, Category: category, OpeningBalance: decimal.Zero, CurrentBalance: decimal.Zero}
		if parent != 0 {
			p := parent
			acc.ParentID = &p
		}
		return acc
	}

	return []*Account{
		node(HeaderAssets, "Assets", CategoryHeader, 0),
		node(HeaderCurrentAssets, "Current Assets", CategoryHeader, HeaderAssets),
		node(MainCash, "Main Cash", CategoryCash, HeaderCurrentAssets),
		node(Bank, "Bank", CategoryBank, HeaderCurrentAssets),
		node(Inventory, "Inventory", CategoryCurrentAsset, HeaderCurrentAssets),
		node(AccountsReceivable, "Accounts Receivable", CategoryAccountsReceivable, HeaderCurrentAssets),
		node(HeaderLiabilities, "Liabilities", CategoryHeader, 0),
		node(HeaderCurrentLiabilities, "Current Liabilities", CategoryHeader, HeaderLiabilities),
		node(AccountsPayable, "Accounts Payable", CategoryAccountsPayable, HeaderCurrentLiabilities),
		node(HeaderEquity, "Equity", CategoryHeader, 0),
		node(Capital, "Capital", CategoryEquity, HeaderEquity),
		node(Drawings, "Drawings", CategoryEquity, HeaderEquity),
		node(RetainedEarnings, "Retained Earnings", CategoryEquity, HeaderEquity),
		node(HeaderRevenue, "Revenue", CategoryHeader, 0),
		node(SalesRevenue, "Sales Revenue", CategoryRevenue, HeaderRevenue),
		node(SalesReturns, "Sales Returns", CategoryRevenue, HeaderRevenue),
		node(InventoryGains, "Inventory Gains", CategoryRevenue, HeaderRevenue),
		node(HeaderExpenses, "Expenses", CategoryHeader, 0),
		node(CostOfGoodsSold, "Cost of Goods Sold", CategoryExpense, HeaderExpenses),
		node(GeneralExpenses, "General and Administrative Expenses", CategoryExpense, HeaderExpenses),
		node(InventoryLosses, "Inventory Losses", CategoryExpense, HeaderExpenses),
	}
}
