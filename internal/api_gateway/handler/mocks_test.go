package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crop-trade-ledger/internal/api_gateway/service"
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
	"github.com/stretchr/testify/mock"
)

// result unpacks a mocked (pointer, error) return
func result[T any](args mock.Arguments) (T, error) {
	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

type MockPostingService struct {
	mock.Mock
}

var _ service.PostingService = (*MockPostingService)(nil)

func (m *MockPostingService) PostPurchase(ctx context.Context, cmd posting.PurchaseCommand) (*business.Purchase, error) {
	return result[*business.Purchase](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostSale(ctx context.Context, cmd posting.SaleCommand) (*business.Sale, error) {
	return result[*business.Sale](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostPayment(ctx context.Context, cmd posting.PaymentCommand) (*business.Payment, error) {
	return result[*business.Payment](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostExpense(ctx context.Context, cmd posting.ExpenseCommand) (*business.Expense, error) {
	return result[*business.Expense](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostAdjustment(ctx context.Context, cmd posting.AdjustmentCommand) (*business.Adjustment, error) {
	return result[*business.Adjustment](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostPurchaseReturn(ctx context.Context, cmd posting.ReturnCommand) (*business.Return, error) {
	return result[*business.Return](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostSaleReturn(ctx context.Context, cmd posting.ReturnCommand) (*business.Return, error) {
	return result[*business.Return](m.Called(ctx, cmd))
}

func (m *MockPostingService) PostManualJournal(ctx context.Context, cmd posting.ManualJournalCommand) (*business.ManualJournal, error) {
	return result[*business.ManualJournal](m.Called(ctx, cmd))
}

func (m *MockPostingService) Reverse(ctx context.Context, cmd posting.ReversalCommand) (*posting.Reversal, error) {
	return result[*posting.Reversal](m.Called(ctx, cmd))
}

type MockRegistryService struct {
	mock.Mock
}

var _ service.RegistryService = (*MockRegistryService)(nil)

func (m *MockRegistryService) CreateAccount(ctx context.Context, cmd registry.CreateAccountCommand) (*account.Account, error) {
	return result[*account.Account](m.Called(ctx, cmd))
}

func (m *MockRegistryService) GetAccount(ctx context.Context, id int64) (*account.Account, error) {
	return result[*account.Account](m.Called(ctx, id))
}

func (m *MockRegistryService) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	return result[[]*account.Account](m.Called(ctx, filter))
}

func (m *MockRegistryService) DeleteAccount(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRegistryService) CreateItem(ctx context.Context, name, unit string) (*inventory.Item, error) {
	return result[*inventory.Item](m.Called(ctx, name, unit))
}

func (m *MockRegistryService) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	return result[*inventory.Item](m.Called(ctx, id))
}

func (m *MockRegistryService) ListItems(ctx context.Context) ([]*inventory.Item, error) {
	return result[[]*inventory.Item](m.Called(ctx))
}

func (m *MockRegistryService) CreateContact(ctx context.Context, cmd registry.CreateContactCommand) (*contact.Contact, error) {
	return result[*contact.Contact](m.Called(ctx, cmd))
}

func (m *MockRegistryService) GetContact(ctx context.Context, id int64) (*contact.Contact, error) {
	return result[*contact.Contact](m.Called(ctx, id))
}

func (m *MockRegistryService) ListContacts(ctx context.Context) ([]*contact.Contact, error) {
	return result[[]*contact.Contact](m.Called(ctx))
}

func (m *MockRegistryService) CreateSeason(ctx context.Context, cmd registry.SeasonCommand) (*season.Season, error) {
	return result[*season.Season](m.Called(ctx, cmd))
}

func (m *MockRegistryService) UpdateSeason(ctx context.Context, id int64, cmd registry.SeasonCommand) (*season.Season, error) {
	return result[*season.Season](m.Called(ctx, id, cmd))
}

func (m *MockRegistryService) DeleteSeason(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRegistryService) GetSeason(ctx context.Context, id int64) (*season.Season, error) {
	return result[*season.Season](m.Called(ctx, id))
}

func (m *MockRegistryService) ListSeasons(ctx context.Context) ([]*season.Season, error) {
	return result[[]*season.Season](m.Called(ctx))
}

func (m *MockRegistryService) ActiveSeason(ctx context.Context) (*season.Season, error) {
	return result[*season.Season](m.Called(ctx))
}

type MockReportingService struct {
	mock.Mock
}

var _ service.ReportingService = (*MockReportingService)(nil)

func (m *MockReportingService) TrialBalance(ctx context.Context, asOf time.Time) (*reporting.TrialBalance, error) {
	return result[*reporting.TrialBalance](m.Called(ctx, asOf))
}

func (m *MockReportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*reporting.BalanceSheet, error) {
	return result[*reporting.BalanceSheet](m.Called(ctx, asOf))
}

func (m *MockReportingService) IncomeStatement(ctx context.Context, from *time.Time, to time.Time) (*reporting.IncomeStatement, error) {
	return result[*reporting.IncomeStatement](m.Called(ctx, from, to))
}

func (m *MockReportingService) CashFlow(ctx context.Context, from, to *time.Time) (*reporting.CashFlow, error) {
	return result[*reporting.CashFlow](m.Called(ctx, from, to))
}

func (m *MockReportingService) InventoryValuation(ctx context.Context) (*reporting.InventoryValuation, error) {
	return result[*reporting.InventoryValuation](m.Called(ctx))
}

func (m *MockReportingService) AccountLedger(ctx context.Context, accountID int64, from, to *time.Time) (*reporting.AccountLedger, error) {
	return result[*reporting.AccountLedger](m.Called(ctx, accountID, from, to))
}

func (m *MockReportingService) ContactStatement(ctx context.Context, contactID int64, from, to *time.Time) (*reporting.ContactStatement, error) {
	return result[*reporting.ContactStatement](m.Called(ctx, contactID, from, to))
}

func (m *MockReportingService) SeasonPerformance(ctx context.Context, seasonID int64) (*reporting.SeasonPerformance, error) {
	return result[*reporting.SeasonPerformance](m.Called(ctx, seasonID))
}

func (m *MockReportingService) ItemMargins(ctx context.Context, seasonID *int64) (*reporting.ItemMargins, error) {
	return result[*reporting.ItemMargins](m.Called(ctx, seasonID))
}

func (m *MockReportingService) EntriesForRef(ctx context.Context, ref string) ([]*ledger.Entry, error) {
	return result[[]*ledger.Entry](m.Called(ctx, ref))
}

func (m *MockReportingService) Position(ctx context.Context, itemID int64) (*inventory.Position, error) {
	return result[*inventory.Position](m.Called(ctx, itemID))
}

func (m *MockReportingService) Movements(ctx context.Context, itemID int64, from, to *time.Time) ([]*inventory.Movement, error) {
	return result[[]*inventory.Movement](m.Called(ctx, itemID, from, to))
}

func (m *MockReportingService) AuditTrail(ctx context.Context, filter audit.Filter) ([]*audit.Record, error) {
	return result[[]*audit.Record](m.Called(ctx, filter))
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) GetJournal(ctx context.Context, ref string) (*ledger.JournalEvent, error) {
	return result[*ledger.JournalEvent](m.Called(ctx, ref))
}

func (m *MockJournalService) GetJournalsByAccountID(ctx context.Context, accountID int64, page, perPage int) ([]*ledger.JournalEvent, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.JournalEvent), args.Get(1).(int64), args.Error(2)
}

type MockPostingRequestService struct {
	mock.Mock
}

func (m *MockPostingRequestService) Submit(ctx context.Context, typ shared.PostingType, payload json.RawMessage) (*shared.PostingRequest, error) {
	return result[*shared.PostingRequest](m.Called(ctx, typ, payload))
}

func (m *MockPostingRequestService) Status(ctx context.Context, requestID string) (*service.PostingRequestStatus, error) {
	return result[*service.PostingRequestStatus](m.Called(ctx, requestID))
}
