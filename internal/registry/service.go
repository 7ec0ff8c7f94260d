// Package registry maintains the chart of accounts, traded items, contacts and trading seasons.
// Balances are never written here except for opening balances, which are offset
// against Capital so the opening trial balance stays level.
package registry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
	"github.com/crop-trade-ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// OpeningOffsetAccount absorbs the other side of every opening balance
const OpeningOffsetAccount = account.OpeningOffset

// CreateAccountCommand describes a new chart-of-accounts node
type CreateAccountCommand struct {
	Name               string
	Category           account.Category
	ParentID           *int64
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate time.Time
}

// CreateContactCommand describes a new supplier or customer
type CreateContactCommand struct {
	Name       string
	Phone      string
	IsSupplier bool
	IsCustomer bool
}

type Service struct {
	uow    unitofwork.UnitOfWork
	logger *slog.Logger
	hooks  []unitofwork.CommitHook
	now    func() time.Time
}

func NewService(uow unitofwork.UnitOfWork, logger *slog.Logger, hooks ...unitofwork.CommitHook) *Service {
	return &Service{
		uow:    uow,
		logger: logger.With("component", "registry"),
		hooks:  hooks,
		now:    time.Now,
	}
}

func (s *Service) committed(ctx context.Context) {
	for _, hook := range s.hooks {
		hook(ctx)
	}
}

func (s *Service) audit(ctx context.Context, store unitofwork.Store, entity string, id int64, op audit.Operation, oldValues, newValues interface{}) error {
	md := shared.MetadataFrom(ctx)
	rec, err := audit.NewRecord(entity, id, op, oldValues, newValues, md.Actor, md.CorrelationID, s.now().UTC())
	if err != nil {
		return err
	}
	return store.Audit().Append(ctx, rec)
}

// SeedChart inserts the default chart of accounts, skipping ids that already exist.
// It returns the number of accounts created.
func (s *Service) SeedChart(ctx context.Context) (int, error) {
	created := 0
	err := s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		created = 0
		now := s.now().UTC()
		for _, acc := range account.DefaultChart() {
			acc.OpeningBalanceDate = now
			acc.CreatedAt = now
			acc.UpdatedAt = now
			ok, err := store.Accounts().CreateIfNotExists(ctx, acc)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to seed chart of accounts", "error", err)
		return 0, err
	}

	s.logger.Info("Chart of accounts seeded", "created", created)
	return created, nil
}

// CreateAccount adds an account under an optional header parent
func (s *Service) CreateAccount(ctx context.Context, cmd CreateAccountCommand) (*account.Account, error) {
	acc, err := account.NewAccount(cmd.Name, cmd.Category, cmd.ParentID, cmd.OpeningBalance, cmd.OpeningBalanceDate)
	if err != nil {
		return nil, shared.NewValidationError("account", err.Error())
	}

	err = s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		if acc.ParentID != nil {
			parent, err := store.Accounts().GetByID(ctx, *acc.ParentID)
			if err != nil {
				return err
			}
			if parent.Category != account.CategoryHeader {
				return shared.NewValidationError("parent_id", "parent must be a header account")
			}
		}

		if err := store.Accounts().Create(ctx, acc); err != nil {
			return err
		}
		if !acc.OpeningBalance.IsZero() {
			if err := store.Accounts().ApplyOpeningDelta(ctx, OpeningOffsetAccount, acc.OpeningBalance.Neg()); err != nil {
				return err
			}
		}
		return s.audit(ctx, store, "accounts", acc.ID, audit.OperationCreate, nil, acc)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Account created", "account_id", acc.ID, "category", acc.Category)
	if !acc.OpeningBalance.IsZero() {
		s.committed(ctx)
	}
	return acc, nil
}

func (s *Service) GetAccount(ctx context.Context, id int64) (*account.Account, error) {
	var acc *account.Account
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		acc, err = store.Accounts().GetByID(ctx, id)
		return err
	})
	return acc, err
}

func (s *Service) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	var accounts []*account.Account
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		accounts, err = store.Accounts().List(ctx, filter)
		return err
	})
	return accounts, err
}

// DeleteAccount removes an account no entry has ever referenced. Header accounts
// with children cannot be removed, and any opening balance goes back to Capital.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	var removed *account.Account
	err := s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		acc, err := store.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if id == OpeningOffsetAccount {
			return shared.NewValidationError("account_id", "the opening balance offset account cannot be deleted")
		}

		active, err := store.Accounts().HasActivity(ctx, id)
		if err != nil {
			return err
		}
		if active {
			return account.ErrHasActivity{AccountID: id}
		}

		all, err := store.Accounts().List(ctx, account.Filter{})
		if err != nil {
			return err
		}
		for _, other := range all {
			if other.ParentID != nil && *other.ParentID == id {
				return shared.NewValidationError("account_id", "account has child accounts")
			}
		}

		if err := store.Accounts().Delete(ctx, id); err != nil {
			return err
		}
		if !acc.OpeningBalance.IsZero() {
			if err := store.Accounts().ApplyOpeningDelta(ctx, OpeningOffsetAccount, acc.OpeningBalance); err != nil {
				return err
			}
		}
		removed = acc
		return s.audit(ctx, store, "accounts", id, audit.OperationDelete, acc, nil)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info("Account deleted", "account_id", id)
	if !removed.OpeningBalance.IsZero() {
		s.committed(ctx)
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, name, unit string) (*inventory.Item, error) {
	item, err := inventory.NewItem(name, unit)
	if err != nil {
		return nil, shared.NewValidationError("name", err.Error())
	}

	err = s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		existing, err := store.Inventory().ListItems(ctx)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if strings.EqualFold(other.Name, item.Name) {
				return shared.NewValidationError("name", "an item named "+other.Name+" already exists")
			}
		}
		if err := store.Inventory().CreateItem(ctx, item); err != nil {
			return err
		}
		return s.audit(ctx, store, "items", item.ID, audit.OperationCreate, nil, item)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Item created", "item_id", item.ID, "name", item.Name)
	return item, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	var item *inventory.Item
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		item, err = store.Inventory().GetItem(ctx, id)
		return err
	})
	return item, err
}

func (s *Service) ListItems(ctx context.Context) ([]*inventory.Item, error) {
	var items []*inventory.Item
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		items, err = store.Inventory().ListItems(ctx)
		return err
	})
	return items, err
}

func (s *Service) CreateContact(ctx context.Context, cmd CreateContactCommand) (*contact.Contact, error) {
	c, err := contact.NewContact(cmd.Name, cmd.Phone, cmd.IsSupplier, cmd.IsCustomer)
	if err != nil {
		return nil, shared.NewValidationError("contact", err.Error())
	}

	err = s.uow.Do(ctx, func(ctx context.Context, store unitofwork.Store) error {
		if err := store.Contacts().Create(ctx, c); err != nil {
			return err
		}
		return s.audit(ctx, store, "contacts", c.ID, audit.OperationCreate, nil, c)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info("Contact created", "contact_id", c.ID)
	return c, nil
}

func (s *Service) GetContact(ctx context.Context, id int64) (*contact.Contact, error) {
	var c *contact.Contact
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		c, err = store.Contacts().GetByID(ctx, id)
		return err
	})
	return c, err
}

func (s *Service) ListContacts(ctx context.Context) ([]*contact.Contact, error) {
	var contacts []*contact.Contact
	err := s.uow.Read(ctx, func(ctx context.Context, store unitofwork.Store) error {
		var err error
		contacts, err = store.Contacts().List(ctx)
		return err
	})
	return contacts, err
}
