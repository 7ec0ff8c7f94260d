package contact

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyName = errors.New("contact name cannot be empty")
	ErrNoRole    = errors.New("contact must be a supplier, a customer or both")
)

// Contact is a supplier or customer counterparty
type Contact struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	IsSupplier bool      `json:"is_supplier"`
	IsCustomer bool      `json:"is_customer"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewContact(name, phone string, isSupplier, isCustomer bool) (*Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !isSupplier && !isCustomer {
		return nil, ErrNoRole
	}
	return &Contact{
		Name:       name,
		Phone:      strings.TrimSpace(phone),
		IsSupplier: isSupplier,
		IsCustomer: isCustomer,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Repository defines contact persistence operations
type Repository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, id int64) (*Contact, error)
	List(ctx context.Context) ([]*Contact, error)
}

// ErrContactNotFound indicates an unknown contact id
type ErrContactNotFound struct {
	ContactID int64
}

func (e ErrContactNotFound) Error() string {
	return "contact not found: " + strconv.FormatInt(e.ContactID, 10)
}
