package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var ErrEmptyItemName = errors.New("item name cannot be empty")

// Repository persists items, positions and the movement history
type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)

	// LockPosition returns the position locked for the rest of the unit of work,
	// or a zero position when the item has never moved. Unknown items fail with ErrItemNotFound.
	LockPosition(ctx context.Context, itemID int64) (*Position, error)
	GetPosition(ctx context.Context, itemID int64) (*Position, error)
	ListPositions(ctx context.Context) ([]*Position, error)
	SavePosition(ctx context.Context, p *Position) error

	AppendMovement(ctx context.Context, m *Movement) error
	Movements(ctx context.Context, itemID int64, from, to *time.Time) ([]*Movement, error)
}

// ErrInsufficientStock indicates an outbound movement larger than the stock on hand
type ErrInsufficientStock struct {
	ItemID    int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %s, available %s",
		e.ItemID, e.Requested.String(), e.Available.String())
}

// ErrItemNotFound indicates an unknown item id
type ErrItemNotFound struct {
	ItemID int64
}

func (e ErrItemNotFound) Error() string {
	return "item not found: " + strconv.FormatInt(e.ItemID, 10)
}

// Is matches any ErrItemNotFound when the target id is zero
func (e ErrItemNotFound) Is(target error) bool {
	t, ok := target.(ErrItemNotFound)
	if !ok {
		return false
	}
	return t.ItemID == 0 || t.ItemID == e.ItemID
}
