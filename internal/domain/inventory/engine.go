package inventory

import (
	"context"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Engine applies stock movements to positions bound to the current unit of work.
// Every call locks the position first so concurrent postings of the same item
// never average against a stale quantity.
type Engine struct {
	repo Repository
	now  func() time.Time
}

func NewEngine(repo Repository, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{repo: repo, now: now}
}

// RecordInbound receives quantity units at unitCost and re-averages the position
func (e *Engine) RecordInbound(ctx context.Context, itemID int64, quantity, unitCost decimal.Decimal, ref Reference, date time.Time) (*Position, *Movement, error) {
	if !quantity.IsPositive() {
		return nil, nil, shared.NewValidationError("quantity", "must be positive")
	}
	if unitCost.IsNegative() {
		return nil, nil, shared.NewValidationError("unit_cost", "must not be negative")
	}

	current, err := e.repo.LockPosition(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	next := current.ApplyInbound(quantity, unitCost, now)
	return e.persist(ctx, &next, DirectionIn, quantity, unitCost, ref, date, now)
}

// RecordOutbound issues quantity units at the current average cost, which it leaves unchanged
func (e *Engine) RecordOutbound(ctx context.Context, itemID int64, quantity decimal.Decimal, ref Reference, date time.Time) (*Position, *Movement, error) {
	if !quantity.IsPositive() {
		return nil, nil, shared.NewValidationError("quantity", "must be positive")
	}

	current, err := e.repo.LockPosition(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	next, err := current.ApplyOutbound(quantity, now)
	if err != nil {
		return nil, nil, err
	}
	return e.persist(ctx, &next, DirectionOut, quantity, current.AverageCost, ref, date, now)
}

// RecordAdjustment books a stock count correction at the current average cost.
// DAMAGE and SHORTAGE remove stock; SURPLUS adds stock without moving the average.
func (e *Engine) RecordAdjustment(ctx context.Context, itemID int64, typ AdjustmentType, quantity decimal.Decimal, ref Reference, date time.Time) (*Position, *Movement, error) {
	if !typ.IsValid() {
		return nil, nil, shared.NewValidationError("adjustment_type", "must be DAMAGE, SHORTAGE or SURPLUS")
	}
	if typ.IsOutbound() {
		return e.RecordOutbound(ctx, itemID, quantity, ref, date)
	}

	if !quantity.IsPositive() {
		return nil, nil, shared.NewValidationError("quantity", "must be positive")
	}
	current, err := e.repo.LockPosition(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	next := current.ApplyInbound(quantity, current.AverageCost, now)
	return e.persist(ctx, &next, DirectionIn, quantity, current.AverageCost, ref, date, now)
}

// CurrentPosition returns the position, or a zero position for an item that never moved
func (e *Engine) CurrentPosition(ctx context.Context, itemID int64) (*Position, error) {
	return e.repo.GetPosition(ctx, itemID)
}

func (e *Engine) persist(ctx context.Context, next *Position, dir Direction, quantity, unitCost decimal.Decimal, ref Reference, date, now time.Time) (*Position, *Movement, error) {
	if err := e.repo.SavePosition(ctx, next); err != nil {
		return nil, nil, err
	}

	if date.IsZero() {
		date = now
	}
	m := &Movement{
		ItemID:        next.ItemID,
		Direction:     dir,
		Quantity:      quantity,
		UnitCost:      unitCost,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		MovementDate:  date,
		CreatedAt:     now,
	}
	if err := e.repo.AppendMovement(ctx, m); err != nil {
		return nil, nil, err
	}
	return next, m, nil
}
