package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a stock movement
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// AdjustmentType classifies a stock count correction
type AdjustmentType string

const (
	AdjustmentDamage   AdjustmentType = "DAMAGE"
	AdjustmentShortage AdjustmentType = "SHORTAGE"
	AdjustmentSurplus  AdjustmentType = "SURPLUS"
)

func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentDamage || t == AdjustmentShortage || t == AdjustmentSurplus
}

// IsOutbound reports whether the adjustment removes stock
func (t AdjustmentType) IsOutbound() bool {
	return t == AdjustmentDamage || t == AdjustmentShortage
}

// Item is a traded commodity tracked by weighted-average cost
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

func NewItem(name, unit string) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyItemName
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "kg"
	}
	return &Item{Name: name, Unit: unit, CreatedAt: time.Now().UTC()}, nil
}

// Position is the running quantity and average unit cost of one item
type Position struct {
	ItemID      int64           `json:"item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ZeroPosition is the state of an item that has never moved
func ZeroPosition(itemID int64) *Position {
	return &Position{ItemID: itemID, Quantity: decimal.Zero, AverageCost: decimal.Zero}
}

// Value is quantity times average cost
func (p *Position) Value() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// WeightedAverage blends an inbound lot into the running average:
// (oldQty*oldAvg + q*c) / (oldQty + q). An empty result keeps a zero average.
func WeightedAverage(oldQty, oldAvg, q, c decimal.Decimal) decimal.Decimal {
	total := oldQty.Add(q)
	if !total.IsPositive() {
		return decimal.Zero
	}
	return oldQty.Mul(oldAvg).Add(q.Mul(c)).DivRound(total, costPrecision)
}

// costPrecision is the number of decimal places kept on average costs
const costPrecision = 10

// ApplyInbound returns the position after receiving q units at unit cost c
func (p Position) ApplyInbound(q, c decimal.Decimal, at time.Time) Position {
	return Position{
		ItemID:      p.ItemID,
		Quantity:    p.Quantity.Add(q),
		AverageCost: WeightedAverage(p.Quantity, p.AverageCost, q, c),
		UpdatedAt:   at,
	}
}

// ApplyOutbound returns the position after issuing q units. The average cost is unchanged
// and the quantity may never go below zero.
func (p Position) ApplyOutbound(q decimal.Decimal, at time.Time) (Position, error) {
	if q.GreaterThan(p.Quantity) {
		return p, ErrInsufficientStock{ItemID: p.ItemID, Requested: q, Available: p.Quantity}
	}
	return Position{
		ItemID:      p.ItemID,
		Quantity:    p.Quantity.Sub(q),
		AverageCost: p.AverageCost,
		UpdatedAt:   at,
	}, nil
}

// Reference ties a movement to the business record that caused it
type Reference struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Movement is one append-only line of an item's stock history
type Movement struct {
	ID            int64           `json:"id"`
	ItemID        int64           `json:"item_id"`
	Direction     Direction       `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   int64           `json:"reference_id"`
	MovementDate  time.Time       `json:"movement_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Cost is quantity times unit cost
func (m *Movement) Cost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}
