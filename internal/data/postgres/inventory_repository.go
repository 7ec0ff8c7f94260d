package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// InventoryRepository implements inventory.Repository
type InventoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewInventoryRepository(logger *slog.Logger, db *persistence.PostgresDB) *InventoryRepository {
	return &InventoryRepository{querier: db.Pool(), logger: logger}
}

func (r *InventoryRepository) WithTx(tx pgx.Tx) *InventoryRepository {
	return &InventoryRepository{querier: tx, logger: r.logger}
}

func (r *InventoryRepository) CreateItem(ctx context.Context, item *inventory.Item) error {
	query := `INSERT INTO items (name, unit, created_at) VALUES ($1, $2, $3) RETURNING id`

	if err := r.querier.QueryRow(ctx, query, item.Name, item.Unit, item.CreatedAt).Scan(&item.ID); err != nil {
		r.logger.Error("Failed to create item", "name", item.Name, "error", err)
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *InventoryRepository) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	query := `SELECT id, name, unit, created_at FROM items WHERE id = $1`

	var item inventory.Item
	err := r.querier.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.Unit, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrItemNotFound{ItemID: id}
		}
		r.logger.Error("Failed to get item", "item_id", id, "error", err)
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (r *InventoryRepository) ListItems(ctx context.Context) ([]*inventory.Item, error) {
	rows, err := r.querier.Query(ctx, `SELECT id, name, unit, created_at FROM items ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list items", "error", err)
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*inventory.Item
	for rows.Next() {
		var item inventory.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over items: %w", err)
	}
	return items, nil
}

// LockPosition locks the item row first so that two units of work touching an item
// that has never moved still serialize, then reads the position under FOR UPDATE.
func (r *InventoryRepository) LockPosition(ctx context.Context, itemID int64) (*inventory.Position, error) {
	var id int64
	err := r.querier.QueryRow(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, itemID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrItemNotFound{ItemID: itemID}
		}
		r.logger.Error("Failed to lock item", "item_id", itemID, "error", err)
		return nil, fmt.Errorf("failed to lock item: %w", err)
	}

	return r.position(ctx, `
		SELECT item_id, quantity, average_cost, updated_at
		FROM inventory_positions
		WHERE item_id = $1
		FOR UPDATE
	`, itemID)
}

// GetPosition returns the current position, zero for an item that has never moved
func (r *InventoryRepository) GetPosition(ctx context.Context, itemID int64) (*inventory.Position, error) {
	if _, err := r.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return r.position(ctx, `
		SELECT item_id, quantity, average_cost, updated_at
		FROM inventory_positions
		WHERE item_id = $1
	`, itemID)
}

func (r *InventoryRepository) position(ctx context.Context, query string, itemID int64) (*inventory.Position, error) {
	var p inventory.Position
	err := r.querier.QueryRow(ctx, query, itemID).Scan(&p.ItemID, &p.Quantity, &p.AverageCost, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ZeroPosition(itemID), nil
		}
		r.logger.Error("Failed to read inventory position", "item_id", itemID, "error", err)
		return nil, fmt.Errorf("failed to read inventory position: %w", err)
	}
	return &p, nil
}

// ListPositions returns one position per item, zero for items that never moved
func (r *InventoryRepository) ListPositions(ctx context.Context) ([]*inventory.Position, error) {
	query := `
		SELECT i.id, COALESCE(p.quantity, 0), COALESCE(p.average_cost, 0), COALESCE(p.updated_at, i.created_at)
		FROM items i
		LEFT JOIN inventory_positions p ON p.item_id = i.id
		ORDER BY i.id
	`
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list inventory positions", "error", err)
		return nil, fmt.Errorf("failed to list inventory positions: %w", err)
	}
	defer rows.Close()

	var positions []*inventory.Position
	for rows.Next() {
		var p inventory.Position
		if err := rows.Scan(&p.ItemID, &p.Quantity, &p.AverageCost, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over inventory positions: %w", err)
	}
	return positions, nil
}

func (r *InventoryRepository) SavePosition(ctx context.Context, p *inventory.Position) error {
	query := `
		INSERT INTO inventory_positions (item_id, quantity, average_cost, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, average_cost = EXCLUDED.average_cost, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.querier.Exec(ctx, query, p.ItemID, p.Quantity, p.AverageCost, p.UpdatedAt); err != nil {
		r.logger.Error("Failed to save inventory position", "item_id", p.ItemID, "error", err)
		return fmt.Errorf("failed to save inventory position: %w", err)
	}
	return nil
}

func (r *InventoryRepository) AppendMovement(ctx context.Context, m *inventory.Movement) error {
	query := `
		INSERT INTO inventory_movements (item_id, direction, quantity, unit_cost, reference_type, reference_id, movement_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		m.ItemID,
		m.Direction,
		m.Quantity,
		m.UnitCost,
		m.ReferenceType,
		m.ReferenceID,
		m.MovementDate,
		m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		r.logger.Error("Failed to append inventory movement", "item_id", m.ItemID, "error", err)
		return fmt.Errorf("failed to append inventory movement: %w", err)
	}
	return nil
}

func (r *InventoryRepository) Movements(ctx context.Context, itemID int64, from, to *time.Time) ([]*inventory.Movement, error) {
	where, args := rangeClause([]string{"item_id = $1"}, []interface{}{itemID}, "movement_date", ledger.Range{From: from, To: to})
	query := `
		SELECT id, item_id, direction, quantity, unit_cost, reference_type, reference_id, movement_date, created_at
		FROM inventory_movements
		WHERE ` + where + `
		ORDER BY movement_date, id
	`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list inventory movements", "item_id", itemID, "error", err)
		return nil, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []*inventory.Movement
	for rows.Next() {
		var m inventory.Movement
		err := rows.Scan(&m.ID, &m.ItemID, &m.Direction, &m.Quantity, &m.UnitCost,
			&m.ReferenceType, &m.ReferenceID, &m.MovementDate, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over inventory movements: %w", err)
	}
	return movements, nil
}

var _ inventory.Repository = (*InventoryRepository)(nil)
