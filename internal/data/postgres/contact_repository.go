package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// ContactRepository implements contact.Repository
type ContactRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewContactRepository(logger *slog.Logger, db *persistence.PostgresDB) *ContactRepository {
	return &ContactRepository{querier: db.Pool(), logger: logger}
}

func (r *ContactRepository) WithTx(tx pgx.Tx) *ContactRepository {
	return &ContactRepository{querier: tx, logger: r.logger}
}

func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	query := `
		INSERT INTO contacts (name, phone, is_supplier, is_customer, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.querier.QueryRow(ctx, query, c.Name, c.Phone, c.IsSupplier, c.IsCustomer, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		r.logger.Error("Failed to create contact", "name", c.Name, "error", err)
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*contact.Contact, error) {
	query := `SELECT id, name, phone, is_supplier, is_customer, created_at FROM contacts WHERE id = $1`

	var c contact.Contact
	err := r.querier.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.IsSupplier, &c.IsCustomer, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contact.ErrContactNotFound{ContactID: id}
		}
		r.logger.Error("Failed to get contact", "contact_id", id, "error", err)
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

func (r *ContactRepository) List(ctx context.Context) ([]*contact.Contact, error) {
	rows, err := r.querier.Query(ctx, `SELECT id, name, phone, is_supplier, is_customer, created_at FROM contacts ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list contacts", "error", err)
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*contact.Contact
	for rows.Next() {
		var c contact.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.IsSupplier, &c.IsCustomer, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contacts: %w", err)
	}
	return contacts, nil
}

var _ contact.Repository = (*ContactRepository)(nil)
