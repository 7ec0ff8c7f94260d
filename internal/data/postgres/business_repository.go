package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BusinessRepository stores the business records behind every posting, one table per kind
type BusinessRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBusinessRepository(logger *slog.Logger, db *persistence.PostgresDB) *BusinessRepository {
	return &BusinessRepository{querier: db.Pool(), logger: logger}
}

func (r *BusinessRepository) WithTx(tx pgx.Tx) *BusinessRepository {
	return &BusinessRepository{querier: tx, logger: r.logger}
}

// recordTables maps a source type to the table holding its records
var recordTables = map[ledger.SourceType]string{
	ledger.SourceTypePurchase:   "purchases",
	ledger.SourceTypeSale:       "sales",
	ledger.SourceTypePayment:    "payments",
	ledger.SourceTypeExpense:    "expenses",
	ledger.SourceTypeAdjustment: "inventory_adjustments",
	ledger.SourceTypeReturn:     "returns",
	ledger.SourceTypeManual:     "manual_journals",
}

func (r *BusinessRepository) insert(ctx context.Context, source ledger.SourceType, query string, id *int64, args ...interface{}) error {
	if err := r.querier.QueryRow(ctx, query, args...).Scan(id); err != nil {
		r.logger.Error("Failed to create business record", "source_type", string(source), "error", err)
		return fmt.Errorf("failed to create %s record: %w", recordTables[source], err)
	}
	return nil
}

func (r *BusinessRepository) get(ctx context.Context, source ledger.SourceType, id int64, query string, dest ...interface{}) error {
	if err := r.querier.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return business.ErrRecordNotFound{Source: source, ID: id}
		}
		r.logger.Error("Failed to get business record", "source_type", string(source), "id", id, "error", err)
		return fmt.Errorf("failed to get %s record: %w", recordTables[source], err)
	}
	return nil
}

func (r *BusinessRepository) CreatePurchase(ctx context.Context, p *business.Purchase) error {
	query := `
		INSERT INTO purchases (contact_id, item_id, quantity, unit_price, total, amount_paid, payment_account_id, purchase_date, season_id, invoice_number, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypePurchase, query, &p.ID,
		p.ContactID, p.ItemID, p.Quantity, p.UnitPrice, p.Total, p.AmountPaid,
		p.PaymentAccountID, p.PurchaseDate, p.SeasonID, p.InvoiceNumber, p.Notes, p.CreatedAt)
}

func (r *BusinessRepository) GetPurchase(ctx context.Context, id int64) (*business.Purchase, error) {
	query := `
		SELECT id, contact_id, item_id, quantity, unit_price, total, amount_paid, payment_account_id,
		       purchase_date, season_id, invoice_number, notes, reversed_at, created_at
		FROM purchases WHERE id = $1
	`
	var p business.Purchase
	err := r.get(ctx, ledger.SourceTypePurchase, id, query,
		&p.ID, &p.ContactID, &p.ItemID, &p.Quantity, &p.UnitPrice, &p.Total, &p.AmountPaid, &p.PaymentAccountID,
		&p.PurchaseDate, &p.SeasonID, &p.InvoiceNumber, &p.Notes, &p.ReversedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BusinessRepository) CreateSale(ctx context.Context, s *business.Sale) error {
	query := `
		INSERT INTO sales (contact_id, item_id, quantity, unit_price, total, amount_received, payment_account_id, unit_cost, cogs, sale_date, season_id, invoice_number, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypeSale, query, &s.ID,
		s.ContactID, s.ItemID, s.Quantity, s.UnitPrice, s.Total, s.AmountReceived, s.PaymentAccountID,
		s.UnitCost, s.COGS, s.SaleDate, s.SeasonID, s.InvoiceNumber, s.Notes, s.CreatedAt)
}

func (r *BusinessRepository) GetSale(ctx context.Context, id int64) (*business.Sale, error) {
	query := `
		SELECT id, contact_id, item_id, quantity, unit_price, total, amount_received, payment_account_id,
		       unit_cost, cogs, sale_date, season_id, invoice_number, notes, reversed_at, created_at
		FROM sales WHERE id = $1
	`
	var s business.Sale
	err := r.get(ctx, ledger.SourceTypeSale, id, query,
		&s.ID, &s.ContactID, &s.ItemID, &s.Quantity, &s.UnitPrice, &s.Total, &s.AmountReceived, &s.PaymentAccountID,
		&s.UnitCost, &s.COGS, &s.SaleDate, &s.SeasonID, &s.InvoiceNumber, &s.Notes, &s.ReversedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *BusinessRepository) CreatePayment(ctx context.Context, p *business.Payment) error {
	query := `
		INSERT INTO payments (contact_id, direction, amount, payment_account_id, payment_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypePayment, query, &p.ID,
		p.ContactID, p.Direction, p.Amount, p.PaymentAccountID, p.PaymentDate, p.Notes, p.CreatedAt)
}

func (r *BusinessRepository) GetPayment(ctx context.Context, id int64) (*business.Payment, error) {
	query := `
		SELECT id, contact_id, direction, amount, payment_account_id, payment_date, notes, reversed_at, created_at
		FROM payments WHERE id = $1
	`
	var p business.Payment
	err := r.get(ctx, ledger.SourceTypePayment, id, query,
		&p.ID, &p.ContactID, &p.Direction, &p.Amount, &p.PaymentAccountID, &p.PaymentDate, &p.Notes, &p.ReversedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BusinessRepository) CreateExpense(ctx context.Context, e *business.Expense) error {
	query := `
		INSERT INTO expenses (expense_account_id, payment_account_id, amount, expense_date, season_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypeExpense, query, &e.ID,
		e.ExpenseAccountID, e.PaymentAccountID, e.Amount, e.ExpenseDate, e.SeasonID, e.Description, e.CreatedAt)
}

func (r *BusinessRepository) GetExpense(ctx context.Context, id int64) (*business.Expense, error) {
	query := `
		SELECT id, expense_account_id, payment_account_id, amount, expense_date, season_id, description, reversed_at, created_at
		FROM expenses WHERE id = $1
	`
	var e business.Expense
	err := r.get(ctx, ledger.SourceTypeExpense, id, query,
		&e.ID, &e.ExpenseAccountID, &e.PaymentAccountID, &e.Amount, &e.ExpenseDate, &e.SeasonID, &e.Description, &e.ReversedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *BusinessRepository) CreateAdjustment(ctx context.Context, a *business.Adjustment) error {
	query := `
		INSERT INTO inventory_adjustments (item_id, adjustment_type, quantity, unit_cost, cost, adjustment_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypeAdjustment, query, &a.ID,
		a.ItemID, a.Type, a.Quantity, a.UnitCost, a.Cost, a.AdjustmentDate, a.Reason, a.CreatedAt)
}

func (r *BusinessRepository) GetAdjustment(ctx context.Context, id int64) (*business.Adjustment, error) {
	query := `
		SELECT id, item_id, adjustment_type, quantity, unit_cost, cost, adjustment_date, reason, reversed_at, created_at
		FROM inventory_adjustments WHERE id = $1
	`
	var a business.Adjustment
	err := r.get(ctx, ledger.SourceTypeAdjustment, id, query,
		&a.ID, &a.ItemID, &a.Type, &a.Quantity, &a.UnitCost, &a.Cost, &a.AdjustmentDate, &a.Reason, &a.ReversedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *BusinessRepository) CreateReturn(ctx context.Context, ret *business.Return) error {
	query := `
		INSERT INTO returns (kind, original_id, contact_id, item_id, quantity, unit_price, amount, unit_cost, cost, return_date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypeReturn, query, &ret.ID,
		ret.Kind, ret.OriginalID, ret.ContactID, ret.ItemID, ret.Quantity, ret.UnitPrice,
		ret.Amount, ret.UnitCost, ret.Cost, ret.ReturnDate, ret.Reason, ret.CreatedAt)
}

func (r *BusinessRepository) GetReturn(ctx context.Context, id int64) (*business.Return, error) {
	query := `
		SELECT id, kind, original_id, contact_id, item_id, quantity, unit_price, amount, unit_cost, cost,
		       return_date, reason, reversed_at, created_at
		FROM returns WHERE id = $1
	`
	var ret business.Return
	err := r.get(ctx, ledger.SourceTypeReturn, id, query,
		&ret.ID, &ret.Kind, &ret.OriginalID, &ret.ContactID, &ret.ItemID, &ret.Quantity, &ret.UnitPrice, &ret.Amount,
		&ret.UnitCost, &ret.Cost, &ret.ReturnDate, &ret.Reason, &ret.ReversedAt, &ret.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *BusinessRepository) CreateManualJournal(ctx context.Context, m *business.ManualJournal) error {
	query := `
		INSERT INTO manual_journals (debit_account_id, credit_account_id, amount, entry_date, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.insert(ctx, ledger.SourceTypeManual, query, &m.ID,
		m.DebitAccountID, m.CreditAccountID, m.Amount, m.EntryDate, m.Description, m.CreatedAt)
}

func (r *BusinessRepository) GetManualJournal(ctx context.Context, id int64) (*business.ManualJournal, error) {
	query := `
		SELECT id, debit_account_id, credit_account_id, amount, entry_date, description, reversed_at, created_at
		FROM manual_journals WHERE id = $1
	`
	var m business.ManualJournal
	err := r.get(ctx, ledger.SourceTypeManual, id, query,
		&m.ID, &m.DebitAccountID, &m.CreditAccountID, &m.Amount, &m.EntryDate, &m.Description, &m.ReversedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *BusinessRepository) ReturnedQuantity(ctx context.Context, kind business.ReturnKind, originalID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM returns
		WHERE kind = $1 AND original_id = $2 AND reversed_at IS NULL
	`
	var total decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, kind, originalID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum returned quantity", "kind", string(kind), "original_id", originalID, "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum returned quantity: %w", err)
	}
	return total, nil
}

// MarkReversed stamps reversed_at once; a second call reports ErrAlreadyReversed
func (r *BusinessRepository) MarkReversed(ctx context.Context, source ledger.SourceType, id int64, at time.Time) error {
	table, ok := recordTables[source]
	if !ok {
		return fmt.Errorf("unknown source type %q", source)
	}
	query := `UPDATE ` + table + ` SET reversed_at = $1 WHERE id = $2 AND reversed_at IS NULL`

	result, err := r.querier.Exec(ctx, query, at, id)
	if err != nil {
		r.logger.Error("Failed to mark record reversed", "source_type", string(source), "id", id, "error", err)
		return fmt.Errorf("failed to mark %s record reversed: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return business.ErrAlreadyReversed{Source: source, ID: id}
	}
	return nil
}

// contactActivityQuery lists every live record touching a contact. Debit raises what the
// contact owes the business and credit lowers it.
const contactActivityQuery = `
	SELECT line_date, source_type, record_id, transaction_ref, description, debit, credit
	FROM (
		SELECT purchase_date AS line_date, 'PURCHASE' AS source_type, id AS record_id,
		       'PUR-' || id AS transaction_ref, notes AS description, amount_paid AS debit, total AS credit
		FROM purchases WHERE contact_id = $1 AND reversed_at IS NULL
		UNION ALL
		SELECT sale_date, 'SALE', id, 'SAL-' || id, notes, total, amount_received
		FROM sales WHERE contact_id = $1 AND reversed_at IS NULL
		UNION ALL
		SELECT payment_date, 'PAYMENT', id, 'PAY-' || id, notes,
		       CASE WHEN direction = 'PAY' THEN amount ELSE 0 END,
		       CASE WHEN direction = 'RECEIVE' THEN amount ELSE 0 END
		FROM payments WHERE contact_id = $1 AND reversed_at IS NULL
		UNION ALL
		SELECT return_date, 'RETURN', id,
		       CASE WHEN kind = 'SALE_RETURN' THEN 'SRT-' ELSE 'PRT-' END || id, reason,
		       CASE WHEN kind = 'PURCHASE_RETURN' THEN amount ELSE 0 END,
		       CASE WHEN kind = 'SALE_RETURN' THEN amount ELSE 0 END
		FROM returns WHERE contact_id = $1 AND reversed_at IS NULL
	) activity
	WHERE %s
	ORDER BY line_date, transaction_ref
`

func (r *BusinessRepository) ContactActivity(ctx context.Context, contactID int64, rng ledger.Range) ([]*business.ContactLine, error) {
	where, args := rangeClause(nil, []interface{}{contactID}, "line_date", rng)
	query := fmt.Sprintf(contactActivityQuery, where)

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list contact activity", "contact_id", contactID, "error", err)
		return nil, fmt.Errorf("failed to list contact activity: %w", err)
	}
	defer rows.Close()

	var lines []*business.ContactLine
	for rows.Next() {
		var l business.ContactLine
		if err := rows.Scan(&l.Date, &l.Source, &l.RecordID, &l.TransactionRef, &l.Description, &l.Debit, &l.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan contact activity: %w", err)
		}
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over contact activity: %w", err)
	}
	return lines, nil
}

// seasonTotalsQuery nets live returns against the live purchases and sales they came from
const seasonTotalsQuery = `
	WITH returned AS (
		SELECT kind, original_id, SUM(amount) AS amount, SUM(cost) AS cost
		FROM returns WHERE reversed_at IS NULL
		GROUP BY kind, original_id
	)
	SELECT
		(SELECT COALESCE(SUM(s.total - COALESCE(r.amount, 0)), 0)
		 FROM sales s LEFT JOIN returned r ON r.kind = 'SALE_RETURN' AND r.original_id = s.id
		 WHERE s.season_id = $1 AND s.reversed_at IS NULL),
		(SELECT COALESCE(SUM(s.cogs - COALESCE(r.cost, 0)), 0)
		 FROM sales s LEFT JOIN returned r ON r.kind = 'SALE_RETURN' AND r.original_id = s.id
		 WHERE s.season_id = $1 AND s.reversed_at IS NULL),
		(SELECT COALESCE(SUM(p.total - COALESCE(r.amount, 0)), 0)
		 FROM purchases p LEFT JOIN returned r ON r.kind = 'PURCHASE_RETURN' AND r.original_id = p.id
		 WHERE p.season_id = $1 AND p.reversed_at IS NULL),
		(SELECT COALESCE(SUM(amount), 0)
		 FROM expenses WHERE season_id = $1 AND reversed_at IS NULL)
`

func (r *BusinessRepository) SeasonTotals(ctx context.Context, seasonID int64) (*business.SeasonTotals, error) {
	var t business.SeasonTotals
	err := r.querier.QueryRow(ctx, seasonTotalsQuery, seasonID).Scan(&t.Revenue, &t.COGS, &t.PurchaseCost, &t.Expenses)
	if err != nil {
		r.logger.Error("Failed to sum season totals", "season_id", seasonID, "error", err)
		return nil, fmt.Errorf("failed to sum season totals: %w", err)
	}
	return &t, nil
}

const itemSalesQuery = `
	WITH returned AS (
		SELECT original_id, SUM(quantity) AS quantity, SUM(amount) AS amount, SUM(cost) AS cost
		FROM returns WHERE kind = 'SALE_RETURN' AND reversed_at IS NULL
		GROUP BY original_id
	)
	SELECT s.item_id,
	       SUM(s.quantity - COALESCE(r.quantity, 0)),
	       SUM(s.total - COALESCE(r.amount, 0)),
	       SUM(s.cogs - COALESCE(r.cost, 0))
	FROM sales s LEFT JOIN returned r ON r.original_id = s.id
	WHERE s.reversed_at IS NULL AND ($1::BIGINT IS NULL OR s.season_id = $1)
	GROUP BY s.item_id
	ORDER BY s.item_id
`

func (r *BusinessRepository) ItemSales(ctx context.Context, seasonID *int64) ([]*business.ItemSales, error) {
	rows, err := r.querier.Query(ctx, itemSalesQuery, seasonID)
	if err != nil {
		r.logger.Error("Failed to sum sales per item", "error", err)
		return nil, fmt.Errorf("failed to sum sales per item: %w", err)
	}
	defer rows.Close()

	var sales []*business.ItemSales
	for rows.Next() {
		var s business.ItemSales
		if err := rows.Scan(&s.ItemID, &s.Quantity, &s.Revenue, &s.COGS); err != nil {
			return nil, fmt.Errorf("failed to scan item sales: %w", err)
		}
		sales = append(sales, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over item sales: %w", err)
	}
	return sales, nil
}

var _ business.Repository = (*BusinessRepository)(nil)
