// Package mongo holds the MongoDB read models: the journal projection fed by the
// outbox poller and the rejection log written by the posting processor.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/platform/persistence"
)

// JournalDocument is the stored shape of a committed journal. Amounts are kept as
// Decimal128 so the projection can be aggregated server-side without float drift.
type JournalDocument struct {
	TransactionRef string            `bson:"transaction_ref"`
	SourceType     ledger.SourceType `bson:"source_type"`
	SourceID       int64             `bson:"source_id"`
	EntryDate      time.Time         `bson:"entry_date"`
	ReversalOf     string            `bson:"reversal_of,omitempty"`
	Lines          []JournalLine     `bson:"lines"`
	AccountIDs     []int64           `bson:"account_ids"`
	Actor          string            `bson:"actor"`
	CorrelationID  string            `bson:"correlation_id,omitempty"`
	RequestID      string            `bson:"request_id,omitempty"`
	PostedAt       time.Time         `bson:"posted_at"`
	ProjectedAt    time.Time         `bson:"projected_at"`
}

type JournalLine struct {
	AccountID   int64                `bson:"account_id"`
	Debit       primitive.Decimal128 `bson:"debit"`
	Credit      primitive.Decimal128 `bson:"credit"`
	Description string               `bson:"description,omitempty"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

// NewJournalDocument converts a journal event into its stored form
func NewJournalDocument(event *ledger.JournalEvent, projectedAt time.Time) (*JournalDocument, error) {
	lines := make([]JournalLine, len(event.Entries))
	for i, e := range event.Entries {
		debit, err := toDecimal128(e.Debit)
		if err != nil {
			return nil, fmt.Errorf("invalid debit on line %d: %w", i, err)
		}
		credit, err := toDecimal128(e.Credit)
		if err != nil {
			return nil, fmt.Errorf("invalid credit on line %d: %w", i, err)
		}
		lines[i] = JournalLine{AccountID: e.AccountID, Debit: debit, Credit: credit, Description: e.Description}
	}

	return &JournalDocument{
		TransactionRef: event.TransactionRef,
		SourceType:     event.SourceType,
		SourceID:       event.SourceID,
		EntryDate:      event.EntryDate,
		ReversalOf:     event.ReversalOf,
		Lines:          lines,
		AccountIDs:     event.AccountIDs,
		Actor:          event.Actor,
		CorrelationID:  event.CorrelationID,
		RequestID:      event.RequestID,
		PostedAt:       event.PostedAt,
		ProjectedAt:    projectedAt,
	}, nil
}

// Event converts the document back into a journal event
func (d *JournalDocument) Event() (*ledger.JournalEvent, error) {
	entries := make([]ledger.EventEntry, len(d.Lines))
	for i, l := range d.Lines {
		debit, err := fromDecimal128(l.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := fromDecimal128(l.Credit)
		if err != nil {
			return nil, err
		}
		entries[i] = ledger.EventEntry{AccountID: l.AccountID, Debit: debit, Credit: credit, Description: l.Description}
	}

	return &ledger.JournalEvent{
		TransactionRef: d.TransactionRef,
		SourceType:     d.SourceType,
		SourceID:       d.SourceID,
		EntryDate:      d.EntryDate,
		ReversalOf:     d.ReversalOf,
		Entries:        entries,
		AccountIDs:     d.AccountIDs,
		Actor:          d.Actor,
		CorrelationID:  d.CorrelationID,
		RequestID:      d.RequestID,
		PostedAt:       d.PostedAt,
	}, nil
}

// JournalRepository reads and writes the journals projection
type JournalRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
	now        func() time.Time
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		collection: db.Collection(persistence.JournalsCollection),
		logger:     logger,
		now:        time.Now,
	}
}

// Upsert replaces the document of the event's transaction ref, so replaying an
// outbox message leaves a single copy.
func (r *JournalRepository) Upsert(ctx context.Context, event *ledger.JournalEvent) error {
	doc, err := NewJournalDocument(event, r.now().UTC())
	if err != nil {
		return err
	}

	filter := bson.M{"transaction_ref": event.TransactionRef}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		r.logger.Error("Failed to project journal",
			"transaction_ref", event.TransactionRef,
			"error", err)
		return fmt.Errorf("failed to project journal: %w", err)
	}
	return nil
}

// GetByRef returns ledger.ErrReferenceNotFound when the journal was never projected
func (r *JournalRepository) GetByRef(ctx context.Context, ref string) (*ledger.JournalEvent, error) {
	var doc JournalDocument
	err := r.collection.FindOne(ctx, bson.M{"transaction_ref": ref}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrReferenceNotFound{Ref: ref}
		}
		r.logger.Error("Failed to get journal", "transaction_ref", ref, "error", err)
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	return doc.Event()
}

// ListByAccount pages through the journals touching an account, newest first
func (r *JournalRepository) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*ledger.JournalEvent, error) {
	filter := bson.M{"account_ids": accountID}
	opts := options.Find().
		SetSort(bson.D{{Key: "posted_at", Value: -1}, {Key: "transaction_ref", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list journals", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []JournalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode journals", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to decode journals: %w", err)
	}

	events := make([]*ledger.JournalEvent, 0, len(docs))
	for i := range docs {
		event, err := docs[i].Event()
		if err != nil {
			return nil, fmt.Errorf("failed to decode journal %s: %w", docs[i].TransactionRef, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// CountByAccount counts the journals touching an account
func (r *JournalRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"account_ids": accountID})
	if err != nil {
		r.logger.Error("Failed to count journals", "account_id", accountID, "error", err)
		return 0, fmt.Errorf("failed to count journals: %w", err)
	}
	return count, nil
}
