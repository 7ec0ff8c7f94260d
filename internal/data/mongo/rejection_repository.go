package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/platform/persistence"
)

// RejectionRepository stores the reasons asynchronous posting requests were refused
type RejectionRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

func NewRejectionRepository(logger *slog.Logger, db *mongo.Database) *RejectionRepository {
	return &RejectionRepository{
		collection: db.Collection(persistence.RejectionsCollection),
		logger:     logger,
	}
}

// Record upserts by request id; a redelivered request keeps its latest reason
func (r *RejectionRepository) Record(ctx context.Context, rejection *shared.PostingRejection) error {
	filter := bson.M{"request_id": rejection.RequestID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, rejection, opts); err != nil {
		r.logger.Error("Failed to record posting rejection",
			"request_id", rejection.RequestID,
			"error", err)
		return fmt.Errorf("failed to record posting rejection: %w", err)
	}
	return nil
}

func (r *RejectionRepository) Get(ctx context.Context, requestID string) (*shared.PostingRejection, error) {
	var rejection shared.PostingRejection
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&rejection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrRejectionNotFound{RequestID: requestID}
		}
		r.logger.Error("Failed to get posting rejection", "request_id", requestID, "error", err)
		return nil, fmt.Errorf("failed to get posting rejection: %w", err)
	}
	return &rejection, nil
}
