package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/logistics-platform/freight-service/internal/domain"
)

// JournalRepository implements domain.JournalRepository using MongoDB
type JournalRepository struct {
	collection *mongo.Collection
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *mongo.Database) *JournalRepository {
	collection := db.Collection("order_saga_journal")

	// Create indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "correlationId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "failedStep", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "updatedAt", Value: -1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &JournalRepository{collection: collection}
}

// Save saves or updates a saga journal keyed by correlation ID
func (r *JournalRepository) Save(ctx context.Context, journal *domain.SagaJournal) error {
	journal.UpdatedAt = time.Now().UTC()
	if journal.CreatedAt.IsZero() {
		journal.CreatedAt = journal.UpdatedAt
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"correlationId": journal.CorrelationID}
	update := bson.M{"$set": journal}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save saga journal: %w", err)
	}

	return nil
}

// FindByCorrelationID retrieves the journal for one order attempt
func (r *JournalRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.SagaJournal, error) {
	var journal domain.SagaJournal
	filter := bson.M{"correlationId": correlationID}

	err := r.collection.FindOne(ctx, filter).Decode(&journal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find saga journal: %w", err)
	}

	return &journal, nil
}

// FindFailed lists recent failed attempts for manual cleanup review
func (r *JournalRepository) FindFailed(ctx context.Context, limit int) ([]*domain.SagaJournal, error) {
	filter := bson.M{"status": domain.SagaStatusFailed}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find failed saga journals: %w", err)
	}
	defer cursor.Close(ctx)

	var journals []*domain.SagaJournal
	if err := cursor.All(ctx, &journals); err != nil {
		return nil, fmt.Errorf("failed to decode saga journals: %w", err)
	}

	return journals, nil
}
