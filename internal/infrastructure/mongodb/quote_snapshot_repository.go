package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/logistics-platform/freight-service/internal/domain"
)

// QuoteSnapshotRepository implements domain.QuoteSnapshotRepository using MongoDB
type QuoteSnapshotRepository struct {
	collection *mongo.Collection
}

// NewQuoteSnapshotRepository creates a new QuoteSnapshotRepository
func NewQuoteSnapshotRepository(db *mongo.Database) *QuoteSnapshotRepository {
	collection := db.Collection("quote_snapshots")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "degradedRoute", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "storeId", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &QuoteSnapshotRepository{collection: collection}
}

// Save inserts a quote audit record
func (r *QuoteSnapshotRepository) Save(ctx context.Context, snapshot *domain.QuoteSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to save quote snapshot: %w", err)
	}

	return nil
}

// FindRecentDegraded lists the latest quotes that used the straight-line
// distance fallback
func (r *QuoteSnapshotRepository) FindRecentDegraded(ctx context.Context, limit int) ([]*domain.QuoteSnapshot, error) {
	filter := bson.M{"degradedRoute": true}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find degraded quote snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []*domain.QuoteSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode quote snapshots: %w", err)
	}

	return snapshots, nil
}
