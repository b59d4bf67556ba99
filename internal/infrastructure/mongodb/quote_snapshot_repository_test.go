package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistics-platform/freight-service/internal/domain"
)

func TestQuoteSnapshotRepository_SaveAssignsID(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewQuoteSnapshotRepository(db)
	ctx := context.Background()

	snapshot := &domain.QuoteSnapshot{
		StoreID:     7,
		DistanceKm:  40,
		RegionLabel: "inner-city (0–50km)",
		BaseFee:     62400,
		DistanceFee: 87000,
		StandardFee: 149400,
	}
	require.NoError(t, repo.Save(ctx, snapshot))
	assert.NotEmpty(t, snapshot.ID)
	assert.False(t, snapshot.CreatedAt.IsZero())
}

func TestQuoteSnapshotRepository_FindRecentDegraded(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewQuoteSnapshotRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.QuoteSnapshot{StoreID: 7, DistanceKm: 40, StandardFee: 149400}))
	require.NoError(t, repo.Save(ctx, &domain.QuoteSnapshot{StoreID: 7, DistanceKm: 210, DegradedRoute: true, StandardFee: 200000}))
	require.NoError(t, repo.Save(ctx, &domain.QuoteSnapshot{StoreID: 8, DistanceKm: 95, DegradedRoute: true, StandardFee: 180000}))

	degraded, err := repo.FindRecentDegraded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, degraded, 2)
	for _, snapshot := range degraded {
		assert.True(t, snapshot.DegradedRoute)
	}
}
