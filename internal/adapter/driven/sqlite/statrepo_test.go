package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/tiktrends/internal/domain/model"
)

func statDay(d int) time.Time {
	return time.Date(2026, time.July, d, 0, 0, 0, 0, time.UTC)
}

func TestStatRepoUpsertBatchAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatRepo(db)
	ctx := context.Background()

	avg := 12.5
	stats := []model.DailyStat{
		{Username: "alice", Date: statDay(2), Views: 200, Likes: 20, Videos: 2, ViewsAvg28: &avg},
		{Username: "alice", Date: statDay(1), Views: 100, Likes: 10, Videos: 1},
	}
	require.NoError(t, repo.UpsertBatch(ctx, stats))

	got, err := repo.GetByCreator(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by date regardless of insert order.
	assert.Equal(t, statDay(1), got[0].Date)
	assert.Equal(t, int64(100), got[0].Views)
	assert.Nil(t, got[0].ViewsAvg28, "null rolling average round-trips as nil")

	assert.Equal(t, statDay(2), got[1].Date)
	require.NotNil(t, got[1].ViewsAvg28)
	assert.InDelta(t, 12.5, *got[1].ViewsAvg28, 1e-9)
}

func TestStatRepoUpsertIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatRepo(db)
	ctx := context.Background()

	first := []model.DailyStat{
		{Username: "bob", Date: statDay(1), Views: 100, Likes: 10, Videos: 1},
	}
	require.NoError(t, repo.UpsertBatch(ctx, first))

	// Re-collecting the same day replaces counters instead of duplicating rows.
	second := []model.DailyStat{
		{Username: "bob", Date: statDay(1), Views: 150, Likes: 15, Videos: 2},
	}
	require.NoError(t, repo.UpsertBatch(ctx, second))

	got, err := repo.GetByCreator(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(150), got[0].Views)
	assert.Equal(t, 2, got[0].Videos)

	count, err := repo.CountByCreator(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStatRepoEmptyBatchIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatRepo(db)

	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
}

func TestStatRepoCreatorsIsolated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []model.DailyStat{
		{Username: "alice", Date: statDay(1), Views: 1},
		{Username: "bob", Date: statDay(1), Views: 2},
		{Username: "bob", Date: statDay(2), Views: 3},
	}))

	aliceCount, err := repo.CountByCreator(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, aliceCount)

	bobStats, err := repo.GetByCreator(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobStats, 2)
}

func TestStatRepoGetByCreatorEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatRepo(db)

	got, err := repo.GetByCreator(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
