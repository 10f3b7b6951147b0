package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/tiktrends/internal/domain/model"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildDailyStatsEmpty(t *testing.T) {
	assert.Nil(t, BuildDailyStats("alice", nil, 28))
	assert.Nil(t, BuildDailyStats("alice", []model.Post{}, 28))
}

func TestBuildDailyStatsGroupsByDay(t *testing.T) {
	posts := []model.Post{
		{CreatedAt: day(1).Add(8 * time.Hour), Views: 100, Likes: 10},
		{CreatedAt: day(1).Add(20 * time.Hour), Views: 50, Likes: 5},
		{CreatedAt: day(2).Add(3 * time.Hour), Views: 30, Likes: 3},
	}

	stats := BuildDailyStats("alice", posts, 28)
	require.Len(t, stats, 2)

	assert.Equal(t, "alice", stats[0].Username)
	assert.Equal(t, day(1), stats[0].Date)
	assert.Equal(t, int64(150), stats[0].Views)
	assert.Equal(t, int64(15), stats[0].Likes)
	assert.Equal(t, 2, stats[0].Videos)

	assert.Equal(t, day(2), stats[1].Date)
	assert.Equal(t, int64(30), stats[1].Views)
	assert.Equal(t, 1, stats[1].Videos)
}

func TestBuildDailyStatsFillsCalendarGaps(t *testing.T) {
	posts := []model.Post{
		{CreatedAt: day(1), Views: 10, Likes: 1},
		{CreatedAt: day(5), Views: 20, Likes: 2},
	}

	stats := BuildDailyStats("bob", posts, 28)
	require.Len(t, stats, 5, "days 1 through 5 inclusive")

	for i, s := range stats {
		assert.Equal(t, day(1+i), s.Date)
	}

	// Days 2-4 are zero-filled.
	for _, s := range stats[1:4] {
		assert.Zero(t, s.Views)
		assert.Zero(t, s.Likes)
		assert.Zero(t, s.Videos)
	}
}

func TestBuildDailyStatsGroupsLocalTimesInUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 23:00 EST on March 1 is 04:00 UTC on March 2.
	posts := []model.Post{
		{CreatedAt: time.Date(2026, time.March, 1, 23, 0, 0, 0, est), Views: 7, Likes: 1},
	}

	stats := BuildDailyStats("carol", posts, 28)
	require.Len(t, stats, 1)
	assert.Equal(t, day(2), stats[0].Date)
}

func TestRollingAveragesNilUntilFullWindow(t *testing.T) {
	posts := make([]model.Post, 0, 5)
	for d := 1; d <= 5; d++ {
		posts = append(posts, model.Post{
			CreatedAt: day(d),
			Views:     int64(d * 10),
			Likes:     int64(d),
		})
	}

	stats := BuildDailyStats("dave", posts, 3)
	require.Len(t, stats, 5)

	// First two rows have no full 3-day window behind them.
	for _, s := range stats[:2] {
		assert.Nil(t, s.ViewsAvg28)
		assert.Nil(t, s.LikesAvg28)
		assert.Nil(t, s.VideosAvg28)
	}

	// Day 3: mean of views 10, 20, 30.
	require.NotNil(t, stats[2].ViewsAvg28)
	assert.InDelta(t, 20.0, *stats[2].ViewsAvg28, 1e-9)
	assert.InDelta(t, 2.0, *stats[2].LikesAvg28, 1e-9)
	assert.InDelta(t, 1.0, *stats[2].VideosAvg28, 1e-9)

	// Day 5: mean of views 30, 40, 50.
	require.NotNil(t, stats[4].ViewsAvg28)
	assert.InDelta(t, 40.0, *stats[4].ViewsAvg28, 1e-9)
}

func TestRollingAveragesCountZeroFilledDays(t *testing.T) {
	// Posts on days 1 and 3; day 2 zero-filled. 3-day window over day 3
	// averages the gap day as zero, matching a daily-frequency series.
	posts := []model.Post{
		{CreatedAt: day(1), Views: 30, Likes: 3},
		{CreatedAt: day(3), Views: 60, Likes: 6},
	}

	stats := BuildDailyStats("erin", posts, 3)
	require.Len(t, stats, 3)

	require.NotNil(t, stats[2].ViewsAvg28)
	assert.InDelta(t, 30.0, *stats[2].ViewsAvg28, 1e-9)
	assert.InDelta(t, 3.0, *stats[2].LikesAvg28, 1e-9)
	assert.InDelta(t, 2.0/3.0, *stats[2].VideosAvg28, 1e-9)
}

func TestBuildDailyStatsSingleDayWindowOne(t *testing.T) {
	posts := []model.Post{{CreatedAt: day(10), Views: 5, Likes: 2}}

	stats := BuildDailyStats("frank", posts, 1)
	require.Len(t, stats, 1)
	require.NotNil(t, stats[0].ViewsAvg28)
	assert.InDelta(t, 5.0, *stats[0].ViewsAvg28, 1e-9)
}
