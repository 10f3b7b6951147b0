package application

import (
	"sort"
	"time"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// BuildDailyStats aggregates a creator's posts into per-day engagement totals
// and rolling averages. Days between the earliest and latest post date with no
// posts are filled with zero rows so the rolling window is continuous.
// Rolling averages are nil until a full window of days has accumulated.
// Returns nil when posts is empty.
func BuildDailyStats(username string, posts []model.Post, window int) []model.DailyStat {
	if len(posts) == 0 {
		return nil
	}

	type dayTotals struct {
		views  int64
		likes  int64
		videos int
	}

	totals := make(map[time.Time]dayTotals)
	for _, p := range posts {
		day := truncateToDay(p.CreatedAt)
		t := totals[day]
		t.views += p.Views
		t.likes += p.Likes
		t.videos++
		totals[day] = t
	}

	days := make([]time.Time, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]

	var stats []model.DailyStat
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		t := totals[day] // Zero value fills calendar gaps.
		stats = append(stats, model.DailyStat{
			Username: username,
			Date:     day,
			Views:    t.views,
			Likes:    t.likes,
			Videos:   t.videos,
		})
	}

	applyRollingAverages(stats, window)
	return stats
}

// applyRollingAverages computes trailing window means over views, likes, and
// video counts in place. A row's averages stay nil until the row is the end of
// a full window.
func applyRollingAverages(stats []model.DailyStat, window int) {
	if window < 1 {
		return
	}

	var viewSum, likeSum int64
	var videoSum int

	for i := range stats {
		viewSum += stats[i].Views
		likeSum += stats[i].Likes
		videoSum += stats[i].Videos

		if i >= window {
			viewSum -= stats[i-window].Views
			likeSum -= stats[i-window].Likes
			videoSum -= stats[i-window].Videos
		}

		if i >= window-1 {
			n := float64(window)
			viewsAvg := float64(viewSum) / n
			likesAvg := float64(likeSum) / n
			videosAvg := float64(videoSum) / n
			stats[i].ViewsAvg28 = &viewsAvg
			stats[i].LikesAvg28 = &likesAvg
			stats[i].VideosAvg28 = &videosAvg
		}
	}
}

// truncateToDay returns UTC midnight of the instant's calendar day.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
