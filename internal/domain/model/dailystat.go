package model

import "time"

// DailyStat is one creator-day of aggregated engagement: totals for the day
// plus 28-day rolling averages. Days with no posts inside a creator's covered
// range are materialized as zero rows so the rolling window is continuous.
//
// The rolling average fields are nil until a full window of days exists, and
// are preserved as NULL in storage and JSON.
type DailyStat struct {
	ID       int64
	Username string
	Date     time.Time // UTC midnight of the calendar day.
	Views    int64
	Likes    int64
	Videos   int

	ViewsAvg28  *float64
	LikesAvg28  *float64
	VideosAvg28 *float64
}

// Day returns the date formatted as YYYY-MM-DD.
func (s DailyStat) Day() string {
	return s.Date.UTC().Format("2006-01-02")
}
