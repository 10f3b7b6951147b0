package model

import "time"

// Post is a single published video with the engagement counters relevant to
// trend aggregation. Counters are point-in-time values as reported by the API
// at fetch time.
type Post struct {
	CreatedAt time.Time // UTC.
	Views     int64     // playCount.
	Likes     int64     // diggCount.
}
