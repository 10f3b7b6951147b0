package model

import "time"

// Creator represents a TikTok account whose posting metrics are tracked.
// Creators are discovered from the root account's following list on each
// collection run.
type Creator struct {
	ID              int64
	Username        string // TikTok uniqueId handle.
	SecUID          string // Stable opaque account identifier used by the API.
	AddedAt         time.Time
	LastCollectedAt time.Time // Zero until the first successful collection.
}
