package driven

import (
	"context"
	"time"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// TikTokClient defines the driven port for reading public TikTok data.
type TikTokClient interface {
	// FetchFollowing returns every account the given account follows,
	// walking cursor pagination to exhaustion.
	FetchFollowing(ctx context.Context, secUID string) ([]model.Creator, error)
	// FetchPosts returns the account's posts created at or after since,
	// newest first as returned by the API.
	FetchPosts(ctx context.Context, secUID string, since time.Time) ([]model.Post, error)
}
