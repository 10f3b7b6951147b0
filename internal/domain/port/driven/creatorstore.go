package driven

import (
	"context"
	"time"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// CreatorStore defines the driven port for tracked creator persistence.
type CreatorStore interface {
	Upsert(ctx context.Context, creator model.Creator) error
	GetByUsername(ctx context.Context, username string) (*model.Creator, error)
	ListAll(ctx context.Context) ([]model.Creator, error)
	// MarkCollected records the time of the creator's last successful collection.
	MarkCollected(ctx context.Context, username string, at time.Time) error
}
