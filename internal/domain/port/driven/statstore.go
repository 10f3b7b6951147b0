package driven

import (
	"context"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// StatStore defines the driven port for daily stat persistence. Upserts are
// keyed on (username, date) so re-collecting a day is idempotent.
type StatStore interface {
	UpsertBatch(ctx context.Context, stats []model.DailyStat) error
	GetByCreator(ctx context.Context, username string) ([]model.DailyStat, error)
	CountByCreator(ctx context.Context, username string) (int, error)
}
