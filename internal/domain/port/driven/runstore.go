package driven

import (
	"context"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// RunStore defines the driven port for collection run records.
type RunStore interface {
	// Create inserts a new run in RunStatusRunning state and returns its ID.
	Create(ctx context.Context, run model.Run) (int64, error)
	// Finish records the terminal state, counters, and finish time of a run.
	Finish(ctx context.Context, run model.Run) error
	Get(ctx context.Context, id int64) (*model.Run, error)
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Run, error)
}
