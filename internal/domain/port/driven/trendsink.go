package driven

import (
	"context"

	"github.com/efisher/tiktrends/internal/domain/model"
)

// TrendSink defines the driven port for exporting a run's daily stats to an
// external destination (warehouse table, flat file). Sinks receive the full
// snapshot produced by one run; append/overwrite semantics are per-sink.
type TrendSink interface {
	// Name identifies the sink in logs and run summaries.
	Name() string
	WriteDailyStats(ctx context.Context, runID int64, stats []model.DailyStat) error
}
