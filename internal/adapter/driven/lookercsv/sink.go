// Package lookercsv implements the TrendSink port as a flat CSV file in the
// column layout Looker Studio dashboards expect.
package lookercsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TrendSink = (*Sink)(nil)

// header matches the combined dataframe column order the dashboards were
// built against. Missing rolling averages are written as empty cells.
var header = []string{
	"date", "views", "likes", "videos",
	"views_28day_avg", "likes_28day_avg", "videos_28day_avg",
	"username",
}

// Sink writes each run's full snapshot to a CSV file, replacing the previous
// file atomically via rename.
type Sink struct {
	path string
}

// NewSink creates a CSV sink writing to the given path.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Name identifies the sink in logs and run summaries.
func (s *Sink) Name() string {
	return "lookercsv"
}

// WriteDailyStats writes all rows to a temp file in the destination directory
// and renames it over the target, so readers never observe a partial file.
func (s *Sink) WriteDailyStats(ctx context.Context, runID int64, stats []model.DailyStat) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, stat := range stats {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(record(stat)); err != nil {
			return fmt.Errorf("write csv row %s/%s: %w", stat.Username, stat.Day(), err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	slog.Info("csv export complete", "path", s.path, "rows", len(stats), "run_id", runID)
	return nil
}

func record(stat model.DailyStat) []string {
	return []string{
		stat.Day(),
		strconv.FormatInt(stat.Views, 10),
		strconv.FormatInt(stat.Likes, 10),
		strconv.Itoa(stat.Videos),
		formatAvg(stat.ViewsAvg28),
		formatAvg(stat.LikesAvg28),
		formatAvg(stat.VideosAvg28),
		stat.Username,
	}
}

// formatAvg renders a rolling average, or an empty cell when the window was
// not yet full.
func formatAvg(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
