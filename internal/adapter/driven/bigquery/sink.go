// Package bigquery implements the TrendSink port as streaming inserts into a
// BigQuery table.
package bigquery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TrendSink = (*Sink)(nil)

// Sink streams daily stat rows into a BigQuery table. Writes are append-only;
// every row carries the run ID so downstream views can deduplicate or select
// the latest run per day.
type Sink struct {
	client  *bq.Client
	dataset string
	table   string
}

// NewSink creates a BigQuery sink authenticated with the service-account key
// file at credentialsPath (a materialized credfile handle path).
func NewSink(ctx context.Context, project, dataset, table, credentialsPath string) (*Sink, error) {
	client, err := bq.NewClient(ctx, project, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	return &Sink{
		client:  client,
		dataset: dataset,
		table:   table,
	}, nil
}

// Name identifies the sink in logs and run summaries.
func (s *Sink) Name() string {
	return "bigquery"
}

// WriteDailyStats streams the run's rows into the configured table.
func (s *Sink) WriteDailyStats(ctx context.Context, runID int64, stats []model.DailyStat) error {
	if len(stats) == 0 {
		return nil
	}

	rows := make([]*trendRow, 0, len(stats))
	for _, stat := range stats {
		rows = append(rows, newTrendRow(runID, stat))
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert %d rows into %s.%s: %w", len(rows), s.dataset, s.table, err)
	}

	slog.Info("bigquery export complete", "dataset", s.dataset, "table", s.table, "rows", len(rows), "run_id", runID)
	return nil
}

// Close releases the underlying client.
func (s *Sink) Close() error {
	return s.client.Close()
}

// trendRow is the BigQuery row shape for one creator-day.
type trendRow struct {
	runID      int64
	username   string
	date       time.Time
	views      int64
	likes      int64
	videos     int
	viewsAvg   *float64
	likesAvg   *float64
	videosAvg  *float64
	insertedAt time.Time
}

func newTrendRow(runID int64, stat model.DailyStat) *trendRow {
	return &trendRow{
		runID:      runID,
		username:   stat.Username,
		date:       stat.Date,
		views:      stat.Views,
		likes:      stat.Likes,
		videos:     stat.Videos,
		viewsAvg:   stat.ViewsAvg28,
		likesAvg:   stat.LikesAvg28,
		videosAvg:  stat.VideosAvg28,
		insertedAt: time.Now().UTC(),
	}
}

// Save implements bigquery.ValueSaver. The insert ID is derived from run,
// creator, and day for best-effort dedup on streaming retries.
func (r *trendRow) Save() (map[string]bq.Value, string, error) {
	day := r.date.UTC().Format("2006-01-02")

	row := map[string]bq.Value{
		"run_id":      r.runID,
		"username":    r.username,
		"date":        day,
		"views":       r.views,
		"likes":       r.likes,
		"videos":      r.videos,
		"inserted_at": r.insertedAt,
	}
	if r.viewsAvg != nil {
		row["views_28day_avg"] = *r.viewsAvg
	}
	if r.likesAvg != nil {
		row["likes_28day_avg"] = *r.likesAvg
	}
	if r.videosAvg != nil {
		row["videos_28day_avg"] = *r.videosAvg
	}

	insertID := fmt.Sprintf("%d/%s/%s", r.runID, r.username, day)
	return row, insertID, nil
}
