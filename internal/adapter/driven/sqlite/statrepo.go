package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StatStore = (*StatRepo)(nil)

// StatRepo is the SQLite implementation of the StatStore port interface.
type StatRepo struct {
	db *DB
}

// NewStatRepo creates a new StatRepo backed by the given DB.
func NewStatRepo(db *DB) *StatRepo {
	return &StatRepo{db: db}
}

// UpsertBatch inserts or replaces daily stat rows keyed on (username, date)
// inside a single transaction, so re-collecting a day is idempotent.
func (r *StatRepo) UpsertBatch(ctx context.Context, stats []model.DailyStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stat batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		INSERT INTO daily_stats (
			username, date, views, likes, videos,
			views_avg_28, likes_avg_28, videos_avg_28
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username, date) DO UPDATE SET
			views = excluded.views,
			likes = excluded.likes,
			videos = excluded.videos,
			views_avg_28 = excluded.views_avg_28,
			likes_avg_28 = excluded.likes_avg_28,
			videos_avg_28 = excluded.videos_avg_28
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare stat upsert: %w", err)
	}
	defer stmt.Close()

	for _, stat := range stats {
		_, err := stmt.ExecContext(ctx,
			stat.Username, stat.Day(), stat.Views, stat.Likes, stat.Videos,
			nullFloat(stat.ViewsAvg28), nullFloat(stat.LikesAvg28), nullFloat(stat.VideosAvg28),
		)
		if err != nil {
			return fmt.Errorf("upsert stat %s/%s: %w", stat.Username, stat.Day(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stat batch: %w", err)
	}
	return nil
}

// GetByCreator returns all daily stats for the given creator ordered by date.
func (r *StatRepo) GetByCreator(ctx context.Context, username string) ([]model.DailyStat, error) {
	const query = `
		SELECT id, username, date, views, likes, videos,
		       views_avg_28, likes_avg_28, videos_avg_28
		FROM daily_stats
		WHERE username = ?
		ORDER BY date
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("get stats for %q: %w", username, err)
	}
	defer rows.Close()

	var stats []model.DailyStat
	for rows.Next() {
		var stat model.DailyStat
		var date string
		var viewsAvg, likesAvg, videosAvg sql.NullFloat64

		err := rows.Scan(&stat.ID, &stat.Username, &date, &stat.Views, &stat.Likes, &stat.Videos,
			&viewsAvg, &likesAvg, &videosAvg)
		if err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}

		if stat.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("parse stat date: %w", err)
		}
		stat.ViewsAvg28 = floatPtr(viewsAvg)
		stat.LikesAvg28 = floatPtr(likesAvg)
		stat.VideosAvg28 = floatPtr(videosAvg)

		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	if stats == nil {
		stats = []model.DailyStat{}
	}
	return stats, nil
}

// CountByCreator returns the number of stored stat rows for the given creator.
func (r *StatRepo) CountByCreator(ctx context.Context, username string) (int, error) {
	const query = `SELECT COUNT(*) FROM daily_stats WHERE username = ?`

	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stats for %q: %w", username, err)
	}
	return count, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
