package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CreatorStore = (*CreatorRepo)(nil)

// CreatorRepo is the SQLite implementation of the CreatorStore port interface.
type CreatorRepo struct {
	db *DB
}

// NewCreatorRepo creates a new CreatorRepo backed by the given DB.
func NewCreatorRepo(db *DB) *CreatorRepo {
	return &CreatorRepo{db: db}
}

// Upsert inserts or updates a creator keyed on username. AddedAt is preserved
// on update; a zero AddedAt on insert is replaced with the current time.
func (r *CreatorRepo) Upsert(ctx context.Context, creator model.Creator) error {
	addedAt := creator.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO creators (username, sec_uid, added_at, last_collected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			sec_uid = excluded.sec_uid
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		creator.Username, creator.SecUID, formatTime(addedAt), formatTime(creator.LastCollectedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert creator %q: %w", creator.Username, err)
	}

	return nil
}

// GetByUsername returns the creator with the given username, or nil if absent.
func (r *CreatorRepo) GetByUsername(ctx context.Context, username string) (*model.Creator, error) {
	const query = `
		SELECT id, username, sec_uid, added_at, last_collected_at
		FROM creators
		WHERE username = ?
	`

	creator, err := scanCreator(r.db.Reader.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get creator %q: %w", username, err)
	}

	return creator, nil
}

// ListAll returns all tracked creators ordered by username.
func (r *CreatorRepo) ListAll(ctx context.Context) ([]model.Creator, error) {
	const query = `
		SELECT id, username, sec_uid, added_at, last_collected_at
		FROM creators
		ORDER BY username
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list creators: %w", err)
	}
	defer rows.Close()

	var creators []model.Creator
	for rows.Next() {
		creator, err := scanCreator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan creator: %w", err)
		}
		creators = append(creators, *creator)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creators: %w", err)
	}

	if creators == nil {
		creators = []model.Creator{}
	}
	return creators, nil
}

// MarkCollected records the time of the creator's last successful collection.
func (r *CreatorRepo) MarkCollected(ctx context.Context, username string, at time.Time) error {
	const query = `UPDATE creators SET last_collected_at = ? WHERE username = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, formatTime(at), username)
	if err != nil {
		return fmt.Errorf("mark creator %q collected: %w", username, err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCreator(row rowScanner) (*model.Creator, error) {
	var creator model.Creator
	var addedAt, lastCollectedAt string

	if err := row.Scan(&creator.ID, &creator.Username, &creator.SecUID, &addedAt, &lastCollectedAt); err != nil {
		return nil, err
	}

	var err error
	if creator.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, fmt.Errorf("parse added_at: %w", err)
	}
	if creator.LastCollectedAt, err = parseTime(lastCollectedAt); err != nil {
		return nil, fmt.Errorf("parse last_collected_at: %w", err)
	}

	return &creator, nil
}
