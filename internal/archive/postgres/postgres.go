// Package postgres provides a PostgreSQL-backed implementation of the
// meeting archive.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	id, err := store.SaveMeeting(ctx, meeting)
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/minutescribe/internal/archive"
)

// Compile-time interface check.
var _ archive.Store = (*Store)(nil)

const ddlMeetings = `
CREATE TABLE IF NOT EXISTS meetings (
    id               BIGSERIAL    PRIMARY KEY,
    title            TEXT         NOT NULL DEFAULT '',
    mode             TEXT         NOT NULL,
    duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
    speakers         TEXT[]       NOT NULL DEFAULT '{}',
    no_speech        BOOLEAN      NOT NULL DEFAULT FALSE,
    transcript       TEXT         NOT NULL DEFAULT '',
    summary          TEXT         NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_meetings_created_at
    ON meetings (created_at DESC);
`

// Store is the PostgreSQL-backed meeting archive. It holds a single
// [pgxpool.Pool]; all operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at
// dsn and runs [Migrate] to ensure the meetings table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate creates the meetings table and its indexes if they do not
// already exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlMeetings); err != nil {
		return fmt.Errorf("archive migrate: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveMeeting implements [archive.Store].
func (s *Store) SaveMeeting(ctx context.Context, m archive.Meeting) (int64, error) {
	const q = `
		INSERT INTO meetings
		    (title, mode, duration_seconds, speakers, no_speech, transcript, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q,
		m.Title,
		m.Mode,
		m.DurationSeconds,
		m.Speakers,
		m.NoSpeech,
		m.Transcript,
		m.Summary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("archive store: save meeting: %w", err)
	}
	return id, nil
}

const selectColumns = `
	SELECT id, title, mode, duration_seconds, speakers, no_speech,
	       transcript, summary, created_at
	FROM   meetings`

// Meeting implements [archive.Store].
func (s *Store) Meeting(ctx context.Context, id int64) (archive.Meeting, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	m, err := scanMeeting(row)
	if err != nil {
		return archive.Meeting{}, fmt.Errorf("archive store: get meeting %d: %w", id, err)
	}
	return m, nil
}

// Latest implements [archive.Store].
func (s *Store) Latest(ctx context.Context) (archive.Meeting, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT 1`)
	m, err := scanMeeting(row)
	if err != nil {
		return archive.Meeting{}, fmt.Errorf("archive store: get latest meeting: %w", err)
	}
	return m, nil
}

// ListMeetings implements [archive.Store].
func (s *Store) ListMeetings(ctx context.Context, limit int) ([]archive.Meeting, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive store: list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []archive.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("archive store: list meetings: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive store: list meetings: %w", err)
	}
	return meetings, nil
}

// scanMeeting reads one meetings row. pgx.ErrNoRows is translated to
// [archive.ErrNotFound].
func scanMeeting(row pgx.Row) (archive.Meeting, error) {
	var m archive.Meeting
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Mode,
		&m.DurationSeconds,
		&m.Speakers,
		&m.NoSpeech,
		&m.Transcript,
		&m.Summary,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return archive.Meeting{}, archive.ErrNotFound
	}
	if err != nil {
		return archive.Meeting{}, err
	}
	return m, nil
}
