package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoPattern is returned when no speaker pattern has been registered.
var ErrNoPattern = errors.New("no registered pattern")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables parley needs if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS registered_pattern (
	id                  SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	speaker_tag         TEXT NOT NULL,
	registered_at       TIMESTAMPTZ NOT NULL,
	utterance_count     INTEGER NOT NULL,
	total_duration_ms   DOUBLE PRECISION NOT NULL,
	average_duration_ms DOUBLE PRECISION NOT NULL,
	text_samples        TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS session_summaries (
	id               UUID PRIMARY KEY,
	session_id       UUID NOT NULL UNIQUE,
	started_at       TIMESTAMPTZ NOT NULL,
	stopped_at       TIMESTAMPTZ NOT NULL,
	total_ms         DOUBLE PRECISION NOT NULL,
	manager_ms       DOUBLE PRECISION NOT NULL,
	member_ms        DOUBLE PRECISION NOT NULL,
	manager_ratio    DOUBLE PRECISION NOT NULL,
	member_ratio     DOUBLE PRECISION NOT NULL,
	category         TEXT NOT NULL,
	resolution_state TEXT NOT NULL,
	manager_tag      TEXT NOT NULL DEFAULT '',
	confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS session_summaries_stopped_at_idx ON session_summaries (stopped_at DESC);
`
