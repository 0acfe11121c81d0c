package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/summary"
)

// Local is a SQLite-backed store used when no DATABASE_URL is configured.
type Local struct {
	db *sql.DB
}

// OpenLocal opens the SQLite database at dbPath and creates tables if they don't exist.
func OpenLocal(dbPath string) (*Local, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Local{db: db}, nil
}

func (l *Local) Close() error {
	return l.db.Close()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS registered_pattern (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	speaker_tag TEXT NOT NULL,
	registered_at DATETIME NOT NULL,
	utterance_count INTEGER NOT NULL,
	total_duration_ms REAL NOT NULL,
	average_duration_ms REAL NOT NULL,
	text_samples TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS session_summaries (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	started_at DATETIME NOT NULL,
	stopped_at DATETIME NOT NULL,
	total_ms REAL NOT NULL,
	manager_ms REAL NOT NULL,
	member_ms REAL NOT NULL,
	manager_ratio REAL NOT NULL,
	member_ratio REAL NOT NULL,
	category TEXT NOT NULL,
	resolution_state TEXT NOT NULL,
	manager_tag TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

func (l *Local) GetPattern(ctx context.Context) (*profile.Pattern, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT speaker_tag, registered_at, utterance_count, total_duration_ms, average_duration_ms, text_samples
		 FROM registered_pattern WHERE id = 1`)

	var (
		p       profile.Pattern
		samples string
	)
	err := row.Scan(&p.SpeakerTag, &p.RegistrationDate, &p.SpeakerPattern.UtteranceCount,
		&p.SpeakerPattern.TotalDurationMs, &p.SpeakerPattern.AverageDurationMs, &samples)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPattern
	}
	if err != nil {
		return nil, fmt.Errorf("scan pattern: %w", err)
	}
	if err := json.Unmarshal([]byte(samples), &p.SpeakerPattern.TextSamples); err != nil {
		return nil, fmt.Errorf("decode text samples: %w", err)
	}
	return &p, nil
}

func (l *Local) SavePattern(ctx context.Context, p profile.Pattern) error {
	samples := p.SpeakerPattern.TextSamples
	if samples == nil {
		samples = []string{}
	}
	raw, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encode text samples: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO registered_pattern (id, speaker_tag, registered_at, utterance_count, total_duration_ms, average_duration_ms, text_samples)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			speaker_tag = excluded.speaker_tag,
			registered_at = excluded.registered_at,
			utterance_count = excluded.utterance_count,
			total_duration_ms = excluded.total_duration_ms,
			average_duration_ms = excluded.average_duration_ms,
			text_samples = excluded.text_samples`,
		p.SpeakerTag, p.RegistrationDate.UTC(), p.SpeakerPattern.UtteranceCount,
		p.SpeakerPattern.TotalDurationMs, p.SpeakerPattern.AverageDurationMs, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

func (l *Local) ClearPattern(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM registered_pattern WHERE id = 1`); err != nil {
		return fmt.Errorf("clear pattern: %w", err)
	}
	return nil
}

func (l *Local) WriteSummary(ctx context.Context, r session.Result) (uuid.UUID, error) {
	id := uuid.New()
	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_summaries (id, session_id, started_at, stopped_at, total_ms, manager_ms, member_ms,
			manager_ratio, member_ratio, category, resolution_state, manager_tag, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), r.SessionID.String(), r.StartedAt.UTC(), r.StoppedAt.UTC(),
		r.Summary.TotalMs, r.Summary.ManagerMs, r.Summary.MemberMs,
		r.Summary.ManagerRatio, r.Summary.MemberRatio, string(r.Summary.Category),
		string(r.Resolution.State), r.Resolution.ManagerTag, r.Resolution.Confidence,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return id, nil
	}

	var existing string
	err = l.db.QueryRowContext(ctx,
		`SELECT id FROM session_summaries WHERE session_id = ?`, r.SessionID.String()).Scan(&existing)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup session summary: %w", err)
	}
	return uuid.Parse(existing)
}

func (l *Local) RecentSummaries(ctx context.Context, limit int) ([]session.Result, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT session_id, started_at, stopped_at, total_ms, manager_ms, member_ms,
			manager_ratio, member_ratio, category, resolution_state, manager_tag, confidence
		 FROM session_summaries
		 ORDER BY stopped_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []session.Result
	for rows.Next() {
		var (
			r         session.Result
			sessionID string
			category  string
			state     string
		)
		if err := rows.Scan(&sessionID, &r.StartedAt, &r.StoppedAt,
			&r.Summary.TotalMs, &r.Summary.ManagerMs, &r.Summary.MemberMs,
			&r.Summary.ManagerRatio, &r.Summary.MemberRatio, &category,
			&state, &r.Resolution.ManagerTag, &r.Resolution.Confidence); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if r.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("parse session id: %w", err)
		}
		r.Summary.Category = summary.Category(category)
		r.Summary.Advice = summary.Advice(r.Summary.Category)
		r.Resolution.State = resolver.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}
