package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/summary"
)

// WriteSummary stores a finished session. Writing the same session twice is a
// no-op that returns the id of the row already stored.
func (s *Store) WriteSummary(ctx context.Context, r session.Result) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO session_summaries (id, session_id, started_at, stopped_at, total_ms, manager_ms, member_ms,
			manager_ratio, member_ratio, category, resolution_state, manager_tag, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`,
		uuid.New(), r.SessionID, r.StartedAt, r.StoppedAt,
		r.Summary.TotalMs, r.Summary.ManagerMs, r.Summary.MemberMs,
		r.Summary.ManagerRatio, r.Summary.MemberRatio, string(r.Summary.Category),
		string(r.Resolution.State), r.Resolution.ManagerTag, r.Resolution.Confidence,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.pool.QueryRow(ctx,
			`SELECT id FROM session_summaries WHERE session_id = $1`, r.SessionID).Scan(&id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("lookup session summary: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session summary: %w", err)
	}
	return id, nil
}

// RecentSummaries returns up to limit summaries, newest first.
func (s *Store) RecentSummaries(ctx context.Context, limit int) ([]session.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, started_at, stopped_at, total_ms, manager_ms, member_ms,
			manager_ratio, member_ratio, category, resolution_state, manager_tag, confidence
		FROM session_summaries
		ORDER BY stopped_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []session.Result
	for rows.Next() {
		var (
			r        session.Result
			category string
			state    string
		)
		if err := rows.Scan(&r.SessionID, &r.StartedAt, &r.StoppedAt,
			&r.Summary.TotalMs, &r.Summary.ManagerMs, &r.Summary.MemberMs,
			&r.Summary.ManagerRatio, &r.Summary.MemberRatio, &category,
			&state, &r.Resolution.ManagerTag, &r.Resolution.Confidence); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		r.Summary.Category = summary.Category(category)
		r.Summary.Advice = summary.Advice(r.Summary.Category)
		r.Resolution.State = resolver.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}
