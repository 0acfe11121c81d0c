package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/parley/internal/profile"
)

// GetPattern fetches the registered speaker pattern.
func (s *Store) GetPattern(ctx context.Context) (*profile.Pattern, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT speaker_tag, registered_at, utterance_count, total_duration_ms, average_duration_ms, text_samples
		FROM registered_pattern WHERE id = 1`)

	var p profile.Pattern
	err := row.Scan(&p.SpeakerTag, &p.RegistrationDate, &p.SpeakerPattern.UtteranceCount,
		&p.SpeakerPattern.TotalDurationMs, &p.SpeakerPattern.AverageDurationMs, &p.SpeakerPattern.TextSamples)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPattern
	}
	if err != nil {
		return nil, fmt.Errorf("get pattern: %w", err)
	}
	return &p, nil
}

// SavePattern replaces the registered pattern.
func (s *Store) SavePattern(ctx context.Context, p profile.Pattern) error {
	samples := p.SpeakerPattern.TextSamples
	if samples == nil {
		samples = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registered_pattern (id, speaker_tag, registered_at, utterance_count, total_duration_ms, average_duration_ms, text_samples)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			speaker_tag = $1,
			registered_at = $2,
			utterance_count = $3,
			total_duration_ms = $4,
			average_duration_ms = $5,
			text_samples = $6`,
		p.SpeakerTag, p.RegistrationDate, p.SpeakerPattern.UtteranceCount,
		p.SpeakerPattern.TotalDurationMs, p.SpeakerPattern.AverageDurationMs, samples,
	)
	if err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

// ClearPattern deletes the registered pattern. Clearing an empty store is not an error.
func (s *Store) ClearPattern(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM registered_pattern WHERE id = 1`); err != nil {
		return fmt.Errorf("clear pattern: %w", err)
	}
	return nil
}
