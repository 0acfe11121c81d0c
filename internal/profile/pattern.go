package profile

import "time"

// Pattern is a registered speaker's statistics persisted across sessions.
// It is only a weak prior: resolution compares average durations, nothing more.
type Pattern struct {
	SpeakerTag       string       `json:"speakerTag"`
	RegistrationDate time.Time    `json:"registrationDate"`
	SpeakerPattern   PatternStats `json:"speakerPattern"`
}

// PatternStats mirrors the persisted aggregate of the registered profile.
type PatternStats struct {
	UtteranceCount    int      `json:"utteranceCount"`
	TotalDurationMs   float64  `json:"totalDurationMs"`
	AverageDurationMs float64  `json:"averageDurationMs"`
	TextSamples       []string `json:"textSamples"`
}

// NewPattern captures p as a registered pattern.
func NewPattern(p SpeakerProfile, registeredAt time.Time) Pattern {
	return Pattern{
		SpeakerTag:       p.Tag,
		RegistrationDate: registeredAt.UTC(),
		SpeakerPattern: PatternStats{
			UtteranceCount:    p.UtteranceCount,
			TotalDurationMs:   p.TotalDurationMs,
			AverageDurationMs: p.AverageDurationMs(),
			TextSamples:       p.TextSamples(),
		},
	}
}
