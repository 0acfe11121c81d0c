package session

import (
	"errors"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/summary"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

// DefaultRegistrationWindow is how long a registration listens before it
// completes on its own.
const DefaultRegistrationWindow = 10 * time.Second

// Registration captures one speaker's statistics for use as the registered
// pattern. Nothing recorded here is credited to a ledger.
type Registration struct {
	StartedAt time.Time
	Deadline  time.Time

	acc *profile.Accumulator
	now func() time.Time
}

// NewRegistration opens a registration window.
func NewRegistration(window time.Duration, sampleCap int, now func() time.Time) *Registration {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = DefaultRegistrationWindow
	}
	started := now()
	return &Registration{
		StartedAt: started,
		Deadline:  started.Add(window),
		acc:       profile.NewAccumulator(sampleCap),
		now:       now,
	}
}

// Handle records a final utterance. Interim and malformed events are ignored
// and reported the same way Session.Handle reports them.
func (r *Registration) Handle(evt utterance.Event) error {
	u, err := utterance.Normalize(evt, r.now())
	if err != nil {
		return err
	}
	r.acc.Record(u)
	return nil
}

// Remaining is the time left before auto-completion.
func (r *Registration) Remaining() time.Duration {
	left := r.Deadline.Sub(r.now())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the window has elapsed.
func (r *Registration) Expired() bool {
	return !r.now().Before(r.Deadline)
}

// Utterances is the number of utterances captured so far.
func (r *Registration) Utterances() int {
	return r.acc.TotalUtterances()
}

// Complete builds the pattern from the speaker with the most speaking time.
func (r *Registration) Complete() (profile.Pattern, error) {
	p, ok := r.acc.Snapshot().Longest()
	if !ok || p.TotalDurationMs <= 0 {
		return profile.Pattern{}, summary.ErrNoSpeechDetected
	}
	return profile.NewPattern(p, r.now()), nil
}

// IsDropped reports whether err means an event was dropped rather than failed.
func IsDropped(err error) bool {
	return errors.Is(err, utterance.ErrInterim) ||
		errors.Is(err, utterance.ErrNotRecognized) ||
		errors.Is(err, utterance.ErrMalformed) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, ErrHalted)
}
