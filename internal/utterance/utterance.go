package utterance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// UnknownTag is assigned when the speech source omits a speaker tag.
const UnknownTag = "Unknown"

// ticksPerMs converts 100-nanosecond recognizer ticks to milliseconds.
const ticksPerMs = 10000.0

var (
	// ErrInterim marks a partial recognition result. Interim results are never credited.
	ErrInterim = errors.New("interim recognition result")
	// ErrMalformed marks an event that cannot become an Utterance.
	ErrMalformed = errors.New("malformed speech event")
	// ErrNotRecognized marks a final result whose reason is not recognized
	// speech, e.g. "nomatch". It is never credited.
	ErrNotRecognized = errors.New("speech not recognized")
	// ErrCanceled marks a recognition failure reported by the speech source.
	ErrCanceled = fmt.Errorf("%w: recognition canceled", ErrNotRecognized)
)

// Event is a raw speech-completion event as delivered by the speech source.
type Event struct {
	SpeakerTag    string    `json:"speaker_tag"`
	Text          string    `json:"text"`
	DurationMs    *float64  `json:"duration_ms,omitempty"`
	DurationTicks *int64    `json:"duration_ticks,omitempty"` // 100ns units
	Final         *bool     `json:"final,omitempty"`
	Reason        string    `json:"reason,omitempty"` // "recognized", "interim", "nomatch", "canceled", ...
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// Utterance is one finalized speech segment. It is immutable once built.
type Utterance struct {
	SpeakerTag string
	Text       string
	DurationMs float64
	Timestamp  time.Time
}

// IsInterim reports whether the event is a partial result.
func (e Event) IsInterim() bool {
	if e.Final != nil && !*e.Final {
		return true
	}
	return strings.EqualFold(e.Reason, "interim") || strings.EqualFold(e.Reason, "partial")
}

// IsRecognized reports whether the event is recognized speech. An empty
// reason counts as recognized.
func (e Event) IsRecognized() bool {
	switch strings.ToLower(e.Reason) {
	case "", "recognized", "recognizedspeech":
		return true
	}
	return false
}

// IsCanceled reports whether the speech source gave up on recognition.
func (e Event) IsCanceled() bool {
	switch strings.ToLower(e.Reason) {
	case "canceled", "cancelled", "error":
		return true
	}
	return false
}

// Normalize turns a raw event into an Utterance. now supplies the completion
// time when the event carries none. Only final, recognized speech is accepted.
func Normalize(evt Event, now time.Time) (Utterance, error) {
	switch {
	case evt.IsInterim():
		return Utterance{}, ErrInterim
	case evt.IsCanceled():
		return Utterance{}, ErrCanceled
	case !evt.IsRecognized():
		return Utterance{}, fmt.Errorf("%w: reason %q", ErrNotRecognized, evt.Reason)
	}

	var duration float64
	switch {
	case evt.DurationMs != nil:
		duration = *evt.DurationMs
	case evt.DurationTicks != nil:
		duration = float64(*evt.DurationTicks) / ticksPerMs
	default:
		return Utterance{}, fmt.Errorf("%w: missing duration", ErrMalformed)
	}
	if duration < 0 || math.IsNaN(duration) {
		return Utterance{}, fmt.Errorf("%w: invalid duration %v", ErrMalformed, duration)
	}

	tag := strings.TrimSpace(evt.SpeakerTag)
	if tag == "" {
		tag = UnknownTag
	}

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = now
	}

	return Utterance{
		SpeakerTag: tag,
		Text:       evt.Text,
		DurationMs: duration,
		Timestamp:  ts,
	}, nil
}
