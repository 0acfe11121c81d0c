package ledger

import "github.com/MikeSquared-Agency/parley/internal/utterance"

// Split is a point-in-time view of credited speaking time.
type Split struct {
	ManagerMs float64 `json:"manager_ms"`
	MemberMs  float64 `json:"member_ms"`
}

// TotalMs is the sum of both buckets.
func (s Split) TotalMs() float64 {
	return s.ManagerMs + s.MemberMs
}

// Ledger accumulates speaking time into the manager and member buckets.
// Credits are final: earlier credits are never re-attributed.
type Ledger struct {
	split  Split
	frozen bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Credit adds the utterance's duration to one bucket. It reports false when
// the ledger is frozen.
func (l *Ledger) Credit(u utterance.Utterance, isManager bool) bool {
	if l.frozen {
		return false
	}
	if isManager {
		l.split.ManagerMs += u.DurationMs
	} else {
		l.split.MemberMs += u.DurationMs
	}
	return true
}

// Freeze stops further credits.
func (l *Ledger) Freeze() {
	l.frozen = true
}

// Frozen reports whether credits are still accepted.
func (l *Ledger) Frozen() bool {
	return l.frozen
}

// Snapshot returns the current split.
func (l *Ledger) Snapshot() Split {
	return l.split
}

// Reset zeroes both buckets and unfreezes the ledger.
func (l *Ledger) Reset() {
	l.split = Split{}
	l.frozen = false
}
