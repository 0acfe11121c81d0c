package resolver

import (
	"log/slog"

	"github.com/MikeSquared-Agency/parley/internal/profile"
)

// State is the resolver's verdict state.
type State string

const (
	Undetermined State = "undetermined"
	Provisional  State = "provisional" // single speaker seen, tentatively the manager
	Resolved     State = "resolved"
)

// Resolution is the current verdict.
type Resolution struct {
	State      State   `json:"state"`
	ManagerTag string  `json:"manager_tag,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Resolver decides which speaker tag is the manager. Once Resolved the
// verdict is sticky until Reset.
type Resolver struct {
	weights Weights
	pattern *profile.Pattern
	logger  *slog.Logger

	res  Resolution
	last []Candidate
}

// New creates a resolver. pattern is the registered pattern and may be nil.
func New(w Weights, pattern *profile.Pattern, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		weights: w,
		pattern: pattern,
		logger:  logger,
		res:     Resolution{State: Undetermined},
	}
}

// Evaluate updates the verdict from the latest accumulator snapshot. It is a
// no-op once Resolved.
func (r *Resolver) Evaluate(snap profile.Snapshot) Resolution {
	if r.res.State == Resolved {
		return r.res
	}

	switch {
	case len(snap.Profiles) == 0:
		r.res = Resolution{State: Undetermined}
		return r.res

	case len(snap.Profiles) == 1:
		tag := snap.Profiles[0].Tag
		if r.res.State != Provisional || r.res.ManagerTag != tag {
			r.logger.Debug("provisional manager", "speaker_tag", tag)
		}
		r.res = Resolution{State: Provisional, ManagerTag: tag}
		return r.res

	case snap.TotalUtterances < r.weights.MinUtterances:
		r.res = Resolution{State: Undetermined}
		return r.res
	}

	r.last = ScoreCandidates(snap, r.pattern, r.weights)
	top, _ := best(r.last)
	if top.Score > r.weights.ConfirmThreshold {
		r.res = Resolution{State: Resolved, ManagerTag: top.Tag, Confidence: top.Score}
		r.logger.Info("manager resolved",
			"speaker_tag", top.Tag,
			"confidence", top.Score,
			"utterances", snap.TotalUtterances,
			"speakers", len(snap.Profiles),
		)
		return r.res
	}

	r.res = Resolution{State: Undetermined}
	return r.res
}

// IsManager reports whether tag is the current manager. Without a verdict
// every tag counts as the member.
func (r *Resolver) IsManager(tag string) bool {
	if r.res.State == Undetermined {
		return false
	}
	return tag == r.res.ManagerTag
}

// Resolution returns the current verdict.
func (r *Resolver) Resolution() Resolution {
	return r.res
}

// Candidates returns the scores from the last multi-speaker evaluation.
func (r *Resolver) Candidates() []Candidate {
	out := make([]Candidate, len(r.last))
	copy(out, r.last)
	return out
}

// Reset returns to Undetermined. The registered pattern is kept.
func (r *Resolver) Reset() {
	r.res = Resolution{State: Undetermined}
	r.last = nil
}
