package resolver

import (
	"math"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/profile"
)

// Signals is the per-signal breakdown of a candidate's score.
type Signals struct {
	Registered float64 `json:"registered"`
	Dominance  float64 `json:"dominance"`
	Earliest   float64 `json:"earliest"`
	Verbosity  float64 `json:"verbosity"`
}

// Total sums every signal.
func (s Signals) Total() float64 {
	return s.Registered + s.Dominance + s.Earliest + s.Verbosity
}

// Candidate is one speaker tag's score for a single evaluation.
type Candidate struct {
	Tag     string  `json:"tag"`
	Score   float64 `json:"score"`
	Signals Signals `json:"signals"`
}

// DurationSimilarity returns weight x closeness of the candidate's average
// duration to the registered average, falling linearly to zero at tolerance.
func DurationSimilarity(candidateAvgMs, registeredAvgMs, toleranceMs, weight float64) float64 {
	if toleranceMs <= 0 {
		return 0
	}
	closeness := 1 - math.Abs(candidateAvgMs-registeredAvgMs)/toleranceMs
	return math.Max(0, closeness) * weight
}

// Dominance awards weight when the candidate's share of all utterances exceeds share.
func Dominance(count, total int, share, weight float64) float64 {
	if total == 0 {
		return 0
	}
	if float64(count)/float64(total) > share {
		return weight
	}
	return 0
}

// Earliest awards weight when first is the earliest first-utterance time.
func Earliest(first, earliest time.Time, weight float64) float64 {
	if first.Equal(earliest) {
		return weight
	}
	return 0
}

// Verbosity awards weight when the mean text length exceeds chars.
func Verbosity(meanChars, chars, weight float64) float64 {
	if meanChars > chars {
		return weight
	}
	return 0
}

// ScoreCandidates scores every profile in snapshot order. pattern may be nil.
func ScoreCandidates(snap profile.Snapshot, pattern *profile.Pattern, w Weights) []Candidate {
	if len(snap.Profiles) == 0 {
		return nil
	}

	earliest := snap.Profiles[0].FirstUtteranceAt
	for _, p := range snap.Profiles[1:] {
		if p.FirstUtteranceAt.Before(earliest) {
			earliest = p.FirstUtteranceAt
		}
	}

	candidates := make([]Candidate, 0, len(snap.Profiles))
	for _, p := range snap.Profiles {
		var s Signals
		if pattern != nil {
			s.Registered = DurationSimilarity(p.AverageDurationMs(), pattern.SpeakerPattern.AverageDurationMs, w.DurationToleranceMs, w.RegisteredWeight)
		}
		s.Dominance = Dominance(p.UtteranceCount, snap.TotalUtterances, w.DominanceShare, w.DominanceWeight)
		s.Earliest = Earliest(p.FirstUtteranceAt, earliest, w.EarliestWeight)
		s.Verbosity = Verbosity(p.AverageTextLength(), w.VerbosityChars, w.VerbosityWeight)

		candidates = append(candidates, Candidate{Tag: p.Tag, Score: s.Total(), Signals: s})
	}
	return candidates
}

// best returns the first candidate holding the maximum score.
func best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	top := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > top.Score {
			top = c
		}
	}
	return top, true
}
