package profile

import (
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

// Accumulator keeps one SpeakerProfile per speaker tag for a single session.
// It makes no attribution decisions.
type Accumulator struct {
	sampleCap int
	profiles  map[string]*SpeakerProfile
	order     []string // first appearance
	total     int
}

// NewAccumulator creates an empty accumulator. sampleCap <= 0 uses DefaultSampleCap.
func NewAccumulator(sampleCap int) *Accumulator {
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &Accumulator{
		sampleCap: sampleCap,
		profiles:  make(map[string]*SpeakerProfile),
	}
}

// Record folds one utterance into its speaker's profile.
func (a *Accumulator) Record(u utterance.Utterance) {
	p, ok := a.profiles[u.SpeakerTag]
	if !ok {
		p = newSpeakerProfile(u.SpeakerTag, a.sampleCap)
		a.profiles[u.SpeakerTag] = p
		a.order = append(a.order, u.SpeakerTag)
	}
	p.record(u)
	a.total++
}

// TotalUtterances is the number of utterances recorded across all speakers.
func (a *Accumulator) TotalUtterances() int {
	return a.total
}

// Speakers is the number of distinct tags seen.
func (a *Accumulator) Speakers() int {
	return len(a.order)
}

// Snapshot returns a copy of every profile in order of first appearance.
func (a *Accumulator) Snapshot() Snapshot {
	profiles := make([]SpeakerProfile, 0, len(a.order))
	for _, tag := range a.order {
		profiles = append(profiles, a.profiles[tag].clone())
	}
	return Snapshot{Profiles: profiles, TotalUtterances: a.total}
}

// Reset discards every profile.
func (a *Accumulator) Reset() {
	a.profiles = make(map[string]*SpeakerProfile)
	a.order = nil
	a.total = 0
}

// Snapshot is an immutable view of the accumulator at one point in time.
type Snapshot struct {
	Profiles        []SpeakerProfile
	TotalUtterances int
}

// Get returns the profile for tag.
func (s Snapshot) Get(tag string) (SpeakerProfile, bool) {
	for _, p := range s.Profiles {
		if p.Tag == tag {
			return p, true
		}
	}
	return SpeakerProfile{}, false
}

// Longest returns the profile with the greatest total duration, ties broken by
// first appearance.
func (s Snapshot) Longest() (SpeakerProfile, bool) {
	if len(s.Profiles) == 0 {
		return SpeakerProfile{}, false
	}
	best := s.Profiles[0]
	for _, p := range s.Profiles[1:] {
		if p.TotalDurationMs > best.TotalDurationMs {
			best = p
		}
	}
	return best, true
}
