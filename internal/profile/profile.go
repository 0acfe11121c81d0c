package profile

import (
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

// DefaultSampleCap bounds the number of recent texts kept per speaker.
const DefaultSampleCap = 50

// SpeakerProfile is the running aggregate for one session-scoped speaker tag.
type SpeakerProfile struct {
	Tag              string
	UtteranceCount   int
	TotalDurationMs  float64
	TextLengthSum    int // runes, across every utterance
	FirstUtteranceAt time.Time
	LastUtteranceAt  time.Time

	samples []string // ring buffer
	next    int
}

func newSpeakerProfile(tag string, sampleCap int) *SpeakerProfile {
	return &SpeakerProfile{
		Tag:     tag,
		samples: make([]string, 0, sampleCap),
	}
}

// AverageDurationMs is 0 when no utterances have been recorded.
func (p *SpeakerProfile) AverageDurationMs() float64 {
	if p.UtteranceCount == 0 {
		return 0
	}
	return p.TotalDurationMs / float64(p.UtteranceCount)
}

// AverageTextLength is the mean recognized text length in characters.
func (p *SpeakerProfile) AverageTextLength() float64 {
	if p.UtteranceCount == 0 {
		return 0
	}
	return float64(p.TextLengthSum) / float64(p.UtteranceCount)
}

// SampleCount is the number of text samples ever appended. It always equals UtteranceCount.
func (p *SpeakerProfile) SampleCount() int {
	return p.UtteranceCount
}

// TextSamples returns the retained texts, oldest first.
func (p *SpeakerProfile) TextSamples() []string {
	out := make([]string, 0, len(p.samples))
	if len(p.samples) < cap(p.samples) {
		return append(out, p.samples...)
	}
	out = append(out, p.samples[p.next:]...)
	return append(out, p.samples[:p.next]...)
}

func (p *SpeakerProfile) record(u utterance.Utterance) {
	if p.UtteranceCount == 0 {
		p.FirstUtteranceAt = u.Timestamp
	}
	p.UtteranceCount++
	p.TotalDurationMs += u.DurationMs
	p.TextLengthSum += utf8.RuneCountInString(u.Text)
	p.LastUtteranceAt = u.Timestamp

	if cap(p.samples) == 0 {
		return
	}
	if len(p.samples) < cap(p.samples) {
		p.samples = append(p.samples, u.Text)
		return
	}
	p.samples[p.next] = u.Text
	p.next = (p.next + 1) % cap(p.samples)
}

func (p *SpeakerProfile) clone() SpeakerProfile {
	c := *p
	c.samples = make([]string, len(p.samples), cap(p.samples))
	copy(c.samples, p.samples)
	return c
}
