package profile

import (
	"reflect"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func utt(tag, text string, ms float64, offset time.Duration) utterance.Utterance {
	return utterance.Utterance{SpeakerTag: tag, Text: text, DurationMs: ms, Timestamp: t0.Add(offset)}
}

func TestAccumulator_Record(t *testing.T) {
	a := NewAccumulator(0)
	a.Record(utt("B", "hi", 1000, 0))
	a.Record(utt("A", "hello there", 3000, time.Second))
	a.Record(utt("B", "ok", 500, 2*time.Second))

	if a.TotalUtterances() != 3 {
		t.Fatalf("expected 3 utterances, got %d", a.TotalUtterances())
	}
	if a.Speakers() != 2 {
		t.Fatalf("expected 2 speakers, got %d", a.Speakers())
	}

	snap := a.Snapshot()
	if got := []string{snap.Profiles[0].Tag, snap.Profiles[1].Tag}; !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("expected first-appearance order [B A], got %v", got)
	}

	b, ok := snap.Get("B")
	if !ok {
		t.Fatal("expected profile for B")
	}
	if b.UtteranceCount != 2 || b.TotalDurationMs != 1500 {
		t.Errorf("B = count %d total %f", b.UtteranceCount, b.TotalDurationMs)
	}
	if b.AverageDurationMs() != 750 {
		t.Errorf("expected avg 750, got %f", b.AverageDurationMs())
	}
	if !b.FirstUtteranceAt.Equal(t0) || !b.LastUtteranceAt.Equal(t0.Add(2*time.Second)) {
		t.Errorf("unexpected timestamps %v / %v", b.FirstUtteranceAt, b.LastUtteranceAt)
	}
	if b.SampleCount() != b.UtteranceCount {
		t.Errorf("sample count %d != utterance count %d", b.SampleCount(), b.UtteranceCount)
	}
	if !reflect.DeepEqual(b.TextSamples(), []string{"hi", "ok"}) {
		t.Errorf("unexpected samples %v", b.TextSamples())
	}
}

func TestSpeakerProfile_EmptyAverages(t *testing.T) {
	p := newSpeakerProfile("X", 4)
	if p.AverageDurationMs() != 0 {
		t.Errorf("expected 0 avg duration, got %f", p.AverageDurationMs())
	}
	if p.AverageTextLength() != 0 {
		t.Errorf("expected 0 avg text length, got %f", p.AverageTextLength())
	}
}

func TestSpeakerProfile_RingBuffer(t *testing.T) {
	a := NewAccumulator(3)
	for i, text := range []string{"one", "two", "three", "four", "five"} {
		a.Record(utt("A", text, 100, time.Duration(i)*time.Second))
	}

	p, _ := a.Snapshot().Get("A")
	if !reflect.DeepEqual(p.TextSamples(), []string{"three", "four", "five"}) {
		t.Errorf("expected last three samples, got %v", p.TextSamples())
	}
	if p.SampleCount() != 5 {
		t.Errorf("expected sample count 5, got %d", p.SampleCount())
	}
	// Mean text length covers evicted samples too: (3+3+5+4+4)/5.
	if p.AverageTextLength() != 3.8 {
		t.Errorf("expected mean length 3.8, got %f", p.AverageTextLength())
	}
}

func TestSpeakerProfile_TextLengthCountsRunes(t *testing.T) {
	a := NewAccumulator(0)
	a.Record(utt("A", "こんにちは", 100, 0))

	p, _ := a.Snapshot().Get("A")
	if p.AverageTextLength() != 5 {
		t.Errorf("expected 5 characters, got %f", p.AverageTextLength())
	}
}

func TestSnapshot_IsIsolated(t *testing.T) {
	a := NewAccumulator(2)
	a.Record(utt("A", "first", 100, 0))
	snap := a.Snapshot()

	a.Record(utt("A", "second", 100, time.Second))
	a.Record(utt("A", "third", 100, 2*time.Second))

	p, _ := snap.Get("A")
	if p.UtteranceCount != 1 {
		t.Errorf("snapshot mutated: count %d", p.UtteranceCount)
	}
	if !reflect.DeepEqual(p.TextSamples(), []string{"first"}) {
		t.Errorf("snapshot samples mutated: %v", p.TextSamples())
	}
}

func TestSnapshot_Longest(t *testing.T) {
	a := NewAccumulator(0)
	if _, ok := a.Snapshot().Longest(); ok {
		t.Fatal("expected no longest profile when empty")
	}

	a.Record(utt("A", "", 1000, 0))
	a.Record(utt("B", "", 1000, time.Second))
	a.Record(utt("C", "", 400, 2*time.Second))

	p, _ := a.Snapshot().Longest()
	if p.Tag != "A" {
		t.Errorf("expected tie to go to first speaker A, got %s", p.Tag)
	}

	a.Record(utt("C", "", 2000, 3*time.Second))
	p, _ = a.Snapshot().Longest()
	if p.Tag != "C" {
		t.Errorf("expected C, got %s", p.Tag)
	}
}

func TestAccumulator_Reset(t *testing.T) {
	a := NewAccumulator(0)
	a.Record(utt("A", "x", 100, 0))
	a.Reset()

	if a.TotalUtterances() != 0 || a.Speakers() != 0 {
		t.Errorf("expected empty accumulator after reset")
	}
	if len(a.Snapshot().Profiles) != 0 {
		t.Errorf("expected no profiles after reset")
	}
}

func TestNewPattern(t *testing.T) {
	a := NewAccumulator(0)
	a.Record(utt("Guest-1", "good morning", 2000, 0))
	a.Record(utt("Guest-1", "let's begin", 4000, time.Second))

	p, _ := a.Snapshot().Get("Guest-1")
	pat := NewPattern(p, t0)

	if pat.SpeakerTag != "Guest-1" {
		t.Errorf("unexpected tag %q", pat.SpeakerTag)
	}
	if pat.SpeakerPattern.AverageDurationMs != 3000 {
		t.Errorf("expected avg 3000, got %f", pat.SpeakerPattern.AverageDurationMs)
	}
	if pat.SpeakerPattern.UtteranceCount != 2 || len(pat.SpeakerPattern.TextSamples) != 2 {
		t.Errorf("unexpected stats %+v", pat.SpeakerPattern)
	}
}
