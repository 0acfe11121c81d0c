package resolver

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDurationSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		candidate  float64
		registered float64
		want       float64
	}{
		{"identical", 2500, 2500, 40},
		{"half tolerance away", 1000, 2500, 20},
		{"exactly tolerance away", 500, 3500, 0},
		{"beyond tolerance clamps to zero", 100, 9000, 0},
		{"symmetric", 4000, 2500, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DurationSimilarity(tt.candidate, tt.registered, 3000, 40)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("DurationSimilarity(%f, %f) = %f, want %f", tt.candidate, tt.registered, got, tt.want)
			}
		})
	}
}

func TestDominance(t *testing.T) {
	tests := []struct {
		name  string
		count int
		total int
		want  float64
	}{
		{"majority", 3, 4, 30},
		{"exactly 0.4 does not count", 2, 5, 0},
		{"just over", 5, 12, 30},
		{"minority", 1, 4, 0},
		{"zero total", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dominance(tt.count, tt.total, 0.4, 30)
			if got != tt.want {
				t.Errorf("Dominance(%d, %d) = %f, want %f", tt.count, tt.total, got, tt.want)
			}
		})
	}
}

func TestEarliest(t *testing.T) {
	now := time.Now()
	if Earliest(now, now, 10) != 10 {
		t.Error("expected bonus for the earliest speaker")
	}
	if Earliest(now.Add(time.Millisecond), now, 10) != 0 {
		t.Error("expected no bonus for a later speaker")
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		want float64
	}{
		{"long", 25, 20},
		{"exactly 20 does not count", 20, 0},
		{"short", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verbosity(tt.mean, 20, 20); got != tt.want {
				t.Errorf("Verbosity(%f) = %f, want %f", tt.mean, got, tt.want)
			}
		})
	}
}

func TestMaxScore(t *testing.T) {
	w := DefaultWeights()
	if w.MaxScore(true) != 100 {
		t.Errorf("expected 100 with pattern, got %f", w.MaxScore(true))
	}
	if w.MaxScore(false) != 60 {
		t.Errorf("expected 60 without pattern, got %f", w.MaxScore(false))
	}
}

func TestLoadWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	if err := os.WriteFile(path, []byte("dominance_weight: 50\nconfirm_threshold: 45\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights failed: %v", err)
	}
	if w.DominanceWeight != 50 || w.ConfirmThreshold != 45 {
		t.Errorf("overrides not applied: %+v", w)
	}
	if w.RegisteredWeight != 40 || w.MinUtterances != 3 {
		t.Errorf("defaults not kept: %+v", w)
	}
}

func TestLoadWeights_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "dominance_weight: [1, 2"},
		{"negative weight", "verbosity_weight: -5"},
		{"share above one", "dominance_share: 1.5"},
		{"zero tolerance", "duration_tolerance_ms: 0"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "w"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			w, err := LoadWeights(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if w != DefaultWeights() {
				t.Errorf("expected defaults on error, got %+v", w)
			}
		})
	}
}

func TestLoadWeights_MissingFile(t *testing.T) {
	if _, err := LoadWeights(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWeightsSource(t *testing.T) {
	ws, err := NewWeightsSource("", nil)
	if err != nil {
		t.Fatalf("NewWeightsSource: %v", err)
	}
	if ws.Current() != DefaultWeights() {
		t.Errorf("expected defaults without a file")
	}
	if err := ws.Reload(); err != nil {
		t.Errorf("reload without file should be a no-op, got %v", err)
	}
}

func TestWeightsSource_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	if err := os.WriteFile(path, []byte("earliest_weight: 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws, err := NewWeightsSource(path, testLogger())
	if err != nil {
		t.Fatalf("NewWeightsSource: %v", err)
	}
	if ws.Current().EarliestWeight != 15 {
		t.Fatalf("expected 15, got %f", ws.Current().EarliestWeight)
	}

	if err := os.WriteFile(path, []byte("earliest_weight: 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if ws.Current().EarliestWeight != 25 {
		t.Errorf("expected 25 after reload, got %f", ws.Current().EarliestWeight)
	}

	// A broken file keeps the last good weights.
	if err := os.WriteFile(path, []byte("earliest_weight: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if ws.Current().EarliestWeight != 25 {
		t.Errorf("expected previous weights kept, got %f", ws.Current().EarliestWeight)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
