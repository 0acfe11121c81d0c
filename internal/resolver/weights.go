package resolver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights parameterizes the scoring signals and the confirmation rule.
// Zeroing RegisteredWeight, DominanceWeight and VerbosityWeight leaves only
// the earliest-speaker signal, which reduces to first-speaker-wins once
// ConfirmThreshold is below EarliestWeight.
type Weights struct {
	RegisteredWeight    float64 `yaml:"registered_weight"`
	DominanceWeight     float64 `yaml:"dominance_weight"`
	EarliestWeight      float64 `yaml:"earliest_weight"`
	VerbosityWeight     float64 `yaml:"verbosity_weight"`
	DominanceShare      float64 `yaml:"dominance_share"`
	VerbosityChars      float64 `yaml:"verbosity_chars"`
	DurationToleranceMs float64 `yaml:"duration_tolerance_ms"`
	ConfirmThreshold    float64 `yaml:"confirm_threshold"`
	MinUtterances       int     `yaml:"min_utterances"`
}

// DefaultWeights returns the standard 40/30/10/20 weighting.
func DefaultWeights() Weights {
	return Weights{
		RegisteredWeight:    40,
		DominanceWeight:     30,
		EarliestWeight:      10,
		VerbosityWeight:     20,
		DominanceShare:      0.4,
		VerbosityChars:      20,
		DurationToleranceMs: 3000,
		ConfirmThreshold:    30,
		MinUtterances:       3,
	}
}

// MaxScore is the highest score a candidate can reach.
func (w Weights) MaxScore(withPattern bool) float64 {
	total := w.DominanceWeight + w.EarliestWeight + w.VerbosityWeight
	if withPattern {
		total += w.RegisteredWeight
	}
	return total
}

// Validate rejects weights that would make scoring meaningless.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"registered_weight": w.RegisteredWeight,
		"dominance_weight":  w.DominanceWeight,
		"earliest_weight":   w.EarliestWeight,
		"verbosity_weight":  w.VerbosityWeight,
		"verbosity_chars":   w.VerbosityChars,
		"confirm_threshold": w.ConfirmThreshold,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", name, v)
		}
	}
	if w.DominanceShare < 0 || w.DominanceShare > 1 {
		return fmt.Errorf("dominance_share must be within [0,1], got %v", w.DominanceShare)
	}
	if w.DurationToleranceMs <= 0 {
		return fmt.Errorf("duration_tolerance_ms must be > 0, got %v", w.DurationToleranceMs)
	}
	if w.MinUtterances < 0 {
		return fmt.Errorf("min_utterances must be >= 0, got %d", w.MinUtterances)
	}
	return nil
}

// LoadWeights reads a YAML weights file. Keys missing from the file keep
// their default values.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("parse weights %q: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return DefaultWeights(), fmt.Errorf("invalid weights %q: %w", path, err)
	}
	return w, nil
}
