package summary

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoSpeechDetected is returned when nothing was credited. No partial
// summary is produced; the caller prompts for a retry.
var ErrNoSpeechDetected = errors.New("no speech detected")

// Category is the advisory bucket for a session.
type Category string

const (
	ManagerDominant Category = "manager_dominant"
	MemberDominant  Category = "member_dominant"
	Balanced        Category = "balanced"
)

const (
	managerDominantAbove = 60.0
	memberDominantBelow  = 30.0
)

// Summary is the post-session split of speaking time.
type Summary struct {
	TotalMs      float64  `json:"total_ms"`
	ManagerMs    float64  `json:"manager_ms"`
	MemberMs     float64  `json:"member_ms"`
	ManagerRatio float64  `json:"manager_ratio"`
	MemberRatio  float64  `json:"member_ratio"`
	Category     Category `json:"advisory_category"`
	Advice       string   `json:"advice"`
}

// Summarize computes ratios and the advisory category.
func Summarize(managerMs, memberMs float64) (Summary, error) {
	total := managerMs + memberMs
	if total <= 0 {
		return Summary{}, ErrNoSpeechDetected
	}

	managerRatio := managerMs / total * 100
	memberRatio := memberMs / total * 100
	category := Classify(managerRatio)

	return Summary{
		TotalMs:      total,
		ManagerMs:    managerMs,
		MemberMs:     memberMs,
		ManagerRatio: managerRatio,
		MemberRatio:  memberRatio,
		Category:     category,
		Advice:       Advice(category),
	}, nil
}

// Classify buckets the manager's share of speaking time (percent).
func Classify(managerRatio float64) Category {
	switch {
	case managerRatio > managerDominantAbove:
		return ManagerDominant
	case managerRatio < memberDominantBelow:
		return MemberDominant
	default:
		return Balanced
	}
}

// Advice returns the coaching line shown for a category.
func Advice(c Category) string {
	switch c {
	case ManagerDominant:
		return "The manager spoke for most of the session. Spending more time listening to the member makes the 1-on-1 more effective."
	case MemberDominant:
		return "The member did most of the talking, which shows good listening. Add feedback and guidance from the manager where it helps."
	default:
		return "Great balance. Manager and member are in a healthy dialogue; keep it up."
	}
}

// FormatDuration renders milliseconds as whole seconds, e.g. "42s".
func FormatDuration(ms float64) string {
	return fmt.Sprintf("%ds", int64(math.Round(ms/1000)))
}
