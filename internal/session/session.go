package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parley/internal/ledger"
	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/summary"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

var (
	ErrNotActive     = errors.New("no active session")
	ErrAlreadyActive = errors.New("session already active")
	// ErrHalted is returned for speech arriving after the speech source
	// reported a recognition failure. The session can still be stopped.
	ErrHalted = errors.New("speech recognition failed, session no longer credits speech")
)

// State is the lifecycle state of a measurement session.
type State string

const (
	Idle    State = "idle"
	Active  State = "active"
	Stopped State = "stopped"
)

// Config holds everything a session reads once at start.
type Config struct {
	Weights   resolver.Weights
	Pattern   *profile.Pattern // optional registered pattern
	SampleCap int
	Now       func() time.Time
}

// Session is one measurement: it owns the accumulator, resolver and ledger
// and is not safe for concurrent use. Feed it from a single loop.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	StoppedAt time.Time

	cfg    Config
	logger *slog.Logger
	state  State
	halted bool

	acc *profile.Accumulator
	res *resolver.Resolver
	led *ledger.Ledger
}

// Outcome describes what happened to one credited utterance.
type Outcome struct {
	Utterance  utterance.Utterance
	IsManager  bool
	Resolution resolver.Resolution
	Split      ledger.Split
}

// Live is the running view shown while a session is active.
type Live struct {
	SessionID  uuid.UUID           `json:"session_id"`
	State      State               `json:"state"`
	StartedAt  time.Time           `json:"started_at"`
	ElapsedMs  int64               `json:"elapsed_ms"`
	Split      ledger.Split        `json:"split"`
	Resolution resolver.Resolution `json:"resolution"`
	Utterances int                 `json:"utterances"`
	Speakers   int                 `json:"speakers"`
	Halted     bool                `json:"halted,omitempty"`
}

// SpeakerStat is the per-speaker line of a finished session.
type SpeakerStat struct {
	Tag             string  `json:"tag"`
	Utterances      int     `json:"utterances"`
	TotalDurationMs float64 `json:"total_duration_ms"`
	IsManager       bool    `json:"is_manager"`
}

// Result is a finished session's summary plus identifying metadata.
type Result struct {
	SessionID  uuid.UUID           `json:"session_id"`
	StartedAt  time.Time           `json:"started_at"`
	StoppedAt  time.Time           `json:"stopped_at"`
	Resolution resolver.Resolution `json:"resolution"`
	Speakers   []SpeakerStat       `json:"speakers"`
	Summary    summary.Summary     `json:"summary"`
}

// New creates an idle session.
func New(cfg Config, logger *slog.Logger) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:    cfg,
		logger: logger,
		state:  Idle,
		acc:    profile.NewAccumulator(cfg.SampleCap),
		res:    resolver.New(cfg.Weights, cfg.Pattern, logger),
		led:    ledger.New(),
	}
}

// Start resets all session-scoped state and begins accepting utterances.
func (s *Session) Start() {
	s.acc.Reset()
	s.res.Reset()
	s.led.Reset()
	s.ID = uuid.New()
	s.StartedAt = s.cfg.Now().UTC()
	s.StoppedAt = time.Time{}
	s.halted = false
	s.state = Active
	s.logger.Info("session started", "session_id", s.ID, "registered_pattern", s.cfg.Pattern != nil)
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Handle normalizes a raw event and credits it. Interim, unrecognized and
// malformed events are reported through the utterance package errors and
// never credited. A canceled result freezes the ledger at its last value;
// later events return ErrHalted. Events after Stop return ErrNotActive.
func (s *Session) Handle(evt utterance.Event) (Outcome, error) {
	if s.state != Active {
		return Outcome{}, ErrNotActive
	}
	if s.halted {
		return Outcome{}, ErrHalted
	}

	u, err := utterance.Normalize(evt, s.cfg.Now())
	if err != nil {
		switch {
		case errors.Is(err, utterance.ErrInterim):
			s.logger.Debug("interim result", "session_id", s.ID, "speaker_tag", evt.SpeakerTag, "text", evt.Text)
		case errors.Is(err, utterance.ErrCanceled):
			s.halt()
		case errors.Is(err, utterance.ErrNotRecognized):
			s.logger.Debug("unrecognized result", "session_id", s.ID, "reason", evt.Reason)
		default:
			s.logger.Warn("dropping speech event", "session_id", s.ID, "error", err)
		}
		return Outcome{}, err
	}
	return s.credit(u), nil
}

// HandleUtterance credits an already normalized utterance.
func (s *Session) HandleUtterance(u utterance.Utterance) (Outcome, error) {
	if s.state != Active {
		return Outcome{}, ErrNotActive
	}
	if s.halted {
		return Outcome{}, ErrHalted
	}
	return s.credit(u), nil
}

func (s *Session) halt() {
	s.halted = true
	s.led.Freeze()
	split := s.led.Snapshot()
	s.logger.Info("crediting stopped",
		"session_id", s.ID,
		"manager_ms", split.ManagerMs,
		"member_ms", split.MemberMs,
	)
}

// Halted reports whether a recognition failure stopped crediting.
func (s *Session) Halted() bool {
	return s.halted
}

func (s *Session) credit(u utterance.Utterance) Outcome {
	s.acc.Record(u)
	res := s.res.Evaluate(s.acc.Snapshot())
	isManager := s.res.IsManager(u.SpeakerTag)
	s.led.Credit(u, isManager)

	s.logger.Debug("utterance credited",
		"session_id", s.ID,
		"speaker_tag", u.SpeakerTag,
		"duration_ms", u.DurationMs,
		"manager", isManager,
		"state", string(res.State),
	)

	return Outcome{
		Utterance:  u,
		IsManager:  isManager,
		Resolution: res,
		Split:      s.led.Snapshot(),
	}
}

// Live returns the running view.
func (s *Session) Live() Live {
	live := Live{
		SessionID:  s.ID,
		State:      s.state,
		StartedAt:  s.StartedAt,
		Split:      s.led.Snapshot(),
		Resolution: s.res.Resolution(),
		Utterances: s.acc.TotalUtterances(),
		Speakers:   s.acc.Speakers(),
		Halted:     s.halted,
	}
	switch s.state {
	case Active:
		live.ElapsedMs = s.cfg.Now().Sub(s.StartedAt).Milliseconds()
	case Stopped:
		live.ElapsedMs = s.StoppedAt.Sub(s.StartedAt).Milliseconds()
	}
	return live
}

// Candidates exposes the resolver's last score breakdown.
func (s *Session) Candidates() []resolver.Candidate {
	return s.res.Candidates()
}

// Stop freezes the ledger and summarizes. It returns summary.ErrNoSpeechDetected
// when nothing was credited; the session is stopped either way.
func (s *Session) Stop() (Result, error) {
	if s.state != Active {
		return Result{}, ErrNotActive
	}
	s.state = Stopped
	s.led.Freeze()
	s.StoppedAt = s.cfg.Now().UTC()

	split := s.led.Snapshot()
	sum, err := summary.Summarize(split.ManagerMs, split.MemberMs)
	if err != nil {
		s.logger.Info("session stopped without speech", "session_id", s.ID)
		return Result{}, fmt.Errorf("session %s: %w", s.ID, err)
	}

	res := s.res.Resolution()
	snap := s.acc.Snapshot()
	speakers := make([]SpeakerStat, 0, len(snap.Profiles))
	for _, p := range snap.Profiles {
		speakers = append(speakers, SpeakerStat{
			Tag:             p.Tag,
			Utterances:      p.UtteranceCount,
			TotalDurationMs: p.TotalDurationMs,
			IsManager:       res.State != resolver.Undetermined && p.Tag == res.ManagerTag,
		})
	}

	s.logger.Info("session stopped",
		"session_id", s.ID,
		"manager_ratio", sum.ManagerRatio,
		"category", string(sum.Category),
		"resolution", string(res.State),
	)

	return Result{
		SessionID:  s.ID,
		StartedAt:  s.StartedAt,
		StoppedAt:  s.StoppedAt,
		Resolution: res,
		Speakers:   speakers,
		Summary:    sum,
	}, nil
}

// Reset discards all session-scoped state and returns to Idle. The
// registered pattern is kept.
func (s *Session) Reset() {
	s.acc.Reset()
	s.res.Reset()
	s.led.Reset()
	s.halted = false
	s.state = Idle
}
