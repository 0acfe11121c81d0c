package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parley/internal/hermes"
	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/store"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

// Store persists the registered pattern and finished-session summaries.
// Both store.Store and store.Local satisfy it.
type Store interface {
	GetPattern(ctx context.Context) (*profile.Pattern, error)
	SavePattern(ctx context.Context, p profile.Pattern) error
	ClearPattern(ctx context.Context) error
	WriteSummary(ctx context.Context, r session.Result) (uuid.UUID, error)
	RecentSummaries(ctx context.Context, limit int) ([]session.Result, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}

type SummaryPoster interface {
	PostSummary(ctx context.Context, r session.Result) error
}

type WeightsProvider interface {
	Current() resolver.Weights
}

// Mode is what the processor is currently doing.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeMeasuring   Mode = "measuring"
	ModeRegistering Mode = "registering"
)

type Options struct {
	SampleCap          int
	RegistrationWindow time.Duration
	TickInterval       time.Duration
	Now                func() time.Time
}

// RegistrationStatus is the view of the registration tab.
type RegistrationStatus struct {
	Active      bool             `json:"active"`
	RemainingMs int64            `json:"remaining_ms,omitempty"`
	Utterances  int              `json:"utterances,omitempty"`
	Pattern     *profile.Pattern `json:"pattern,omitempty"`
}

// Processor routes speech events into the active session or registration
// and fans out results. All state changes happen under mu.
type Processor struct {
	store   Store
	pub     Publisher
	poster  SummaryPoster
	weights WeightsProvider
	opts    Options
	logger  *slog.Logger

	mu           sync.Mutex
	session      *session.Session
	registration *session.Registration
}

// New creates a processor. pub, poster and weights may be nil.
func New(st Store, pub Publisher, poster SummaryPoster, weights WeightsProvider, opts Options, logger *slog.Logger) *Processor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:   st,
		pub:     pub,
		poster:  poster,
		weights: weights,
		opts:    opts,
		logger:  logger,
	}
}

// Status reports whether a session or registration is running.
func (p *Processor) Status() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modeLocked()
}

func (p *Processor) modeLocked() Mode {
	switch {
	case p.registration != nil:
		return ModeRegistering
	case p.session != nil && p.session.State() == session.Active:
		return ModeMeasuring
	default:
		return ModeIdle
	}
}

// StartSession begins a measurement using the registered pattern, if any.
func (p *Processor) StartSession(ctx context.Context) (session.Live, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.modeLocked() != ModeIdle {
		return session.Live{}, session.ErrAlreadyActive
	}

	pattern, err := p.store.GetPattern(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNoPattern) {
			p.logger.Warn("failed to load registered pattern, continuing without it", "error", err)
		}
		pattern = nil
	}

	weights := resolver.DefaultWeights()
	if p.weights != nil {
		weights = p.weights.Current()
	}

	p.session = session.New(session.Config{
		Weights:   weights,
		Pattern:   pattern,
		SampleCap: p.opts.SampleCap,
		Now:       p.opts.Now,
	}, p.logger)
	p.session.Start()
	return p.session.Live(), nil
}

// StopSession ends the measurement and fans out the summary. When nothing was
// said the session is reset and summary.ErrNoSpeechDetected is returned.
func (p *Processor) StopSession(ctx context.Context) (session.Result, error) {
	p.mu.Lock()
	if p.session == nil || p.session.State() != session.Active {
		p.mu.Unlock()
		return session.Result{}, session.ErrNotActive
	}
	result, err := p.session.Stop()
	if err != nil {
		p.session.Reset()
		p.session = nil
		p.mu.Unlock()
		return session.Result{}, err
	}
	p.mu.Unlock()

	p.publish(hermes.SubjectSessionSummary, result)

	if _, err := p.store.WriteSummary(ctx, result); err != nil {
		p.logger.Error("failed to store session summary", "session_id", result.SessionID, "error", err)
	}
	if p.poster != nil {
		if err := p.poster.PostSummary(ctx, result); err != nil {
			p.logger.Error("slack post failed", "session_id", result.SessionID, "error", err)
		}
	}
	return result, nil
}

// Live returns the running view of the current or most recently stopped session.
func (p *Processor) Live() (session.Live, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return session.Live{}, session.ErrNotActive
	}
	return p.session.Live(), nil
}

// Candidates returns the last score breakdown of the current session.
func (p *Processor) Candidates() []resolver.Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	return p.session.Candidates()
}

// HandleUtterance is the NATS handler for swarm.speech.utterance.
func (p *Processor) HandleUtterance(subject string, data []byte) {
	var evt utterance.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Warn("failed to parse speech event", "subject", subject, "error", err)
		return
	}
	if err := p.Ingest(evt); err != nil && !session.IsDropped(err) {
		p.logger.Error("failed to handle speech event", "subject", subject, "error", err)
	}
}

// Ingest routes one speech event to the registration or the active session.
// Events arriving while idle return session.ErrNotActive. A canceled
// recognition leaves the ledger at its last value and nothing is published.
func (p *Processor) Ingest(evt utterance.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.registration != nil {
		err := p.registration.Handle(evt)
		if errors.Is(err, utterance.ErrCanceled) {
			p.logger.Warn("speech recognition canceled during registration", "reason", evt.Reason)
		}
		return err
	}
	if p.session == nil || p.session.State() != session.Active {
		p.logger.Debug("speech event while idle", "speaker_tag", evt.SpeakerTag)
		return session.ErrNotActive
	}

	out, err := p.session.Handle(evt)
	if err != nil {
		if errors.Is(err, utterance.ErrCanceled) {
			p.logger.Warn("speech recognition canceled",
				"session_id", p.session.ID,
				"reason", evt.Reason,
				"text", evt.Text,
			)
		}
		return err
	}
	p.publish(hermes.SubjectLedgerUpdated, LedgerUpdated{
		SessionID:  p.session.ID,
		SpeakerTag: out.Utterance.SpeakerTag,
		IsManager:  out.IsManager,
		ManagerMs:  out.Split.ManagerMs,
		MemberMs:   out.Split.MemberMs,
		State:      out.Resolution.State,
		ManagerTag: out.Resolution.ManagerTag,
	})
	return nil
}

// StartRegistration opens the registration window.
func (p *Processor) StartRegistration() (RegistrationStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.modeLocked() != ModeIdle {
		return RegistrationStatus{}, session.ErrAlreadyActive
	}
	p.registration = session.NewRegistration(p.opts.RegistrationWindow, p.opts.SampleCap, p.opts.Now)
	p.logger.Info("registration started", "deadline", p.registration.Deadline)
	return p.registrationStatusLocked(), nil
}

// StopRegistration completes the registration early and saves the pattern.
func (p *Processor) StopRegistration(ctx context.Context) (profile.Pattern, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completeRegistrationLocked(ctx)
}

func (p *Processor) completeRegistrationLocked(ctx context.Context) (profile.Pattern, error) {
	if p.registration == nil {
		return profile.Pattern{}, session.ErrNotActive
	}
	reg := p.registration
	p.registration = nil

	pat, err := reg.Complete()
	if err != nil {
		p.logger.Info("registration ended without speech")
		return profile.Pattern{}, err
	}
	if err := p.store.SavePattern(ctx, pat); err != nil {
		return profile.Pattern{}, err
	}

	p.logger.Info("registration completed",
		"speaker_tag", pat.SpeakerTag,
		"utterances", pat.SpeakerPattern.UtteranceCount,
		"average_duration_ms", pat.SpeakerPattern.AverageDurationMs,
	)
	p.publish(hermes.SubjectRegistrationCompleted, pat)
	return pat, nil
}

// Registration reports the registration window and the saved pattern.
func (p *Processor) Registration(ctx context.Context) (RegistrationStatus, error) {
	p.mu.Lock()
	status := p.registrationStatusLocked()
	p.mu.Unlock()

	pat, err := p.store.GetPattern(ctx)
	switch {
	case err == nil:
		status.Pattern = pat
	case !errors.Is(err, store.ErrNoPattern):
		return status, err
	}
	return status, nil
}

func (p *Processor) registrationStatusLocked() RegistrationStatus {
	if p.registration == nil {
		return RegistrationStatus{}
	}
	return RegistrationStatus{
		Active:      true,
		RemainingMs: p.registration.Remaining().Milliseconds(),
		Utterances:  p.registration.Utterances(),
	}
}

// ClearRegistration deletes the saved pattern.
func (p *Processor) ClearRegistration(ctx context.Context) error {
	if err := p.store.ClearPattern(ctx); err != nil {
		return err
	}
	p.logger.Info("registered pattern cleared")
	return nil
}

// RecentSummaries lists stored session summaries, newest first.
func (p *Processor) RecentSummaries(ctx context.Context, limit int) ([]session.Result, error) {
	return p.store.RecentSummaries(ctx, limit)
}

// Tick publishes the live split and auto-completes an expired registration.
func (p *Processor) Tick(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.registration != nil && p.registration.Expired() {
		if _, err := p.completeRegistrationLocked(ctx); err != nil {
			p.logger.Warn("registration auto-stop failed", "error", err)
		}
	}

	if p.session != nil && p.session.State() == session.Active {
		live := p.session.Live()
		p.publish(hermes.SubjectSessionTick, SessionTick{
			SessionID: live.SessionID,
			ElapsedMs: live.ElapsedMs,
			ManagerMs: live.Split.ManagerMs,
			MemberMs:  live.Split.MemberMs,
		})
	}
}

// Run ticks until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

func (p *Processor) publish(subject string, data any) {
	if p.pub == nil {
		return
	}
	if err := p.pub.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish", "subject", subject, "error", err)
	}
}
