// Package replay runs recorded speech events through a session or a
// registration without the event bus.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/profile"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/utterance"
)

// ParseFile reads one JSON speech event per line. Blank and malformed lines are skipped.
func ParseFile(path string) ([]utterance.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) ([]utterance.Event, error) {
	var events []utterance.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var evt utterance.Event
		if err := json.Unmarshal(line, &evt); err != nil {
			continue // skip malformed lines
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return events, nil
}

// Measure runs events through a fresh session and returns its result.
func Measure(events []utterance.Event, cfg session.Config, logger *slog.Logger) (session.Result, error) {
	s := session.New(cfg, logger)
	s.Start()
	dropped := 0
	for _, evt := range events {
		if _, err := s.Handle(evt); err != nil {
			if !session.IsDropped(err) {
				return session.Result{}, err
			}
			dropped++
		}
	}
	if dropped > 0 && logger != nil {
		logger.Info("replay skipped events", "dropped", dropped, "total", len(events))
	}
	return s.Stop()
}

// Register builds a pattern from events. Recorded input is never cut off by
// the registration window.
func Register(events []utterance.Event, sampleCap int, now func() time.Time) (profile.Pattern, error) {
	if now == nil {
		now = time.Now
	}
	reg := session.NewRegistration(0, sampleCap, now)
	for _, evt := range events {
		if err := reg.Handle(evt); err != nil && !session.IsDropped(err) {
			return profile.Pattern{}, err
		}
	}
	return reg.Complete()
}
