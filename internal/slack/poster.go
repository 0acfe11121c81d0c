package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/parley/internal/resolver"
	"github.com/MikeSquared-Agency/parley/internal/session"
	"github.com/MikeSquared-Agency/parley/internal/summary"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostSummary posts a finished session's speaking-time split to the summary channel.
func (p *Poster) PostSummary(ctx context.Context, r session.Result) error {
	text := formatSummaryMessage(r)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Session " + r.SessionID.String(),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted summary to slack", "ts", slackResp.TS, "session_id", r.SessionID)
	return nil
}

func formatSummaryMessage(r session.Result) string {
	var sb strings.Builder
	s := r.Summary

	fmt.Fprintf(&sb, "*1-on-1 speaking time* (%s total)\n", summary.FormatDuration(s.TotalMs))
	fmt.Fprintf(&sb, "Manager: %.0f%% (%s)\n", s.ManagerRatio, summary.FormatDuration(s.ManagerMs))
	fmt.Fprintf(&sb, "Member: %.0f%% (%s)\n\n", s.MemberRatio, summary.FormatDuration(s.MemberMs))
	fmt.Fprintf(&sb, "*%s*\n", categoryLabel(s.Category))
	sb.WriteString(s.Advice)

	switch r.Resolution.State {
	case resolver.Undetermined:
		sb.WriteString("\n_The manager could not be identified; all time was counted for the member._")
	case resolver.Provisional:
		sb.WriteString("\n_Only one speaker was heard; the split is provisional._")
	}
	return sb.String()
}

func categoryLabel(c summary.Category) string {
	switch c {
	case summary.ManagerDominant:
		return "Manager dominant"
	case summary.MemberDominant:
		return "Member dominant"
	default:
		return "Balanced"
	}
}
