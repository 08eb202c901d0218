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

	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster announces new leads in a Slack channel.
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

// PostLead posts a summary of a submission that left contact details.
// Returns the message timestamp.
func (p *Poster) PostLead(ctx context.Context, sessionID string, res diagnosis.Result) (string, error) {
	text := formatLeadMessage(sessionID, res)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted lead to slack", "ts", slackResp.TS, "session_id", sessionID)
	return slackResp.TS, nil
}

func formatLeadMessage(sessionID string, res diagnosis.Result) string {
	var sb strings.Builder

	company := res.Company
	if company == "" {
		company = "_not provided_"
	}
	email := res.Email
	if email == "" {
		email = "_not provided_"
	}

	fmt.Fprintf(&sb, "*New diagnosis lead*\n")
	fmt.Fprintf(&sb, "*Company:* %s\n*Email:* %s\n", company, email)
	fmt.Fprintf(&sb, "*Result:* %s / %s (overall %.2f)\n", res.Archetype, res.Signal.Label(), res.Overall)

	weakest := res.Weakest(2)
	labels := make([]string, 0, len(weakest))
	for _, cs := range weakest {
		labels = append(labels, fmt.Sprintf("%s %.2f", cs.Label, cs.Mean))
	}
	fmt.Fprintf(&sb, "*Weakest:* %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&sb, "_Session %s_", sessionID)

	return sb.String()
}
