package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by shindan.
const (
	SubjectDiagnosisCompleted = "shindan.diagnosis.completed"
	SubjectResponseLogged     = "shindan.response.logged"
)

// DiagnosisCompleted is published after every successful submission.
type DiagnosisCompleted struct {
	SessionID string             `json:"session_id"`
	Signal    string             `json:"signal"`
	Archetype string             `json:"archetype"`
	Overall   float64            `json:"overall"`
	Means     map[string]float64 `json:"means"`
	HasLead   bool               `json:"has_lead"`
	Timestamp string             `json:"timestamp"`
}

// ResponseLogged is published after a log row reaches a store.
type ResponseLogged struct {
	SessionID string `json:"session_id"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("shindan"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
	}
}
