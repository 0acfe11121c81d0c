package hermes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects consumed and produced by parley.
const (
	SubjectUtterance             = "swarm.speech.utterance"
	SubjectLedgerUpdated         = "swarm.parley.ledger.updated"
	SubjectSessionTick           = "swarm.parley.session.tick"
	SubjectSessionSummary        = "swarm.parley.session.summary"
	SubjectRegistrationCompleted = "swarm.parley.registration.completed"
)

const (
	clientName = "parley"

	// A recognizer emits at most a few final results per second; the limit
	// only has to absorb a stalled processor lock during a session stop.
	pendingMsgLimit   = 4096
	pendingBytesLimit = 8 << 20

	drainTimeout = 5 * time.Second
)

// Handler receives the subject and raw JSON body of one message.
type Handler func(subject string, data []byte)

// Client is the NATS connection parley uses to consume speech events and
// publish ledger updates, ticks and summaries.
type Client struct {
	conn   *nats.Conn
	closed chan struct{}
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	c := &Client{closed: make(chan struct{}), logger: logger}

	opts := []nats.Option{
		nats.Name(clientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DrainTimeout(drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if errors.Is(err, nats.ErrSlowConsumer) && sub != nil {
				dropped, _ := sub.Dropped()
				logger.Error("speech events dropped, consumer too slow", "subject", sub.Subject, "dropped", dropped)
				return
			}
			logger.Error("nats async error", "error", err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(c.closed)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	c.conn = nc
	return c, nil
}

// Publish marshals data as JSON and publishes it on subject.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers every message on subject to handler, one at a time in
// arrival order. Speech events must be credited in order, so no queue group
// is used.
func (c *Client) Subscribe(subject string, handler Handler) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	if err := sub.SetPendingLimits(pendingMsgLimit, pendingBytesLimit); err != nil {
		return fmt.Errorf("pending limits %s: %w", subject, err)
	}
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// Flush waits until the server has processed everything published so far.
func (c *Client) Flush(ctx context.Context) error {
	return c.conn.FlushWithContext(ctx)
}

// Close drains the subscriptions so speech events already received are
// still handled, flushes pending publishes, then closes the connection.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
		return
	}
	select {
	case <-c.closed:
	case <-time.After(drainTimeout + time.Second):
		c.logger.Warn("nats drain timed out")
		c.conn.Close()
	}
}
