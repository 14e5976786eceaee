// Package live maintains the WebSocket channel for server-pushed updates.
// The client only listens; every change it learns about is re-fetched over
// REST, so a dropped event at worst delays a refresh.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// EventType names a server-pushed notification.
type EventType string

const (
	// EventTaskUpdated signals that one task changed.
	EventTaskUpdated EventType = "task.updated"
	// EventProjectUpdated signals a project-level change (tasks added,
	// archived flag, membership).
	EventProjectUpdated EventType = "project.updated"
	// EventSnapshotStale tells clients to refetch everything.
	EventSnapshotStale EventType = "snapshot.stale"
)

// Event is one live notification.
type Event struct {
	Type      EventType `json:"event"`
	ProjectID string    `json:"projectId,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
}

// Config holds live-channel configuration.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "wss://pland.example.com/ws".
	URL string

	// Token authenticates the connection.
	Token string

	// ReconnectInterval is the initial delay between reconnection attempts.
	ReconnectInterval time.Duration

	// MaxReconnectInterval caps the exponential backoff.
	MaxReconnectInterval time.Duration
}

// Client is a persistent listener on the live channel. Run owns the
// connection and keeps reconnecting until the context is canceled or Close
// is called.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	events chan Event

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	stopCh chan struct{}
}

// NewClient creates a live-update client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = time.Second
	}
	if cfg.MaxReconnectInterval == 0 {
		cfg.MaxReconnectInterval = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With().Str("component", "live").Logger(),
		events: make(chan Event, 32),
		stopCh: make(chan struct{}),
	}
}

// Events returns the channel of incoming notifications. It is closed when
// Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Run connects and listens until ctx is canceled or Close is called,
// reconnecting with capped exponential backoff.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	delay := c.cfg.ReconnectInterval
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		if err := c.listen(ctx); err != nil {
			c.logger.Warn().Err(err).Dur("retryIn", delay).Msg("live channel dropped")
		}

		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.MaxReconnectInterval {
			delay = c.cfg.MaxReconnectInterval
		}
	}
}

// listen dials and reads until the connection fails.
func (c *Client) listen(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info().Str("url", c.cfg.URL).Msg("live channel connected")

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			c.logger.Warn().Err(err).Msg("live frame parse error")
			continue
		}
		if ev.Type == "" {
			continue
		}

		select {
		case c.events <- ev:
		default:
			// Slow consumer; the UI refetches on the next event anyway.
			c.logger.Debug().Str("event", string(ev.Type)).Msg("dropping live event")
		}
	}
}

// Close stops the client. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.stopCh)

	if conn != nil {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return conn.Close()
	}
	return nil
}
