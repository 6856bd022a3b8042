// Package agentlink maintains the realtime link to the agent backend.
package agentlink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"pkt.systems/pslog"
	"pkt.systems/sayam/schema"
)

// Handler consumes inbound traffic and link state changes. The core
// session controller satisfies this interface.
type Handler interface {
	HandleRaw(ctx context.Context, data []byte)
	HandleConnection(ctx context.Context, connected bool)
}

// Client dials the backend and keeps the link up with a fixed-interval
// reconnect loop. Sends while the link is down are dropped, not queued;
// the backend treats every connection as a fresh session.
type Client struct {
	cfg     schema.SessionConfig
	handler Handler
	logger  pslog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
}

// New constructs a client. Run must be called to bring the link up. The
// handler is bound at Run time so the session controller can hold the
// client as its sender before the link exists.
func New(cfg schema.SessionConfig, logger pslog.Logger) (*Client, error) {
	normalized, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Client{cfg: normalized, logger: logger}, nil
}

// Run dials and reads until ctx is canceled. Each drop schedules the next
// attempt after the fixed reconnect interval; the interval is deliberately
// not exponential, it paces the offline badge against a local backend.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	c.handler = handler
	for {
		if c.connect(ctx) {
			c.readLoop(ctx)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

// connect dials unless a dial is already in flight or the link is up.
// The guard makes overlapping reconnect triggers idempotent.
func (c *Client) connect(ctx context.Context) bool {
	c.mu.Lock()
	if c.conn != nil || c.connecting {
		c.mu.Unlock()
		return false
	}
	c.connecting = true
	c.mu.Unlock()

	conn, _, err := websocket.Dial(ctx, c.cfg.BackendURL, nil)

	c.mu.Lock()
	c.connecting = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("agentlink dial failed", "url", c.cfg.BackendURL, "err", err)
		return false
	}
	// Incoming events can exceed the 32 KiB default when study material
	// carries scraped page content.
	conn.SetReadLimit(4 << 20)
	c.conn = conn
	c.mu.Unlock()

	c.logger.Info("agentlink connected", "url", c.cfg.BackendURL)
	if c.handler != nil {
		c.handler.HandleConnection(ctx, true)
	}
	return true
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Debug("agentlink closed by backend")
			} else {
				c.logger.Warn("agentlink read error", "err", err)
			}
			break
		}
		if c.handler != nil {
			c.handler.HandleRaw(ctx, data)
		}
	}
	c.teardown(ctx)
}

// teardown drops the connection exactly once per link; the reconnect loop
// in Run owns scheduling the next attempt.
func (c *Client) teardown(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "link reset")
	if c.handler != nil {
		c.handler.HandleConnection(ctx, false)
	}
}

// Send marshals and writes one message. A send while the link is down is
// silently dropped.
func (c *Client) Send(ctx context.Context, msg schema.ClientMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.logger.Debug("agentlink send dropped, link down", "msg_type", msg.Type)
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Close shuts the link down. Run keeps retrying until its ctx is canceled,
// so Close is for teardown paths that cancel the ctx alongside.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "shutdown")
}
