package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
)

const eventBuffer = 64

// frame is the wire shape in both directions
type frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// WebSocketTransport dials the backend socket endpoint and redials with
// exponential backoff until the connection is closed.
type WebSocketTransport struct {
	url            string
	origin         string
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *log.Logger
}

// TransportOption configures a WebSocketTransport
type TransportOption func(*WebSocketTransport)

// WithOrigin overrides the Origin header sent during the handshake
func WithOrigin(origin string) TransportOption {
	return func(t *WebSocketTransport) {
		t.origin = origin
	}
}

// WithBackoff sets the reconnect delay bounds
func WithBackoff(initial, max time.Duration) TransportOption {
	return func(t *WebSocketTransport) {
		t.initialBackoff = initial
		t.maxBackoff = max
	}
}

// WithTransportLogger sets the transport logger
func WithTransportLogger(l *log.Logger) TransportOption {
	return func(t *WebSocketTransport) {
		t.logger = l
	}
}

// NewWebSocketTransport creates a transport for a ws:// or wss:// URL
func NewWebSocketTransport(socketURL string, opts ...TransportOption) *WebSocketTransport {
	t := &WebSocketTransport{
		url:            socketURL,
		origin:         originFor(socketURL),
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = log.OrDiscard(t.logger).With("component", "websocket")
	return t
}

func originFor(socketURL string) string {
	u, err := url.Parse(socketURL)
	if err != nil || u.Host == "" {
		return "http://localhost"
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// Connect returns immediately; dialing happens in the background and is
// reported through KindConnect. Only a malformed URL fails here.
func (t *WebSocketTransport) Connect(ctx context.Context, token string) (Conn, error) {
	cfg, err := t.dialConfig(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &wsConn{
		cfg:    cfg,
		events: make(chan Event, eventBuffer),
		cancel: cancel,
		logger: t.logger,
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialBackoff
	b.MaxInterval = t.maxBackoff

	go c.loop(ctx, b)
	return c, nil
}

// Probe dials the socket once and hangs up. It reports whether the
// endpoint accepts a handshake for token.
func (t *WebSocketTransport) Probe(ctx context.Context, token string) error {
	cfg, err := t.dialConfig(token)
	if err != nil {
		return err
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeChannelDial, "socket handshake failed", err)
	}
	return ws.Close()
}

func (t *WebSocketTransport) dialConfig(token string) (*websocket.Config, error) {
	u, err := url.Parse(t.url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeChannelDial, "invalid socket URL", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, errors.New(errors.ErrCodeChannelDial, "socket URL must use ws or wss: "+t.url)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	cfg, err := websocket.NewConfig(u.String(), t.origin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeChannelDial, "invalid socket URL", err)
	}
	cfg.Header.Set("Authorization", "Bearer "+token)
	return cfg, nil
}

type wsConn struct {
	cfg    *websocket.Config
	events chan Event
	cancel context.CancelFunc
	logger *log.Logger

	mu sync.Mutex
	ws *websocket.Conn

	closeOnce sync.Once
}

func (c *wsConn) Events() <-chan Event {
	return c.events
}

func (c *wsConn) Emit(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeChannelFrame, "failed to encode "+name+" payload", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return errors.New(errors.ErrCodeChannelClosed, "channel is not connected")
	}
	if err := websocket.JSON.Send(c.ws, frame{Type: name, RequestID: uuid.NewString(), Payload: data}); err != nil {
		return errors.Wrap(errors.ErrCodeChannelClosed, "failed to send "+name, err)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		if c.ws != nil {
			_ = c.ws.Close()
		}
		c.mu.Unlock()
	})
	return nil
}

func (c *wsConn) loop(ctx context.Context, b *backoff.ExponentialBackOff) {
	defer close(c.events)

	for {
		ws, err := c.cfg.DialContext(ctx)
		if err == nil && c.attach(ctx, ws) {
			b.Reset()
			c.send(ctx, Event{Kind: KindConnect})
			c.read(ws)
			c.detach()
			if ctx.Err() != nil {
				return
			}
			c.send(ctx, Event{Kind: KindDisconnect})
		} else if err != nil {
			c.logger.Debug("dial failed", "error", err)
		}

		if ctx.Err() != nil {
			return
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			wait = b.MaxInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// attach publishes ws for Emit unless the connection was closed while
// dialing.
func (c *wsConn) attach(ctx context.Context, ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		_ = ws.Close()
		return false
	}
	c.ws = ws
	return true
}

func (c *wsConn) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
}

func (c *wsConn) read(ws *websocket.Conn) {
	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			c.logger.Debug("read ended", "error", err)
			return
		}

		var f frame
		if err := json.Unmarshal([]byte(raw), &f); err != nil || strings.TrimSpace(f.Type) == "" {
			c.logger.Warn("ignoring malformed frame")
			continue
		}
		c.events <- Event{Kind: Kind(f.Type), Payload: f.Payload}
	}
}

func (c *wsConn) send(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
