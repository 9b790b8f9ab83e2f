package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

// SessionChecker reports whether a usable session is stored.
type SessionChecker struct {
	sessions session.Provider
}

func NewSessionChecker(sessions session.Provider) *SessionChecker {
	return &SessionChecker{sessions: sessions}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(ctx context.Context) *Result {
	s, ok := c.sessions.Load()
	if !ok {
		return Degraded("not logged in").
			WithDetail("hint", "run 'hirelink auth login'")
	}

	r := Healthy(fmt.Sprintf("signed in as %s (%s)", s.User.Name, s.User.Role)).
		WithDetail("user_id", s.User.ID)
	if exp, ok := session.TokenExpiry(s.Token); ok {
		r.WithDetail("expires_at", exp.UTC().Format(time.RFC3339))
	}
	return r
}

// APIChecker calls the identity endpoint of the REST backend. Any HTTP
// response proves the backend is reachable; a rejected token on a stored
// session is reported as degraded.
type APIChecker struct {
	client   *api.Client
	sessions session.Provider
}

func NewAPIChecker(client *api.Client, sessions session.Provider) *APIChecker {
	return &APIChecker{client: client, sessions: sessions}
}

func (c *APIChecker) Name() string { return "api" }

func (c *APIChecker) Check(ctx context.Context) *Result {
	start := time.Now()
	res := api.Do[json.RawMessage](ctx, c.client, api.Request{Path: "/auth/me"})
	latency := time.Since(start)

	if res.Status == 0 {
		return Unhealthy(res.Error).
			WithDetail("url", c.client.BaseURL()).
			WithLatency(latency)
	}

	_, signedIn := c.sessions.Load()
	if res.Status == http.StatusUnauthorized && signedIn {
		return Degraded("backend rejected the stored session").
			WithDetail("url", c.client.BaseURL()).
			WithDetail("hint", "run 'hirelink auth login' again").
			WithLatency(latency)
	}
	return Healthy("backend reachable").
		WithDetail("url", c.client.BaseURL()).
		WithDetail("status", res.Status).
		WithLatency(latency)
}

// Prober performs a single push channel handshake
type Prober interface {
	Probe(ctx context.Context, token string) error
}

// SocketChecker handshakes with the push channel using the stored token.
type SocketChecker struct {
	prober   Prober
	sessions session.Provider
	url      string
}

func NewSocketChecker(prober Prober, sessions session.Provider, socketURL string) *SocketChecker {
	return &SocketChecker{prober: prober, sessions: sessions, url: socketURL}
}

func (c *SocketChecker) Name() string { return "socket" }

func (c *SocketChecker) Check(ctx context.Context) *Result {
	s, ok := c.sessions.Load()
	if !ok {
		// The channel only opens for a signed-in user.
		return Degraded("skipped without a session").WithDetail("url", c.url)
	}
	if err := c.prober.Probe(ctx, s.Token); err != nil {
		return Unhealthy(err.Error()).WithDetail("url", c.url)
	}
	return Healthy("push channel accepted the handshake").WithDetail("url", c.url)
}
