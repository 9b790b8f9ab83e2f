// Package realtime keeps one authenticated push channel per process and
// fans inbound events out to subscribers.
package realtime

import (
	"context"
	"slices"
	"sync"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

// State is the manager's view of the channel
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Handler receives one event. Handlers run on the channel's reader
// goroutine and must not block for long.
type Handler func(Event)

// Manager owns at most one channel and re-joins the user's room on every
// connect. Subscriptions outlive disconnects and restarts.
type Manager struct {
	provider  session.Provider
	transport Transport
	logger    *log.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	state  State
	conn   Conn
	room   string
	cancel context.CancelFunc

	subs   map[Kind]map[uint64]Handler
	nextID uint64
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithMetrics records connects, joins and events
func WithMetrics(m *metrics.Metrics) ManagerOption {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager creates an idle manager. Nothing connects until Start.
func NewManager(provider session.Provider, transport Transport, logger *log.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		provider:  provider,
		transport: transport,
		logger:    log.OrDiscard(logger).With("component", "realtime"),
		subs:      make(map[Kind]map[uint64]Handler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens the channel for the current session. Without a session the
// manager stays uninitialized and Start returns nil. Calling Start while a
// channel exists does nothing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return nil
	}

	sess, ok := m.provider.Load()
	if !ok {
		m.logger.Debug("no session, channel not started")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	conn, err := m.transport.Connect(ctx, sess.Token)
	if err != nil {
		cancel()
		return errors.Wrap(errors.ErrCodeChannelDial, "failed to open real-time channel", err)
	}

	m.state = StateConnecting
	m.conn = conn
	m.room = sess.User.ID
	m.cancel = cancel
	go m.run(conn)

	m.logger.Debug("channel started", "room", m.room)
	return nil
}

// Stop closes the channel. Subscriptions are kept so a later Start resumes
// delivery. Stopping twice is harmless.
func (m *Manager) Stop() {
	m.mu.Lock()
	conn, cancel := m.conn, m.cancel
	m.conn, m.cancel = nil, nil
	if conn != nil {
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	if conn == nil {
		return
	}
	cancel()
	if err := conn.Close(); err != nil {
		m.logger.Debug("channel close failed", "error", err)
	}
}

// Channel returns the live handle, or nil when none exists.
func (m *Manager) Channel() Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// State returns the current channel state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers h for events of kind. Only events dispatched after
// Subscribe returns are delivered.
func (m *Manager) Subscribe(kind Kind, h Handler) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.subs[kind] == nil {
		m.subs[kind] = make(map[uint64]Handler)
	}
	m.subs[kind][id] = h
	return &Subscription{m: m, kind: kind, id: id}
}

// SubscribeNotifications delivers decoded payloads of both notification
// kinds to h. Undecodable payloads are logged and dropped.
func (m *Manager) SubscribeNotifications(h func(NotificationPayload)) []*Subscription {
	handler := func(ev Event) {
		p, err := DecodeNotification(ev)
		if err != nil {
			m.logger.Warn("dropping notification event", "error", err)
			return
		}
		h(p)
	}
	return []*Subscription{
		m.Subscribe(KindNotification, handler),
		m.Subscribe(KindNewNotification, handler),
	}
}

// SubscribeStatusChanges delivers decoded application status changes to h.
func (m *Manager) SubscribeStatusChanges(h func(StatusChangePayload)) *Subscription {
	return m.Subscribe(KindStatusChanged, func(ev Event) {
		p, err := DecodeStatusChange(ev)
		if err != nil {
			m.logger.Warn("dropping status event", "error", err)
			return
		}
		h(p)
	})
}

func (m *Manager) unsubscribe(kind Kind, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subs[kind], id)
	if len(m.subs[kind]) == 0 {
		delete(m.subs, kind)
	}
}

func (m *Manager) run(conn Conn) {
	for ev := range conn.Events() {
		if !m.apply(conn, ev) {
			continue
		}
		m.dispatch(ev)
	}
}

// apply updates state for ev. It returns false for events from a
// connection that has since been stopped.
func (m *Manager) apply(conn Conn, ev Event) bool {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return false
	}

	switch ev.Kind {
	case KindConnect:
		joined := m.state != StateConnected
		m.state = StateConnected
		room := m.room
		m.mu.Unlock()

		m.metrics.ChannelConnected()
		if joined {
			m.join(conn, room)
		}
		return true

	case KindDisconnect:
		m.state = StateDisconnected
		room := m.room
		m.mu.Unlock()

		m.metrics.ChannelDisconnected()
		m.logger.Debug("channel disconnected", "room", room)
		return true

	default:
		m.mu.Unlock()
		m.metrics.EventReceived(string(ev.Kind))
		return true
	}
}

func (m *Manager) join(conn Conn, room string) {
	if err := conn.Emit(joinEvent, map[string]string{"room": room}); err != nil {
		m.logger.Warn("room join failed", "room", room, "error", err)
		return
	}
	m.metrics.RoomJoined()
	m.logger.Debug("joined room", "room", room)
}

// dispatch calls the handlers for ev.Kind in subscription order
func (m *Manager) dispatch(ev Event) {
	m.mu.Lock()
	subs := m.subs[ev.Kind]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = subs[id]
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscription is the token returned by Subscribe
type Subscription struct {
	m    *Manager
	kind Kind
	id   uint64
	once sync.Once
}

// Unsubscribe detaches the handler. Further calls do nothing.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.m.unsubscribe(s.kind, s.id)
	})
}

// UnsubscribeAll detaches every subscription in subs
func UnsubscribeAll(subs []*Subscription) {
	for _, s := range subs {
		s.Unsubscribe()
	}
}
