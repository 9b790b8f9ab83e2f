package session

import (
	"sync"
	"time"
)

// Memory is an in-process Store. Nothing survives a restart.
type Memory struct {
	mu      sync.RWMutex
	session *Session
	now     func() time.Time
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Load implements Provider.
func (m *Memory) Load() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil || !m.session.Valid(m.now()) {
		return Session{}, false
	}
	return *m.session, true
}

// Save implements Store.
func (m *Memory) Save(token string, user Identity) error {
	if err := checkComplete(token, user); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &Session{Token: token, User: user}
	return nil
}

// Clear implements Store.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*Memory)(nil)
)
