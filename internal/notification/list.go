// Package notification keeps the user's notification list in sync with
// fetches and push events.
package notification

import (
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/hirelink/internal/api"
)

// List holds notifications keyed by id. Once read, a notification stays
// read no matter what a later fetch or push says, even after it has left
// the list.
type List struct {
	mu    sync.RWMutex
	items map[string]api.Notification
	read  map[string]struct{}
	now   func() time.Time
}

// NewList returns an empty list
func NewList() *List {
	return &List{
		items: make(map[string]api.Notification),
		read:  make(map[string]struct{}),
		now:   time.Now,
	}
}

// Replace makes fetched the list contents. Local read flags survive.
func (l *List) Replace(fetched []api.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make(map[string]api.Notification, len(fetched))
	for _, n := range fetched {
		if n.ID == "" {
			continue
		}
		next[n.ID] = l.merge(n)
	}
	l.items = next
}

// Push inserts n or updates the entry with the same id.
func (l *List) Push(n api.Notification) {
	if n.ID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = l.now()
	}
	l.items[n.ID] = l.merge(n)
}

// merge must be called with mu held
func (l *List) merge(n api.Notification) api.Notification {
	if _, ok := l.read[n.ID]; ok {
		n.Read = true
	} else if n.Read {
		l.read[n.ID] = struct{}{}
	}
	if prev, ok := l.items[n.ID]; ok {
		n.Read = n.Read || prev.Read
		if n.CreatedAt.IsZero() {
			n.CreatedAt = prev.CreatedAt
		}
	}
	return n
}

// MarkRead flips id to read. It reports whether id exists.
func (l *List) MarkRead(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.items[id]
	if !ok {
		return false
	}
	n.Read = true
	l.items[id] = n
	l.read[id] = struct{}{}
	return true
}

// MarkAllRead flips every entry to read
func (l *List) MarkAllRead() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, n := range l.items {
		n.Read = true
		l.items[id] = n
		l.read[id] = struct{}{}
	}
}

// Dismiss removes id from the local view. A later fetch may bring it back.
func (l *List) Dismiss(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.items, id)
}

// Get returns one entry
func (l *List) Get(id string) (api.Notification, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.items[id]
	return n, ok
}

// UnreadCount returns the number of unread entries
func (l *List) UnreadCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, n := range l.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len returns the number of entries
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Items returns a snapshot, newest first
func (l *List) Items() []api.Notification {
	l.mu.RLock()
	out := make([]api.Notification, 0, len(l.items))
	for _, n := range l.items {
		out = append(out, n)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
