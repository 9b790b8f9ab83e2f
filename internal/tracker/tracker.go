// Package tracker keeps a local view of applications and reconciles it with
// status pushes and optimistic status edits.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/optimistic"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

// Updater changes an application's status on the backend
type Updater interface {
	UpdateStatus(ctx context.Context, id string, status api.ApplicationStatus) api.Result[api.Application]
}

// Source delivers pushed status changes
type Source interface {
	SubscribeStatusChanges(h func(realtime.StatusChangePayload)) *realtime.Subscription
}

// Tracker is the local application map. The last write for an id wins,
// whether it came from a fetch, a push, or a local edit.
type Tracker struct {
	svc    Updater
	logger *log.Logger
	now    func() time.Time

	mu   sync.Mutex
	apps map[string]api.Application
	sub  *realtime.Subscription
}

// New creates an empty tracker
func New(svc Updater, logger *log.Logger) *Tracker {
	return &Tracker{
		svc:    svc,
		logger: log.OrDiscard(logger).With("component", "tracker"),
		now:    time.Now,
		apps:   make(map[string]api.Application),
	}
}

// Replace loads a fetched list
func (t *Tracker) Replace(apps []api.Application) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.apps = make(map[string]api.Application, len(apps))
	for _, a := range apps {
		if a.ID != "" {
			t.apps[a.ID] = a
		}
	}
}

// Apply overwrites the status of the named application. Pushes for
// applications not in the view are ignored.
func (t *Tracker) Apply(p realtime.StatusChangePayload) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	app, ok := t.apps[p.ApplicationID]
	if !ok {
		return false
	}
	app.Status = api.ApplicationStatus(p.Status)
	// The backend only pushes a status to the applicant once it is revealed.
	app.StatusVisible = true
	app.UpdatedAt = t.now()
	t.apps[app.ID] = app
	return true
}

// Attach applies pushed status changes from src until Close
func (t *Tracker) Attach(src Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub != nil {
		return
	}
	t.sub = src.SubscribeStatusChanges(func(p realtime.StatusChangePayload) {
		if t.Apply(p) {
			t.logger.Debug("status changed", "application", p.ApplicationID, "status", p.Status)
		}
	})
}

// Close detaches the push subscription
func (t *Tracker) Close() {
	t.mu.Lock()
	sub := t.sub
	t.sub = nil
	t.mu.Unlock()
	sub.Unsubscribe()
}

// UpdateStatus sets status locally, then asks the backend. A refused or
// failed call restores the previous status.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status api.ApplicationStatus) error {
	if !status.Valid() {
		return errors.New(errors.ErrCodeAPIRequestFailed, fmt.Sprintf("unknown application status %q", status))
	}

	t.mu.Lock()
	if _, ok := t.apps[id]; !ok {
		t.mu.Unlock()
		return errors.New(errors.ErrCodeAPIRequestFailed, fmt.Sprintf("application %s is not loaded", id))
	}
	t.mu.Unlock()

	pending := optimistic.Apply(func() func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		prev := t.apps[id]
		next := prev
		next.Status = status
		t.apps[id] = next
		return func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if cur, ok := t.apps[id]; ok && cur.Status == status {
				cur.Status = prev.Status
				t.apps[id] = cur
			}
		}
	})

	res := t.svc.UpdateStatus(ctx, id, status)
	if err := pending.Settle(res.Err()); err != nil {
		t.logger.Debug("status update rolled back", "application", id, "error", err)
		return err
	}

	if res.Data.ID == id {
		t.mu.Lock()
		t.apps[id] = res.Data
		t.mu.Unlock()
	}
	return nil
}

// Get returns one application
func (t *Tracker) Get(id string) (api.Application, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.apps[id]
	return a, ok
}

// Items returns a snapshot, most recently updated first
func (t *Tracker) Items() []api.Application {
	t.mu.Lock()
	out := make([]api.Application, 0, len(t.apps))
	for _, a := range t.apps {
		out = append(out, a)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// VisibleStatus returns the status viewer may see. Startups and admins see
// the real status. A student sees it only once the startup has revealed
// it; until then the student sees StatusApplied and visible is false.
func VisibleStatus(app api.Application, viewer session.Role) (status api.ApplicationStatus, visible bool) {
	if viewer != session.RoleStudent {
		return app.Status, true
	}
	if app.StatusVisible {
		return app.Status, true
	}
	return api.StatusApplied, false
}
