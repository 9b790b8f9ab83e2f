package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
)

// Service is the subset of the notification API the feed needs
type Service interface {
	List(ctx context.Context) api.Result[[]api.Notification]
	MarkRead(ctx context.Context, id string) api.Result[api.Notification]
	MarkAllRead(ctx context.Context) api.Result[struct{}]
}

// Source delivers pushed notifications
type Source interface {
	SubscribeNotifications(h func(realtime.NotificationPayload)) []*realtime.Subscription
}

// Feed binds a List to the API and to push events
type Feed struct {
	list    *List
	svc     Service
	logger  *log.Logger
	changes chan struct{}

	mu   sync.Mutex
	subs []*realtime.Subscription
}

// NewFeed creates a feed over svc. Call Load and Attach to populate it.
func NewFeed(svc Service, logger *log.Logger) *Feed {
	return &Feed{
		list:    NewList(),
		svc:     svc,
		logger:  log.OrDiscard(logger).With("component", "notifications"),
		changes: make(chan struct{}, 1),
	}
}

// List returns the underlying list
func (f *Feed) List() *List {
	return f.list
}

// Changes signals after a push event modified the list. Signals coalesce.
func (f *Feed) Changes() <-chan struct{} {
	return f.changes
}

// Load fetches the current notifications from the backend
func (f *Feed) Load(ctx context.Context) error {
	res := f.svc.List(ctx)
	if err := res.Err(); err != nil {
		return err
	}
	f.list.Replace(res.Data)
	return nil
}

// Attach subscribes to both notification kinds on src. Attaching twice
// does nothing.
func (f *Feed) Attach(src Source) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs != nil {
		return
	}
	f.subs = src.SubscribeNotifications(f.onPush)
}

func (f *Feed) onPush(p realtime.NotificationPayload) {
	f.list.Push(fromPayload(p))
	f.logger.Debug("notification received", "id", p.ID, "type", p.Type)

	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func fromPayload(p realtime.NotificationPayload) api.Notification {
	id := p.ID
	if id == "" {
		id = "local-" + uuid.NewString()
	}
	typ := api.NotificationType(p.Type)
	if typ == "" {
		typ = api.NotificationInfo
	}
	return api.Notification{
		ID:      id,
		Title:   p.Title,
		Message: p.Message,
		Type:    typ,
	}
}

// MarkRead marks id read on the backend, then locally.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if err := f.svc.MarkRead(ctx, id).Err(); err != nil {
		return err
	}
	f.list.MarkRead(id)
	return nil
}

// MarkAllRead marks everything read on the backend, then locally.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	if err := f.svc.MarkAllRead(ctx).Err(); err != nil {
		return err
	}
	f.list.MarkAllRead()
	return nil
}

// Close detaches exactly the subscriptions this feed made.
func (f *Feed) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	realtime.UnsubscribeAll(subs)
}
