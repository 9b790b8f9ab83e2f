package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

type fakeService struct {
	mu       sync.Mutex
	items    []api.Notification
	failNext bool
	marked   []string
}

func (s *fakeService) List(ctx context.Context) api.Result[[]api.Notification] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return api.Result[[]api.Notification]{Status: http.StatusForbidden, Error: "profile not found"}
	}
	return api.Result[[]api.Notification]{Success: true, Data: s.items}
}

func (s *fakeService) MarkRead(ctx context.Context, id string) api.Result[api.Notification] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return api.Result[api.Notification]{Error: api.NetworkErrorMessage}
	}
	s.marked = append(s.marked, id)
	return api.Result[api.Notification]{Success: true, Data: api.Notification{ID: id, Read: true}}
}

func (s *fakeService) MarkAllRead(ctx context.Context) api.Result[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, "*")
	return api.Result[struct{}]{Success: true}
}

type pipeConn struct {
	events chan realtime.Event
	once   sync.Once
}

func (c *pipeConn) Events() <-chan realtime.Event       { return c.events }
func (c *pipeConn) Emit(name string, payload any) error { return nil }
func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.events) })
	return nil
}

type pipeTransport struct {
	conn *pipeConn
}

func (t *pipeTransport) Connect(ctx context.Context, token string) (realtime.Conn, error) {
	return t.conn, nil
}

func startManager(t *testing.T) (*realtime.Manager, *pipeConn) {
	t.Helper()
	store := session.NewMemory()
	require.NoError(t, store.Save("tok", session.Identity{ID: "u-1", Role: session.RoleStudent}))

	conn := &pipeConn{events: make(chan realtime.Event, 8)}
	m := realtime.NewManager(store, &pipeTransport{conn: conn}, nil)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Stop)
	return m, conn
}

func pushNotification(conn *pipeConn, id, title string) {
	data, _ := json.Marshal(map[string]string{"id": id, "title": title, "type": "success"})
	conn.events <- realtime.Event{Kind: realtime.KindNewNotification, Payload: data}
}

func TestFeedLoad(t *testing.T) {
	svc := &fakeService{items: []api.Notification{note("n-1", false, 0), note("n-2", true, time.Minute)}}
	feed := NewFeed(svc, nil)

	require.NoError(t, feed.Load(context.Background()))
	assert.Equal(t, 2, feed.List().Len())
	assert.Equal(t, 1, feed.List().UnreadCount())

	svc.failNext = true
	err := feed.Load(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "profile not found"))
	assert.Equal(t, 2, feed.List().Len(), "failed load keeps the previous list")
}

func TestFeedReceivesPushes(t *testing.T) {
	m, conn := startManager(t)
	feed := NewFeed(&fakeService{}, nil)
	feed.Attach(m)
	feed.Attach(m)
	defer feed.Close()

	pushNotification(conn, "n-7", "Offer received")

	select {
	case <-feed.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}
	got, ok := feed.List().Get("n-7")
	require.True(t, ok)
	assert.Equal(t, "Offer received", got.Title)
	assert.Equal(t, api.NotificationSuccess, got.Type)
	assert.False(t, got.Read)
}

func TestFeedCloseDetachesOnlyItsOwnSubscriptions(t *testing.T) {
	m, conn := startManager(t)
	feed := NewFeed(&fakeService{}, nil)
	feed.Attach(m)

	other := make(chan realtime.NotificationPayload, 4)
	subs := m.SubscribeNotifications(func(p realtime.NotificationPayload) { other <- p })
	defer realtime.UnsubscribeAll(subs)

	feed.Close()
	feed.Close()

	pushNotification(conn, "n-8", "After close")
	select {
	case p := <-other:
		assert.Equal(t, "n-8", p.ID)
	case <-time.After(time.Second):
		t.Fatal("other subscriber lost its handler")
	}
	_, ok := feed.List().Get("n-8")
	assert.False(t, ok)
}

func TestFeedMarkRead(t *testing.T) {
	svc := &fakeService{items: []api.Notification{note("n-1", false, 0), note("n-2", false, 0)}}
	feed := NewFeed(svc, nil)
	require.NoError(t, feed.Load(context.Background()))

	svc.failNext = true
	require.Error(t, feed.MarkRead(context.Background(), "n-1"))
	got, _ := feed.List().Get("n-1")
	assert.False(t, got.Read, "failed call leaves local state untouched")

	require.NoError(t, feed.MarkRead(context.Background(), "n-1"))
	got, _ = feed.List().Get("n-1")
	assert.True(t, got.Read)

	require.NoError(t, feed.MarkAllRead(context.Background()))
	assert.Equal(t, 0, feed.List().UnreadCount())
	assert.Equal(t, []string{"n-1", "*"}, svc.marked)
}
