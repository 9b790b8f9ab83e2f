package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/notification"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
)

type fakeFeed struct {
	list    *notification.List
	changes chan struct{}
	markErr error
	marked  []string
}

func newFakeFeed(items ...api.Notification) *fakeFeed {
	f := &fakeFeed{list: notification.NewList(), changes: make(chan struct{}, 1)}
	f.list.Replace(items)
	return f
}

func (f *fakeFeed) List() *notification.List   { return f.list }
func (f *fakeFeed) Changes() <-chan struct{}   { return f.changes }
func (f *fakeFeed) MarkAllRead(ctx context.Context) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.list.MarkAllRead()
	return nil
}

func (f *fakeFeed) MarkRead(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	f.list.MarkRead(id)
	return nil
}

type fixedState realtime.State

func (s fixedState) State() realtime.State { return realtime.State(s) }

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func sample() []api.Notification {
	return []api.Notification{
		{ID: "n-1", Title: "Interview scheduled", Type: api.NotificationInterview, CreatedAt: now},
		{ID: "n-2", Title: "Application viewed", Type: api.NotificationInfo, CreatedAt: now.Add(-time.Hour)},
		{ID: "n-3", Title: "Welcome", Read: true, CreatedAt: now.Add(-2 * time.Hour)},
	}
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// TestNewModel tests model initialization
func TestNewModel(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(sample()...), fixedState(realtime.StateConnected))

	if len(model.items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(model.items))
	}
	if model.items[0].ID != "n-1" {
		t.Errorf("Expected newest first, got %s", model.items[0].ID)
	}
	if model.unread != 2 {
		t.Errorf("Expected 2 unread, got %d", model.unread)
	}
	if model.state != realtime.StateConnected {
		t.Errorf("Expected connected state, got %v", model.state)
	}
}

// TestCursorMovement tests navigation bounds
func TestCursorMovement(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(sample()...), nil)

	model, _ = press(t, model, "up")
	if model.cursor != 0 {
		t.Errorf("cursor should not go above 0, got %d", model.cursor)
	}

	for i := 0; i < 5; i++ {
		model, _ = press(t, model, "down")
	}
	if model.cursor != 2 {
		t.Errorf("cursor should stop at last item, got %d", model.cursor)
	}
}

// TestKeyPressMarkRead tests r issues a mark-read command
func TestKeyPressMarkRead(t *testing.T) {
	feed := newFakeFeed(sample()...)
	model := NewModel(context.Background(), feed, nil)

	model, cmd := press(t, model, "r")
	if cmd == nil {
		t.Fatal("Expected mark-read command")
	}

	updated, _ := model.Update(cmd())
	model = updated.(Model)

	if len(feed.marked) != 1 || feed.marked[0] != "n-1" {
		t.Errorf("Expected n-1 marked, got %v", feed.marked)
	}
	if model.unread != 1 {
		t.Errorf("Expected 1 unread after marking, got %d", model.unread)
	}
}

// TestKeyPressMarkReadFailure tests a failed call is shown as a status
func TestKeyPressMarkReadFailure(t *testing.T) {
	feed := newFakeFeed(sample()...)
	feed.markErr = errors.New("network error: unable to reach server")
	model := NewModel(context.Background(), feed, nil)

	model, cmd := press(t, model, "r")
	updated, _ := model.Update(cmd())
	model = updated.(Model)

	if !model.failed || !strings.Contains(model.status, "unable to reach server") {
		t.Errorf("Expected failure status, got %q (failed=%v)", model.status, model.failed)
	}
	if model.unread != 2 {
		t.Errorf("Expected unread unchanged, got %d", model.unread)
	}
}

// TestKeyPressReadOnReadItem tests r on a read item does nothing
func TestKeyPressReadOnReadItem(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(sample()...), nil)
	model, _ = press(t, model, "down")
	model, _ = press(t, model, "down")

	if _, cmd := press(t, model, "r"); cmd != nil {
		t.Error("Expected no command for an already read item")
	}
}

// TestKeyPressMarkAllRead tests R marks everything read
func TestKeyPressMarkAllRead(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(sample()...), nil)

	model, cmd := press(t, model, "R")
	if cmd == nil {
		t.Fatal("Expected mark-all command")
	}
	updated, _ := model.Update(cmd())
	model = updated.(Model)

	if model.unread != 0 {
		t.Errorf("Expected 0 unread, got %d", model.unread)
	}
	if model.failed || model.status == "" {
		t.Errorf("Expected success status, got %q", model.status)
	}
}

// TestKeyPressDismiss tests d removes the selected item
func TestKeyPressDismiss(t *testing.T) {
	feed := newFakeFeed(sample()...)
	model := NewModel(context.Background(), feed, nil)
	model, _ = press(t, model, "down")
	model, _ = press(t, model, "down")

	model, _ = press(t, model, "d")

	if len(model.items) != 2 {
		t.Fatalf("Expected 2 items after dismiss, got %d", len(model.items))
	}
	if model.cursor != 1 {
		t.Errorf("Expected cursor clamped to 1, got %d", model.cursor)
	}
	if _, ok := feed.list.Get("n-3"); ok {
		t.Error("Expected n-3 removed from the list")
	}
}

// TestKeyPressQuit tests quit
func TestKeyPressQuit(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(), nil)

	model, cmd := press(t, model, "q")
	if !model.quitting {
		t.Error("Expected quitting to be true")
	}
	if cmd == nil {
		t.Error("Expected quit command")
	}
}

// TestFeedChangedMessage tests pushes refresh the view
func TestFeedChangedMessage(t *testing.T) {
	feed := newFakeFeed()
	model := NewModel(context.Background(), feed, nil)

	feed.list.Push(api.Notification{ID: "n-9", Title: "Offer received", CreatedAt: now})
	updated, cmd := model.Update(feedChangedMsg{})
	model = updated.(Model)

	if len(model.items) != 1 || model.unread != 1 {
		t.Errorf("Expected pushed item to appear, got %d items %d unread", len(model.items), model.unread)
	}
	if cmd == nil {
		t.Error("Expected to keep listening for changes")
	}
}

// TestViewRendering tests the rendered output
func TestViewRendering(t *testing.T) {
	model := NewModel(context.Background(), newFakeFeed(sample()...), fixedState(realtime.StateConnected))

	if model.View() != "Initializing..." {
		t.Error("Expected initializing view before window size")
	}

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model = updated.(Model)
	view := model.View()

	for _, want := range []string{"Notifications", "live", "2 unread of 3", "Interview scheduled", "Welcome"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}

	empty := NewModel(context.Background(), newFakeFeed(), nil)
	updated, _ = empty.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(updated.(Model).View(), "No notifications yet") {
		t.Error("Expected empty state message")
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	var items []api.Notification
	for i := 0; i < 20; i++ {
		items = append(items, api.Notification{ID: string(rune('a' + i)), CreatedAt: now.Add(-time.Duration(i) * time.Minute)})
	}
	model := NewModel(context.Background(), newFakeFeed(items...), nil)
	model.height = 13
	model.cursor = 10

	start, end := model.window()
	if end-start != 5 || model.cursor < start || model.cursor >= end {
		t.Errorf("window [%d,%d) does not show cursor %d", start, end, model.cursor)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 6); got != "hello…" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
}
