package cmd

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/felixgeelhaar/hirelink/internal/exitcode"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

func TestNotificationsList(t *testing.T) {
	b := newBackend(t)
	b.handle("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"_id": "n-1", "title": "Old", "message": "first", "type": "info", "isRead": true, "createdAt": "2026-01-01T10:00:00Z"},
			{"_id": "n-2", "title": "New", "message": "second", "type": "interview", "read": false, "createdAt": "2026-01-02T10:00:00Z"},
		})
	})
	sessionPath := testEnv(t, b.apiURL())
	signIn(t, sessionPath, session.RoleStudent)

	stdout, _, err := run(t, "notifications", "list", "--format", "json")
	require.NoError(t, err)

	table := decode[notificationTable](t, stdout)
	require.Len(t, table.Items, 2)
	assert.Equal(t, "n-2", table.Items[0].ID, "newest first")
	assert.True(t, table.Items[1].Read)
	assert.Equal(t, 1, table.Unread)

	stdout, _, err = run(t, "notifications", "list", "--unread")
	require.NoError(t, err)
	assert.Contains(t, stdout, "New")
	assert.NotContains(t, stdout, "Old")
	assert.Contains(t, stdout, "1 unread")
}

func TestNotificationsListForbidden(t *testing.T) {
	b := newBackend(t)
	b.handle("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "profile not found"})
	})
	sessionPath := testEnv(t, b.apiURL())
	signIn(t, sessionPath, session.RoleStudent)

	stdout, stderr, err := run(t, "notifications", "list")
	require.Error(t, err)

	assert.True(t, Reported(err))
	assert.Contains(t, stderr, "profile not found")
	assert.Empty(t, stdout)
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
}

func TestNotificationsRequireSession(t *testing.T) {
	b := newBackend(t)
	var calls atomic.Int32
	b.handle("/api/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	testEnv(t, b.apiURL())

	_, _, err := run(t, "notifications", "list")
	require.Error(t, err)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	assert.Zero(t, calls.Load())
}

func TestNotificationsMarkRead(t *testing.T) {
	b := newBackend(t)
	var readID string
	var readAll atomic.Bool
	b.handle("PATCH /api/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		readID = r.PathValue("id")
		writeJSON(w, http.StatusOK, map[string]any{"id": readID, "title": "t", "read": true})
	})
	b.handle("PATCH /api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		readAll.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	sessionPath := testEnv(t, b.apiURL())
	signIn(t, sessionPath, session.RoleStudent)

	stdout, _, err := run(t, "notifications", "read", "n-5")
	require.NoError(t, err)
	assert.Equal(t, "n-5", readID)
	assert.Contains(t, stdout, "Notification marked as read")

	_, _, err = run(t, "notifications", "read-all")
	require.NoError(t, err)
	assert.True(t, readAll.Load())
}

func TestNotificationsWatchPlain(t *testing.T) {
	b := newBackend(t)
	b.handle("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	var token atomic.Value
	b.mux.Handle("/ws", websocket.Handler(func(ws *websocket.Conn) {
		token.Store(ws.Request().URL.Query().Get("token"))

		var raw string
		for {
			if err := websocket.Message.Receive(ws, &raw); err != nil {
				return
			}
			if strings.Contains(raw, `"join"`) {
				break
			}
		}
		_ = websocket.Message.Send(ws, `{"type":"new_notification","payload":{"_id":"n-9","title":"Interview scheduled","message":"Tomorrow at 10:00","type":"interview"}}`)
		for {
			if err := websocket.Message.Receive(ws, &raw); err != nil {
				return
			}
		}
	}))
	sessionPath := testEnv(t, b.apiURL())
	signIn(t, sessionPath, session.RoleStudent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out, errOut syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runContext(ctx, []string{"notifications", "watch", "--plain"}, &out, &errOut)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Interview scheduled")
	}, 3*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Tomorrow at 10:00")
	assert.Equal(t, "tok-1", token.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
