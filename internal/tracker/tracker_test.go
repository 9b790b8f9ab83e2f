package tracker

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

type fakeUpdater struct {
	result api.Result[api.Application]
	calls  int
	seen   api.ApplicationStatus
	during func()
}

func (f *fakeUpdater) UpdateStatus(ctx context.Context, id string, status api.ApplicationStatus) api.Result[api.Application] {
	f.calls++
	f.seen = status
	if f.during != nil {
		f.during()
	}
	return f.result
}

func seeded(svc Updater) *Tracker {
	tr := New(svc, nil)
	tr.Replace([]api.Application{
		{ID: "a-1", Status: api.StatusApplied},
		{ID: "a-2", Status: api.StatusInterview, StatusVisible: true},
	})
	return tr
}

func TestApplyOverwritesByID(t *testing.T) {
	tr := seeded(&fakeUpdater{})

	assert.True(t, tr.Apply(realtime.StatusChangePayload{ApplicationID: "a-1", Status: "shortlisted"}))
	assert.False(t, tr.Apply(realtime.StatusChangePayload{ApplicationID: "a-9", Status: "hired"}))

	got, ok := tr.Get("a-1")
	require.True(t, ok)
	assert.Equal(t, api.StatusShortlisted, got.Status)
	assert.True(t, got.StatusVisible)
	assert.Len(t, tr.Items(), 2)
}

func TestUpdateStatusCommits(t *testing.T) {
	svc := &fakeUpdater{result: api.Result[api.Application]{
		Success: true,
		Data:    api.Application{ID: "a-1", Status: api.StatusOffered, StatusVisible: true},
	}}
	tr := seeded(svc)
	svc.during = func() {
		got, _ := tr.Get("a-1")
		assert.Equal(t, api.StatusOffered, got.Status, "local state changes before the call returns")
	}

	require.NoError(t, tr.UpdateStatus(context.Background(), "a-1", api.StatusOffered))

	got, _ := tr.Get("a-1")
	assert.Equal(t, api.StatusOffered, got.Status)
	assert.True(t, got.StatusVisible, "server copy replaces the local one")
	assert.Equal(t, 1, svc.calls)
}

func TestUpdateStatusRollsBack(t *testing.T) {
	svc := &fakeUpdater{result: api.Result[api.Application]{Status: http.StatusForbidden, Error: "not your job"}}
	tr := seeded(svc)

	err := tr.UpdateStatus(context.Background(), "a-1", api.StatusRejected)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAPIRequestFailed, errors.CodeOf(err))

	got, _ := tr.Get("a-1")
	assert.Equal(t, api.StatusApplied, got.Status)
}

func TestRollbackKeepsNewerPush(t *testing.T) {
	svc := &fakeUpdater{result: api.Result[api.Application]{Error: api.NetworkErrorMessage}}
	tr := seeded(svc)
	svc.during = func() {
		tr.Apply(realtime.StatusChangePayload{ApplicationID: "a-1", Status: "hired"})
	}

	require.Error(t, tr.UpdateStatus(context.Background(), "a-1", api.StatusRejected))

	got, _ := tr.Get("a-1")
	assert.Equal(t, api.StatusHired, got.Status)
}

func TestUpdateStatusValidates(t *testing.T) {
	svc := &fakeUpdater{}
	tr := seeded(svc)

	assert.Error(t, tr.UpdateStatus(context.Background(), "a-1", "promoted"))
	assert.Error(t, tr.UpdateStatus(context.Background(), "a-9", api.StatusHired))
	assert.Equal(t, 0, svc.calls)
}

func TestVisibleStatus(t *testing.T) {
	hidden := api.Application{ID: "a-1", Status: api.StatusShortlisted}
	shown := api.Application{ID: "a-2", Status: api.StatusShortlisted, StatusVisible: true}

	tests := []struct {
		name        string
		app         api.Application
		viewer      session.Role
		wantStatus  api.ApplicationStatus
		wantVisible bool
	}{
		{"startup sees hidden status", hidden, session.RoleStartup, api.StatusShortlisted, true},
		{"admin sees hidden status", hidden, session.RoleAdmin, api.StatusShortlisted, true},
		{"student does not see hidden status", hidden, session.RoleStudent, api.StatusApplied, false},
		{"student sees revealed status", shown, session.RoleStudent, api.StatusShortlisted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, visible := VisibleStatus(tt.app, tt.viewer)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantVisible, visible)
		})
	}
}
