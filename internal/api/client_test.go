package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
	"github.com/felixgeelhaar/hirelink/internal/session"
)

var alice = session.Identity{
	ID:    "u-1",
	Name:  "Alice",
	Role:  session.RoleStartup,
	Email: "alice@example.com",
}

func loggedIn(t *testing.T) *session.Memory {
	t.Helper()
	store := session.NewMemory()
	require.NoError(t, store.Save("tok-123", alice))
	return store
}

func TestDoAttachesBearerWhenLoggedIn(t *testing.T) {
	var gotAuth, gotReqID, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alice)
	}))
	defer server.Close()

	client := NewClient(server.URL, loggedIn(t))
	res := client.Auth().Me(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.True(t, strings.HasPrefix(gotAgent, "hirelink/"), gotAgent)
	assert.Equal(t, alice, res.Data)
}

func TestDoOmitsBearerWithoutSession(t *testing.T) {
	var hasAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	for name, provider := range map[string]session.Provider{
		"nil provider":   nil,
		"empty provider": session.NewMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			res := NewClient(server.URL, provider).Jobs().List(context.Background(), JobQuery{})
			require.True(t, res.Success)
			assert.False(t, hasAuth)
			assert.Empty(t, res.Data)
		})
	}
}

func TestDoErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"message field", http.StatusForbidden, `{"message":"profile not found"}`, "profile not found"},
		{"error string", http.StatusBadRequest, `{"error":"email taken"}`, "email taken"},
		{"error object", http.StatusUnprocessableEntity, `{"error":{"message":"bad status"}}`, "bad status"},
		{"no body", http.StatusInternalServerError, ``, "request failed with status 500"},
		{"html body", http.StatusBadGateway, `<html>oops</html>`, "request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res := NewClient(server.URL, nil).Profiles().Startup(context.Background())

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.Equal(t, tt.status, res.Status)
			assert.Empty(t, res.Data.ID)
		})
	}
}

func TestResultErr(t *testing.T) {
	ok := Result[int]{Success: true, Data: 1}
	assert.NoError(t, ok.Err())

	unauthorized := Result[int]{Status: http.StatusUnauthorized, Error: "token expired"}
	err := unauthorized.Err()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAPIUnauthorized, errors.CodeOf(err))

	network := Result[int]{Error: NetworkErrorMessage}
	assert.Equal(t, errors.ErrCodeAPINetwork, errors.CodeOf(network.Err()))
}

func TestDoNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := NewClient(url, nil).Notifications().List(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, NetworkErrorMessage, res.Error)
	assert.Equal(t, 0, res.Status)
}

func TestDoCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := NewClient(server.URL, nil).Notifications().List(ctx)

	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error, "request cancelled"), res.Error)
}

func TestDoDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42`))
	}))
	defer server.Close()

	res := NewClient(server.URL, nil).Jobs().Get(context.Background(), "j-1")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "failed to decode response")
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantError   string
		wantCount   int
	}{
		{"success envelope", `{"success":true,"data":[{"_id":"n-1","title":"Hi","isRead":true}]}`, true, "", 1},
		{"failed envelope", `{"success":false,"message":"quota exceeded"}`, false, "quota exceeded", 0},
		{"null data", `{"success":true,"data":null}`, true, "", 0},
		{"bare array", `[{"id":"n-1"},{"id":"n-2"}]`, true, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res := NewClient(server.URL, nil).Notifications().List(context.Background())

			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Len(t, res.Data, tt.wantCount)
		})
	}
}

func TestNotificationAcceptsMongoShape(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"n-9","title":"T","isRead":true,"type":"interview"}`), &n))

	assert.Equal(t, "n-9", n.ID)
	assert.True(t, n.Read)
	assert.Equal(t, NotificationInterview, n.Type)
}

func TestDoSendsJSONBody(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"token":"tok-9","user":{"id":"u-9","role":"student","name":"Sam"}}`))
	}))
	defer server.Close()

	res := NewClient(server.URL+"/api/", nil).Auth().Login(context.Background(), "sam@example.com", "pw")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/auth/login", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "sam@example.com", gotBody["email"])
	assert.Equal(t, "tok-9", res.Data.Token)
	assert.Equal(t, session.RoleStudent, res.Data.User.Role)
}

func TestDoMultipartUpload(t *testing.T) {
	var fields map[string]string
	var fileName, fileBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fields = map[string]string{
			"jobId":       r.FormValue("jobId"),
			"coverLetter": r.FormValue("coverLetter"),
		}
		f, hdr, err := r.FormFile("resume")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		fileName = hdr.Filename
		fileBody = string(data)
		_, _ = w.Write([]byte(`{"id":"a-1","job":"j-1","student":"u-1","status":"applied"}`))
	}))
	defer server.Close()

	res := NewClient(server.URL, loggedIn(t)).Applications().
		Apply(context.Background(), "j-1", "hello", "cv.pdf", strings.NewReader("%PDF"))

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "j-1", fields["jobId"])
	assert.Equal(t, "hello", fields["coverLetter"])
	assert.Equal(t, "cv.pdf", fileName)
	assert.Equal(t, "%PDF", fileBody)
	assert.Equal(t, "j-1", res.Data.Job.ID())
	assert.False(t, res.Data.Job.IsPopulated())
}

func TestDoMultipartKeepsBoundaryContentType(t *testing.T) {
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	res := Do[struct{}](context.Background(), client, Request{
		Method:    http.MethodPost,
		Path:      "/upload",
		Multipart: &Multipart{Fields: map[string]string{"k": "v"}},
		Header:    http.Header{"Content-Type": []string{"application/json"}},
	})

	require.True(t, res.Success, res.Error)
	assert.True(t, strings.HasPrefix(gotType, "multipart/form-data; boundary="), gotType)
}

func TestDoQueryParameters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	res := NewClient(server.URL, nil).Jobs().List(context.Background(), JobQuery{Search: "go dev", Location: "Berlin"})

	require.True(t, res.Success)
	assert.Equal(t, "location=Berlin&search=go+dev", gotQuery)
}

func TestDoRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, m := metrics.NewRegistry()
	client := NewClient(server.URL, nil, WithMetrics(m), WithRateLimit(100, 1))

	client.Jobs().Get(context.Background(), "missing")
	client.Jobs().Get(context.Background(), "missing")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.APIRequests.WithLabelValues(http.MethodGet, "404")))
}
