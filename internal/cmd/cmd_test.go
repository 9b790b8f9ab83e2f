package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/session"
)

// backend is a fake marketplace API mounted under /api
type backend struct {
	mux *http.ServeMux
	srv *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{mux: http.NewServeMux()}
	b.srv = httptest.NewServer(b.mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

func (b *backend) apiURL() string {
	return b.srv.URL + "/api"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// testEnv points configuration at apiURL and a fresh state directory and
// returns the session file path.
func testEnv(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HIRELINK_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("HIRELINK_API_URL", apiURL)
	t.Setenv("HIRELINK_SESSION_PATH", filepath.Join(dir, "session.json"))
	t.Setenv("HIRELINK_RATE_LIMIT", "0")
	t.Setenv("HIRELINK_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "true")
	t.Setenv("CI", "true")
	return filepath.Join(dir, "session.json")
}

func signIn(t *testing.T, sessionPath string, role session.Role) {
	t.Helper()
	user := session.Identity{ID: "u-1", Name: "Alice", Role: role, Email: "alice@example.com", ProfileCompleted: true}
	require.NoError(t, session.NewFileStore(sessionPath).Save("tok-1", user))
}

// syncBuffer is safe to read while a command is still writing
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runContext(ctx context.Context, args []string, out, errOut *syncBuffer) error {
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut syncBuffer
	err = runContext(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
