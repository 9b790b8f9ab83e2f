package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/hirelink/internal/exitcode"
	"github.com/felixgeelhaar/hirelink/internal/version"
)

func TestConfigViewHidesPassphrase(t *testing.T) {
	testEnv(t, "https://api.example.com/api")
	t.Setenv("HIRELINK_SESSION_PASSPHRASE", "correct horse")

	stdout, _, err := run(t, "config", "view", "--format", "json")
	require.NoError(t, err)

	got := decode[map[string]any](t, stdout)
	assert.Equal(t, "https://api.example.com/api", got["api_url"])
	assert.Equal(t, "wss://api.example.com/ws", got["socket_url"])
	assert.Equal(t, "(set)", got["session_passphrase"])
	assert.NotContains(t, stdout, "correct horse")
}

func TestConfigViewReadsFile(t *testing.T) {
	testEnv(t, "http://localhost:5000/api")
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: 127.0.0.1:9464\nformat: yaml\n"), 0o600))

	stdout, _, err := run(t, "config", "view", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "metrics_addr: 127.0.0.1:9464")

	stdout, _, err = run(t, "config", "view", "--config", path, "--format", "text")
	require.NoError(t, err, "flags override the file")
	assert.Contains(t, stdout, "127.0.0.1:9464")
	assert.True(t, strings.HasPrefix(stdout, "api_url"))
}

func TestConfigInvalid(t *testing.T) {
	testEnv(t, "ftp://example.com")

	_, _, err := run(t, "config", "view")
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))

	testEnv(t, "http://localhost:5000/api")
	_, _, err = run(t, "config", "view", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))
}

func TestConfigPath(t *testing.T) {
	testEnv(t, "http://localhost:5000/api")
	want := os.Getenv("HIRELINK_CONFIG")

	stdout, _, err := run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, want+"\n", stdout)

	stdout, _, err = run(t, "config", "path", "--config", "/tmp/other.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.yaml\n", stdout)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)

	stdout, _, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hirelink "+version.Version)

	stdout, _, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, version.Version, decode[version.Info](t, stdout).Version)
}

func TestCompletion(t *testing.T) {
	stdout, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hirelink")

	_, _, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	_, _, err := run(t, "hire-everyone")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}
