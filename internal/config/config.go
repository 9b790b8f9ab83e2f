// Package config resolves hirelink's runtime configuration from
// ~/.hirelink/config.yaml overlaid with HIRELINK_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/hirelink/internal/errors"
)

const (
	// DirName is the per-user state directory under $HOME
	DirName = ".hirelink"

	defaultAPIURL = "http://localhost:5000/api"
)

// Config is loaded once at startup and treated as immutable afterwards.
type Config struct {
	// Backend
	APIURL      string        `json:"api_url" yaml:"api_url" env:"HIRELINK_API_URL"`
	SocketURL   string        `json:"socket_url,omitempty" yaml:"socket_url,omitempty" env:"HIRELINK_SOCKET_URL"`
	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout" env:"HIRELINK_HTTP_TIMEOUT"`

	// Client-side request pacing, requests per second. Zero disables the limiter.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" env:"HIRELINK_RATE_LIMIT"`
	RateBurst int     `json:"rate_burst" yaml:"rate_burst" env:"HIRELINK_RATE_BURST"`

	// Session
	SessionPath       string `json:"session_path" yaml:"session_path" env:"HIRELINK_SESSION_PATH"`
	SessionPassphrase string `json:"-" yaml:"-" env:"HIRELINK_SESSION_PASSPHRASE"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level" env:"HIRELINK_LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" env:"HIRELINK_LOG_FORMAT"`

	// Output
	Format  string `json:"format" yaml:"format" env:"HIRELINK_FORMAT"`
	NoColor bool   `json:"no_color" yaml:"no_color" env:"NO_COLOR"`

	// MetricsAddr enables a /metrics listener for long-running commands
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" env:"HIRELINK_METRICS_ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:      defaultAPIURL,
		HTTPTimeout: 30 * time.Second,
		RateLimit:   10,
		RateBurst:   20,
		SessionPath: filepath.Join(stateDir(), "session.json"),
		LogLevel:    "warn",
		LogFormat:   "text",
		Format:      "text",
	}
}

// DefaultPath returns the config file location, honouring HIRELINK_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("HIRELINK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(stateDir(), "config.yaml")
}

// Load reads the YAML file at path (missing is fine), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeConfigParse, fmt.Sprintf("failed to parse %s", path), err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigParse, "failed to parse environment", err)
	}

	if cfg.SocketURL == "" {
		cfg.SocketURL = DeriveSocketURL(cfg.APIURL)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigParse, "failed to encode config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// Validate rejects configurations that cannot work at all.
func (c Config) Validate() error {
	if err := checkURL(c.APIURL, "http", "https"); err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("api_url: %v", err))
	}
	if err := checkURL(c.SocketURL, "ws", "wss"); err != nil {
		return errors.NewConfigInvalidError(fmt.Sprintf("socket_url: %v", err))
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfigInvalidError("http_timeout must be positive")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.NewConfigInvalidError("rate_limit and rate_burst must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		return errors.NewConfigInvalidError("rate_burst must be at least 1 when rate_limit is set")
	}
	if c.SessionPath == "" {
		return errors.NewConfigInvalidError("session_path is required")
	}
	switch c.Format {
	case "text", "json", "yaml":
	default:
		return errors.NewConfigInvalidError(fmt.Sprintf("unknown format %q (supported: text, json, yaml)", c.Format))
	}
	return nil
}

// DeriveSocketURL maps the REST base URL onto the push channel endpoint:
// same host, ws/wss scheme, path /ws.
func DeriveSocketURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}).String()
}

func checkURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s URL", raw, strings.Join(schemes, "/"))
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}
