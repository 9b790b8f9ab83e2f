package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/config"
	"github.com/felixgeelhaar/hirelink/internal/errors"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/metrics"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
	"github.com/felixgeelhaar/hirelink/internal/session"
	"github.com/felixgeelhaar/hirelink/internal/ux"
	"github.com/felixgeelhaar/hirelink/internal/version"
)

// app is the process wiring for one command invocation
type app struct {
	cfg        config.Config
	configPath string
	logger     *log.Logger

	sessions *session.FileStore
	client   *api.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	out    io.Writer
	errOut io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}

	path := cctx.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cctx.formatSet {
		cfg.Format = cctx.Format
	}
	if cctx.noColorSet {
		cfg.NoColor = cctx.NoColor
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := log.ParseLevel(cfg.LogLevel)
	if cctx.Verbose {
		level = log.LevelDebug
	}
	logger := log.New(log.Config{
		Level:          level,
		Format:         log.ParseFormat(cfg.LogFormat),
		Output:         cmd.ErrOrStderr(),
		AddSource:      cctx.Verbose,
		ServiceVersion: version.Version,
	})
	log.SetDefaultLogger(logger)

	registry, m := metrics.NewRegistry()

	sessions := session.NewFileStore(cfg.SessionPath,
		session.WithPassphrase(cfg.SessionPassphrase),
		session.WithLogger(logger),
	)

	client := api.NewClient(cfg.APIURL, sessions,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithMetrics(m),
		api.WithLogger(logger),
	)

	return &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		sessions:   sessions,
		client:     client,
		registry:   registry,
		metrics:    m,
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
	}, nil
}

// requireSession returns the stored session or a not-logged-in error
func (a *app) requireSession() (session.Session, error) {
	s, ok := a.sessions.Load()
	if !ok {
		return session.Session{}, errors.NewNotLoggedInError()
	}
	return s, nil
}

// newManager builds a channel manager over the configured socket URL
func (a *app) newManager() *realtime.Manager {
	transport := realtime.NewWebSocketTransport(a.cfg.SocketURL,
		realtime.WithTransportLogger(a.logger),
	)
	return realtime.NewManager(a.sessions, transport, a.logger, realtime.WithMetrics(a.metrics))
}

// print writes data in the configured output format
func (a *app) print(data any) error {
	f, err := ux.NewFormatter(a.cfg.Format, &ux.FormatterOptions{
		Writer:  a.out,
		NoColor: a.cfg.NoColor,
	})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// notify shows a confirmation toast in text mode. Structured formats stay
// machine-readable, so they get nothing.
func (a *app) notify(message string) {
	if a.cfg.Format != "text" {
		return
	}
	ux.ShowToast(a.out, ux.SuccessToast(message), a.cfg.NoColor)
}

// check unwraps a result. A failure is shown as an error toast on stderr
// and returned as an already reported error.
func check[T any](a *app, r api.Result[T]) (T, error) {
	if err := r.Err(); err != nil {
		if r.Status == http.StatusUnauthorized {
			a.dropSession()
		}
		ux.ShowToast(a.errOut, ux.ErrorToast(r.Error), a.cfg.NoColor)
		var zero T
		return zero, &reportedError{err: err}
	}
	return r.Data, nil
}

// report shows an API failure that surfaced as an error, such as a rolled
// back status change, the same way check does. Other errors pass through.
func (a *app) report(err error) error {
	var he *errors.HirelinkError
	if !stderrors.As(err, &he) || !strings.HasPrefix(string(he.Code), "API-") {
		return err
	}
	if he.Code == errors.ErrCodeAPIUnauthorized {
		a.dropSession()
	}
	ux.ShowToast(a.errOut, ux.ErrorToast(he.Message), a.cfg.NoColor)
	return &reportedError{err: err}
}

// dropSession forgets a session the backend no longer accepts
func (a *app) dropSession() {
	if _, ok := a.sessions.Load(); !ok {
		return
	}
	if err := a.sessions.Clear(); err != nil {
		a.logger.WithError(err).Warn("failed to clear rejected session", "path", a.sessions.Path())
		return
	}
	a.logger.Debug("session cleared after authentication failure")
}

// reportedError has already been shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

// Reported reports whether err was already shown to the user
func Reported(err error) bool {
	var re *reportedError
	return stderrors.As(err, &re)
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("invalid usage: "+format, args...)
}
