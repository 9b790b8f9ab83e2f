package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/health"
	"github.com/felixgeelhaar/hirelink/internal/realtime"
)

func newDoctorCommand() *cobra.Command {
	var timeout time.Duration

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the session, backend and push channel",
		Long: `Run connectivity diagnostics against the configured backend.

Checks include:
  - the stored session and its expiry
  - the REST API at api_url
  - the push channel handshake at socket_url

Examples:
  # Run diagnostics
  hirelink doctor

  # Output as JSON for scripts
  hirelink doctor --format json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			m := health.NewManager().WithTimeout(timeout)
			m.AddChecker(health.NewSessionChecker(a.sessions))
			m.AddChecker(health.NewAPIChecker(a.client, a.sessions))
			m.AddChecker(health.NewSocketChecker(
				realtime.NewWebSocketTransport(a.cfg.SocketURL, realtime.WithTransportLogger(a.logger)),
				a.sessions,
				a.cfg.SocketURL,
			))

			report := m.Check(cmd.Context())
			if err := a.print(doctorView(report)); err != nil {
				return err
			}
			if report.Status == health.StatusUnhealthy {
				return &reportedError{err: fmt.Errorf("diagnostics failed")}
			}
			return nil
		},
	}

	doctorCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout per check")
	return doctorCmd
}

type doctorView health.Report

func (v doctorView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range v.Checks {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", statusMark(c.Status), c.Name, c.Message, c.Latency.Round(time.Millisecond))
		if hint, ok := c.Details["hint"].(string); ok {
			fmt.Fprintf(tw, "  \t%s\t\n", hint)
		}
	}
	fmt.Fprintf(tw, "\nOverall: %s\n", v.Status)
	return tw.Flush()
}

func statusMark(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusDegraded:
		return "!"
	}
	return "✗"
}
