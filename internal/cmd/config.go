package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View hirelink configuration",
		Long: `Inspect the effective configuration: ~/.hirelink/config.yaml overlaid
with HIRELINK_* environment variables.

Examples:
  # View current configuration
  hirelink config view

  # Show configuration file path
  hirelink config path
`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Display the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigView,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE:  runConfigPath,
		},
	)
	return configCmd
}

// configView is the printable configuration. The passphrase is never shown.
type configView struct {
	config.Config `yaml:",inline"`
	Passphrase    string `json:"session_passphrase,omitempty" yaml:"session_passphrase,omitempty"`
}

func (v configView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"api_url", v.APIURL},
		{"socket_url", v.SocketURL},
		{"http_timeout", v.HTTPTimeout.String()},
		{"rate_limit", fmt.Sprintf("%g/s (burst %d)", v.RateLimit, v.RateBurst)},
		{"session_path", v.SessionPath},
		{"session_passphrase", v.Passphrase},
		{"log_level", v.LogLevel},
		{"log_format", v.LogFormat},
		{"format", v.Format},
		{"no_color", fmt.Sprintf("%t", v.NoColor)},
		{"metrics_addr", v.MetricsAddr},
	}
	for _, r := range rows {
		val := r[1]
		if val == "" {
			val = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", r[0], val)
	}
	return tw.Flush()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	v := configView{Config: a.cfg}
	if a.cfg.SessionPassphrase != "" {
		v.Passphrase = "(set)"
	}
	return a.print(v)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	path := cctx.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
