package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/ux"
	"github.com/felixgeelhaar/hirelink/internal/version"
)

func newVersionCommand() *cobra.Command {
	var short bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, build date and platform of this hirelink binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			info := version.GetInfo()
			out := cmd.OutOrStdout()

			if short {
				_, err := fmt.Fprintln(out, info.Short())
				return err
			}

			// Version must work without a readable config, so it formats directly.
			f, err := ux.NewFormatter(cctx.Format, &ux.FormatterOptions{Writer: out, NoColor: cctx.NoColor})
			if err != nil {
				return usageError("%v", err)
			}
			if cctx.Format == "text" {
				return f.Format(info.String())
			}
			return f.Format(info)
		},
	}

	versionCmd.Flags().BoolVar(&short, "short", false, "print the version number only")
	return versionCmd
}
