package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the hirelink command tree. Each call returns a
// fresh tree with its own flag state.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hirelink",
		Short: "Terminal client for the hirelink hiring marketplace",
		Long: `hirelink connects startups and students from the terminal.

It signs you in, lists and watches your notifications live, tracks
application status changes as they happen and tells you which features
your subscription plan includes.

Configuration is read from ~/.hirelink/config.yaml and HIRELINK_*
environment variables; environment variables win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("format", "text", "output format: text, json, yaml")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.hirelink/config.yaml)")

	rootCmd.AddCommand(
		newAuthCommand(),
		newNotificationsCommand(),
		newApplicationsCommand(),
		newJobsCommand(),
		newProfileCommand(),
		newPlanCommand(),
		newDoctorCommand(),
		newConfigCommand(),
		newVersionCommand(),
		newCompletionCommand(rootCmd),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
