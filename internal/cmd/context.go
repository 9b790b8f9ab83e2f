package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the global flags of one invocation. Flags that were
// not set on the command line leave the configured value in place.
type CommandContext struct {
	Verbose    bool
	Format     string
	NoColor    bool
	ConfigPath string

	formatSet  bool
	noColorSet bool
}

// NewCommandContext extracts the persistent flags from cmd.
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cctx, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		// Use cctx.Verbose, cctx.Format, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:    verbose,
		Format:     format,
		NoColor:    noColor,
		ConfigPath: configPath,
		formatSet:  cmd.Flags().Changed("format"),
		noColorSet: cmd.Flags().Changed("no-color"),
	}, nil
}
