package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/hirelink/internal/cmd"
	"github.com/felixgeelhaar/hirelink/internal/exitcode"
	"github.com/felixgeelhaar/hirelink/internal/log"
	"github.com/felixgeelhaar/hirelink/internal/ux"
)

func main() {
	// Create a context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		// Check if error was due to context cancellation (e.g., Ctrl+C)
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		if !cmd.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ux.EnhanceError(err))
		}
		code := exitcode.DetermineExitCode(err)
		log.DefaultLogger().WithError(err).Debug("command failed", "exit_code", code)
		exitcode.Exit(code)
	}
	exitcode.Exit(exitcode.Success)
}
