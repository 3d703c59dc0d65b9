package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/UnknownOlympus/landscout/internal/cli"
)

// main is the entry point of the application.
func main() {
	// Ctrl+C cancels the running collection at its next district or page
	// boundary, and shuts the web interface down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
