// Command fieldmap tracks collected items on a game map.
package main

import (
	"context"
	"os"

	"github.com/agentstation/fieldmap/cmd/fieldmap/app"
	"github.com/agentstation/fieldmap/pkg/constants"
)

// Set at build time by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		return app.ExitCode(os.Stderr, err)
	}

	ctx, stop := app.ContextWithSignals(context.Background())
	defer stop()
	runErr := application.Execute(ctx, os.Args[1:])

	// ctx may already be cancelled by a signal.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger().Error().Err(err).Msg("Shutdown error")
	}
	return app.ExitCode(os.Stderr, runErr)
}
