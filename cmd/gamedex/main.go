// Package main provides the entry point for the gamedex CLI tool.
package main

import (
	"context"
	"os"

	"github.com/gamedex/gamedex/cmd/gamedex/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		app.ExitOnError(err)
	}

	// Cancel the pass cleanly on SIGINT/SIGTERM; extractors honor context
	// cancellation between fetches.
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
