// Package main is the entrypoint for the launchclock service: it counts
// down to the launch instant and streams the remaining time to subscribed
// pages.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mpedrosa/launchclock/internal/server"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{Name: "launchclockd"}, nil)
}
