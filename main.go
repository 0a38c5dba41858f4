package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/idelchi/shadowenv/internal/commands"
	"github.com/idelchi/shadowenv/internal/config"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var cfg config.Config

	root := commands.NewRootCommand(&cfg, version)

	err := root.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
