package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/services"
)

func main() {
	// Credentials may live in a local .env during development; a missing
	// file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		// Prerequisite and configuration failures stop the run before any
		// item-level work; give them a distinct exit code.
		if services.IsPrerequisite(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
