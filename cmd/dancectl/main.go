package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/dancefloor/internal/cli"
	"github.com/okian/dancefloor/internal/domain/model"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return 0
}

// exitCode separates rejected requests from transport and usage failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrNotFound):
		return 2
	case errors.Is(err, model.ErrInvalidPhase):
		return 3
	default:
		return 1
	}
}
