package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kolah/apilens/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.RootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cli.ReportError(os.Stdout, os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
