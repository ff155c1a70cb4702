package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/morozRed/toolbelt/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand(version).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
