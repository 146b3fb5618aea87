package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kode4food/bpmspec/internal/cli"
	"github.com/kode4food/bpmspec/internal/config"
	"github.com/kode4food/bpmspec/pkg/log"
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	err := cli.NewRootCommand(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("bpmspec failed", log.Error(err))
		os.Exit(1)
	}
}
