package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/circleup/circleup/internal/buildinfo"
	"github.com/circleup/circleup/internal/client/cli"
	"github.com/circleup/circleup/internal/client/config"
	"github.com/circleup/circleup/internal/filex"
	"github.com/circleup/circleup/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	dbPath, err := filex.EnsureParentDir(cfg.DBPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg.DBPath = dbPath

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "cli exited with error", "error", err)
		os.Exit(1)
	}
}
