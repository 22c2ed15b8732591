package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/pwdbox/pwdbox/internal/buildinfo"
	"github.com/pwdbox/pwdbox/internal/cli"
	"github.com/pwdbox/pwdbox/internal/config"
	"github.com/pwdbox/pwdbox/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewTextLogger(os.Stderr, logLevel(cfg.LogLevel))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
