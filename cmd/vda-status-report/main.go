// vda-status-report collects VDA machine status for the configured tenants,
// writes the aggregated plain-text report to disk, and emails it to the
// configured recipient list. It is designed to run non-interactively from
// cron or a scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/opsline/vda-status-report/internal/collector"
	"github.com/opsline/vda-status-report/internal/config"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		configPath  = pflag.String("config", "", "path to an optional TOML config file")
		outputPath  = pflag.String("output", "", "report output path (overrides config)")
		dryRun      = pflag.Bool("dry-run", false, "build and write the report but skip email")
		verbose     = pflag.BoolP("verbose", "v", false, "enable debug logging")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outputPath != "" {
		cfg.Report.OutputPath = *outputPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := collector.New(cfg, logger, collector.Options{DryRun: *dryRun})
	if _, err := c.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}
