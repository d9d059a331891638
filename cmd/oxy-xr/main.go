// Command oxy-xr opens the desktop stereo preview and drives the loaded model with
// simulated hand gestures.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-xr/config"
	"github.com/Carmen-Shannon/oxy-xr/engine"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file; watched for gesture tuning changes")
	model := flag.String("model", "", "point cloud (.ply) to load instead of the configured model")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "oxy-xr: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if *model != "" {
		cfg.Model = config.ModelConfig{Kind: "point-cloud", Path: *model}
	}

	if *dumpConfig {
		data, err := cfg.Encode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "oxy-xr: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := []engine.EngineBuilderOption{engine.WithLogger(logger)}
	if *configPath != "" {
		options = append(options, engine.WithConfigPath(*configPath))
	}

	// Run must stay on the main goroutine for the window message loop.
	if err := engine.NewEngine(cfg, options...).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("session failed", "error", err)
		os.Exit(1)
	}
}
