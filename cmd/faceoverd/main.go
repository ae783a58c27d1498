package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/visiona/faceover/internal/config"
	"github.com/visiona/faceover/internal/core"
	"github.com/visiona/faceover/internal/display"
	"github.com/visiona/faceover/internal/params"
)

const defaultConfigPath = "config/faceover.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	headless := flag.Bool("headless", false, "Run without a window (control plane and health only)")
	mock := flag.Bool("mock", false, "Use the synthetic capture backend regardless of config")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting faceover",
		"config", *configPath,
		"debug", *debug,
		"headless", *headless,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *mock {
		cfg.Camera.Backend = "mock"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *headless {
		runHeadless(ctx, cfg)
		return
	}
	runWindowed(ctx, cancel, cfg)
}

// runHeadless drives the service with a counting sink and no window. Useful
// for soak testing capture and the control plane on machines with no display.
func runHeadless(ctx context.Context, cfg *config.Config) {
	app, err := core.NewApp(cfg, display.NewNullSink())
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("service error", "error", err)
		os.Exit(1)
	}
	slog.Info("faceover stopped")
}

// runWindowed keeps the Fyne event loop on the main goroutine, as the
// toolkit requires, and runs the service beside it. Closing the window or
// receiving a signal tears both down.
func runWindowed(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) {
	sink := display.NewFyneSink(params.WindowGeometry{
		Width:        cfg.Window.Width,
		Height:       cfg.Window.Height,
		BorderWidth:  cfg.Window.BorderWidth,
		BorderRadius: cfg.Window.BorderRadius,
		BorderColor:  cfg.Window.BorderColor,
	})

	app, err := core.NewApp(cfg, sink)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Run(ctx)
	}()

	// Blocks until the window closes or app.Shutdown quits the toolkit.
	sink.Run()
	cancel()

	if err := <-errChan; err != nil {
		slog.Error("service error", "error", err)
		os.Exit(1)
	}
	slog.Info("faceover stopped")
}
