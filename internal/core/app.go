// Package core wires capture, transform pipeline, display and control plane
// into the running faceover service.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/visiona/faceover/internal/capture"
	"github.com/visiona/faceover/internal/config"
	"github.com/visiona/faceover/internal/control"
	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/pipeline"
	"github.com/visiona/faceover/internal/transform"
)

// App is the main service orchestrator
type App struct {
	cfg *config.Config

	// Core components
	provider       capture.Provider
	store          *params.Store
	pipe           *pipeline.Pipeline
	sink           Sink
	mqttClient     mqtt.Client
	controlHandler *control.Handler

	// Lifecycle management
	started   time.Time
	mu        sync.RWMutex
	wg        sync.WaitGroup
	isRunning bool
	cancelCtx context.CancelFunc
}

// NewApp creates a faceover service instance. The sink is injected so the
// same wiring serves a real window and a headless run.
func NewApp(cfg *config.Config, sink Sink) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("core: nil config")
	}
	if sink == nil {
		return nil, fmt.Errorf("core: nil sink")
	}

	provider, err := newProvider(cfg.Camera)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture provider: %w", err)
	}

	store := params.NewStore(
		params.WindowGeometry{
			Width:        cfg.Window.Width,
			Height:       cfg.Window.Height,
			BorderWidth:  cfg.Window.BorderWidth,
			BorderRadius: cfg.Window.BorderRadius,
			BorderColor:  cfg.Window.BorderColor,
		},
		transform.ZoomState{
			Level: cfg.Zoom.Level,
			PanX:  cfg.Zoom.PanX,
			PanY:  cfg.Zoom.PanY,
		},
	)

	pipe := pipeline.New(provider, store, pipeline.Config{
		Mirror:    cfg.Camera.Mirror,
		SinkOrder: sink.Order(),
	})

	return &App{
		cfg:      cfg,
		provider: provider,
		store:    store,
		pipe:     pipe,
		sink:     sink,
	}, nil
}

// newProvider selects a capture backend from config
func newProvider(cam config.CameraConfig) (capture.Provider, error) {
	switch cam.Backend {
	case "gstreamer":
		return capture.NewGStreamerProvider(capture.GStreamerConfig{
			Device: cam.Device,
			Width:  cam.Width,
			Height: cam.Height,
			FPS:    cam.FPS,
		})
	case "opencv":
		return capture.NewOpenCVProvider(capture.OpenCVConfig{
			Device: cam.Device,
			Width:  cam.Width,
			Height: cam.Height,
		})
	case "mock":
		return capture.NewMockProvider(cam.Width, cam.Height, cam.FPS), nil
	default:
		return nil, fmt.Errorf("unknown capture backend '%s'", cam.Backend)
	}
}

// Store exposes the live parameter store (used by embedding callers, e.g.
// a local keyboard shortcut layer alongside the MQTT control plane).
func (a *App) Store() *params.Store { return a.store }

// Run starts the service and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.isRunning {
		a.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	a.isRunning = true
	a.started = time.Now()
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.mu.Lock()
	a.cancelCtx = cancel
	a.mu.Unlock()

	slog.Info("faceover service starting",
		"instance_id", a.cfg.InstanceID,
		"backend", a.cfg.Camera.Backend,
	)

	// Push the initial geometry before any frame shows up
	snap := a.store.Snapshot()
	a.sink.SetGeometry(snap.Window)
	a.sink.SetVisible(snap.Visible)

	if err := a.provider.Start(ctx); err != nil {
		a.mu.Lock()
		a.isRunning = false
		a.mu.Unlock()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	// Render loop
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.pipe.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("pipeline stopped", "error", err)
		}
	}()

	// Display consumer: drains the pipeline mailbox into the sink. Exits
	// when the mailbox closes (pipeline shutdown).
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		out := a.pipe.Output()
		for {
			f := out.Receive()
			if f == nil {
				return
			}
			a.sink.Present(f)
		}
	}()

	// Control plane (optional)
	if a.cfg.MQTT.Broker != "" {
		if err := a.startControlPlane(ctx); err != nil {
			// Remote control is not load-bearing: the feed keeps running
			// without it.
			slog.Warn("control plane unavailable", "error", err)
		}
	}

	// Health endpoint (optional)
	if a.cfg.HealthPort > 0 {
		a.StartHealthServer(a.cfg.HealthPort)
	}

	slog.Info("faceover service running")
	<-ctx.Done()
	return a.Shutdown()
}

// startControlPlane connects to the broker and subscribes the command handler
func (a *App) startControlPlane(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := control.Connect(connectCtx, a.controlConfig())
	if err != nil {
		return err
	}
	a.mqttClient = client

	handler := control.NewHandler(a.controlConfig(), client, a.controlCallbacks())
	if err := handler.Start(ctx); err != nil {
		client.Disconnect(250)
		a.mqttClient = nil
		return err
	}
	a.controlHandler = handler
	return nil
}

func (a *App) controlConfig() control.Config {
	return control.Config{
		Broker:        a.cfg.MQTT.Broker,
		ClientID:      fmt.Sprintf("faceover-%s", a.cfg.InstanceID),
		CommandTopic:  a.cfg.MQTT.Topics.Control,
		ResponseTopic: a.cfg.MQTT.Topics.Responses,
		QoS:           a.cfg.MQTT.QoS,
	}
}

// controlCallbacks maps control commands onto the parameter store and sink.
// Geometry changes reach the sink immediately; crop parameters are picked up
// by the next render cycle.
func (a *App) controlCallbacks() control.Callbacks {
	geometryChanged := func() {
		a.sink.SetGeometry(a.store.Snapshot().Window)
	}
	return control.Callbacks{
		OnSetZoom: a.store.SetZoomLevel,
		OnSetPanX: a.store.SetPanX,
		OnSetPanY: a.store.SetPanY,
		OnSetWindowWidth: func(w int) {
			a.store.SetWindowWidth(w)
			geometryChanged()
		},
		OnSetWindowHeight: func(h int) {
			a.store.SetWindowHeight(h)
			geometryChanged()
		},
		OnSetBorderWidth: func(w int) {
			a.store.SetBorderWidth(w)
			geometryChanged()
		},
		OnSetBorderRadius: func(r int) {
			a.store.SetBorderRadius(r)
			geometryChanged()
		},
		OnSetBorderColor: func(c string) {
			a.store.SetBorderColor(c)
			geometryChanged()
		},
		OnToggleFeed: func() bool {
			visible := a.store.ToggleVisible()
			a.sink.SetVisible(visible)
			return visible
		},
		OnGetStatus: a.statusReport,
	}
}

// statusReport builds the get_status payload
func (a *App) statusReport() map[string]interface{} {
	snap := a.store.Snapshot()
	capStats := a.provider.Stats()
	pipeStats := a.pipe.Stats()

	return map[string]interface{}{
		"instance_id":    a.cfg.InstanceID,
		"uptime_seconds": int64(time.Since(a.started).Seconds()),
		"visible":        snap.Visible,
		"zoom": map[string]interface{}{
			"level": snap.Zoom.Level,
			"pan_x": snap.Zoom.PanX,
			"pan_y": snap.Zoom.PanY,
		},
		"window": map[string]interface{}{
			"width":         snap.Window.Width,
			"height":        snap.Window.Height,
			"border_width":  snap.Window.BorderWidth,
			"border_radius": snap.Window.BorderRadius,
			"border_color":  snap.Window.BorderColor,
		},
		"capture": map[string]interface{}{
			"connected":  capStats.IsConnected,
			"fps":        capStats.FPSReal,
			"frames":     capStats.FrameCount,
			"dropped":    capStats.FramesDropped,
			"resolution": capStats.Resolution,
		},
		"pipeline": map[string]interface{}{
			"ticks":            pipeStats.Ticks,
			"rendered":         pipeStats.Rendered,
			"skipped_no_frame": pipeStats.SkippedNoFrame,
			"render_errors":    pipeStats.RenderErrors,
			"publish_drops":    pipeStats.PublishDrops,
		},
	}
}

// Shutdown stops all components in reverse start order.
func (a *App) Shutdown() error {
	a.mu.Lock()
	if !a.isRunning {
		a.mu.Unlock()
		return nil
	}
	a.isRunning = false
	cancel := a.cancelCtx
	a.mu.Unlock()

	slog.Info("faceover service stopping")
	if cancel != nil {
		cancel()
	}

	if a.controlHandler != nil {
		if err := a.controlHandler.Stop(); err != nil {
			slog.Warn("control handler stop failed", "error", err)
		}
	}
	if a.mqttClient != nil && a.mqttClient.IsConnected() {
		a.mqttClient.Disconnect(250)
	}

	if err := a.provider.Close(); err != nil {
		slog.Warn("capture close failed", "error", err)
	}

	// Pipeline and consumer goroutines unwind once the context is cancelled
	// and the mailbox closes.
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	timeout := time.Duration(a.cfg.ShutdownTimeoutS) * time.Second
	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("shutdown timed out waiting for workers", "timeout", timeout)
	}

	if err := a.sink.Close(); err != nil {
		slog.Warn("sink close failed", "error", err)
	}

	slog.Info("faceover service stopped")
	return nil
}
