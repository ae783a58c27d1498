package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/visiona/faceover/internal/types"
)

// GStreamerConfig configures the GStreamer webcam provider.
type GStreamerConfig struct {
	// Device is the video4linux device index (/dev/video<N>)
	Device int
	// Width and Height are the requested capture resolution
	Width  int
	Height int
	// FPS is the requested capture rate (frames per second)
	FPS int
}

// GStreamerProvider captures webcam frames through a GStreamer pipeline:
//
//	v4l2src → videoconvert → videoscale → videorate → capsfilter(RGB) → appsink
//
// The appsink is configured sync=false, max-buffers=1, drop=true, so the
// pipeline itself already keeps only the newest frame; the latest slot on top
// gives the render loop its consume-once read.
type GStreamerProvider struct {
	cfg GStreamerConfig

	pipeline *gst.Pipeline
	appsink  *app.Sink

	slot  latestSlot
	meter fpsMeter

	seq       uint64
	connected atomic.Bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewGStreamerProvider creates a webcam provider with fail-fast validation.
func NewGStreamerProvider(cfg GStreamerConfig) (*GStreamerProvider, error) {
	if cfg.Device < 0 {
		return nil, fmt.Errorf("capture: invalid device index %d", cfg.Device)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("capture: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 || cfg.FPS > 60 {
		return nil, fmt.Errorf("capture: invalid fps %d (must be 1-60)", cfg.FPS)
	}
	return &GStreamerProvider{cfg: cfg}, nil
}

// Start builds the pipeline and sets it to PLAYING. Frames arrive
// asynchronously once the pipeline negotiates with the device.
func (g *GStreamerProvider) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.isRunning {
		return fmt.Errorf("capture: gstreamer provider already started")
	}

	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("capture: failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return fmt.Errorf("capture: failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", fmt.Sprintf("/dev/video%d", g.cfg.Device))

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("capture: failed to create videoconvert: %w", err)
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("capture: failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return fmt.Errorf("capture: failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)
	videorate.SetProperty("skip-to-first", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("capture: failed to create capsfilter: %w", err)
	}
	capsStr := fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d,framerate=%d/1",
		g.cfg.Width, g.cfg.Height, g.cfg.FPS)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	appsink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("capture: failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, scaler, videorate, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
		return fmt.Errorf("capture: failed to link pipeline elements: %w", err)
	}

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: g.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("capture: failed to start pipeline: %w", err)
	}

	g.pipeline = pipeline
	g.appsink = appsink
	g.isRunning = true

	ctx, g.cancel = context.WithCancel(ctx)
	g.wg.Add(1)
	go g.monitorBus(ctx)

	slog.Info("gstreamer capture started",
		"device", g.cfg.Device,
		"caps", capsStr,
	)
	return nil
}

// onNewSample copies a mapped appsink buffer into a fresh frame. GStreamer
// reuses its buffers, so the copy is mandatory.
func (g *GStreamerProvider) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("capture: failed to pull sample, skipping frame")
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("capture: sample without buffer, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("capture: empty buffer received")
		return gst.FlowOK
	}
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	now := time.Now()
	f := &types.Frame{
		Seq:       atomic.AddUint64(&g.seq, 1),
		Timestamp: now,
		Width:     g.cfg.Width,
		Height:    g.cfg.Height,
		Order:     types.OrderRGB,
		Data:      frameData,
		TraceID:   uuid.New().String(),
	}
	g.slot.put(f)
	g.meter.tick(now)
	g.connected.Store(true)
	return gst.FlowOK
}

// monitorBus watches the pipeline bus for errors and end-of-stream. Device
// errors are non-fatal to the process: the provider just stops delivering
// frames and the render loop keeps skipping cycles.
func (g *GStreamerProvider) monitorBus(ctx context.Context) {
	defer g.wg.Done()
	bus := g.pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(500 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			g.connected.Store(false)
			slog.Error("capture: pipeline error",
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
		case gst.MessageEOS:
			g.connected.Store(false)
			slog.Warn("capture: end of stream from device")
		}
	}
}

// TryRead returns the latest captured frame, once.
func (g *GStreamerProvider) TryRead() (*types.Frame, bool) {
	return g.slot.take()
}

// Stats returns a snapshot of capture counters.
func (g *GStreamerProvider) Stats() Stats {
	rate, last := g.meter.snapshot()
	return Stats{
		FrameCount:    atomic.LoadUint64(&g.seq),
		FramesDropped: g.slot.dropCount(),
		FPSReal:       rate,
		LastFrameAt:   last,
		Resolution:    fmt.Sprintf("%dx%d", g.cfg.Width, g.cfg.Height),
		IsConnected:   g.connected.Load(),
	}
}

// Close tears the pipeline down. Idempotent.
func (g *GStreamerProvider) Close() error {
	g.mu.Lock()
	if !g.isRunning {
		g.mu.Unlock()
		return nil
	}
	g.isRunning = false
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()
	g.connected.Store(false)

	if err := g.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("capture: failed to stop pipeline: %w", err)
	}
	slog.Info("gstreamer capture stopped", "frames", atomic.LoadUint64(&g.seq))
	return nil
}
