package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/visiona/faceover/internal/types"
)

// OpenCVConfig configures the OpenCV webcam provider.
type OpenCVConfig struct {
	// Device is the camera index passed to OpenCV
	Device int
	// Width and Height are requested from the device; the driver may pick
	// the nearest mode it supports
	Width  int
	Height int
}

// OpenCVProvider captures webcam frames through OpenCV's VideoCapture.
// OpenCV delivers BGR interleaved data, so frames carry OrderBGR and the
// pipeline converts at the sink boundary.
//
// VideoCapture.Read blocks until the device produces a frame, so reads run
// on a dedicated goroutine feeding the latest slot; the render loop never
// waits on the device.
type OpenCVProvider struct {
	cfg OpenCVConfig

	vc *gocv.VideoCapture

	slot  latestSlot
	meter fpsMeter

	seq       uint64
	connected atomic.Bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOpenCVProvider creates a webcam provider with fail-fast validation.
func NewOpenCVProvider(cfg OpenCVConfig) (*OpenCVProvider, error) {
	if cfg.Device < 0 {
		return nil, fmt.Errorf("capture: invalid device index %d", cfg.Device)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("capture: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}
	return &OpenCVProvider{cfg: cfg}, nil
}

// Start opens the device and begins the read loop.
func (o *OpenCVProvider) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.isRunning {
		return fmt.Errorf("capture: opencv provider already started")
	}

	vc, err := gocv.OpenVideoCapture(o.cfg.Device)
	if err != nil {
		return fmt.Errorf("capture: could not open camera %d: %w", o.cfg.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(o.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(o.cfg.Height))

	o.vc = vc
	o.isRunning = true

	ctx, o.cancel = context.WithCancel(ctx)
	o.wg.Add(1)
	go o.readLoop(ctx)

	slog.Info("opencv capture started",
		"device", o.cfg.Device,
		"requested", fmt.Sprintf("%dx%d", o.cfg.Width, o.cfg.Height),
	)
	return nil
}

func (o *OpenCVProvider) readLoop(ctx context.Context) {
	defer o.wg.Done()

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if ok := o.vc.Read(&mat); !ok || mat.Empty() {
			// Device hiccup: report disconnected, back off briefly and
			// let the render loop skip its cycles.
			o.connected.Store(false)
			slog.Debug("capture: device returned no frame")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		data, err := mat.DataPtrUint8()
		if err != nil {
			slog.Warn("capture: could not access frame data", "error", err)
			continue
		}
		frameData := make([]byte, len(data))
		copy(frameData, data)

		now := time.Now()
		f := &types.Frame{
			Seq:       atomic.AddUint64(&o.seq, 1),
			Timestamp: now,
			Width:     mat.Cols(),
			Height:    mat.Rows(),
			Order:     types.OrderBGR,
			Data:      frameData,
			TraceID:   uuid.New().String(),
		}
		o.slot.put(f)
		o.meter.tick(now)
		o.connected.Store(true)
	}
}

// TryRead returns the latest captured frame, once.
func (o *OpenCVProvider) TryRead() (*types.Frame, bool) {
	return o.slot.take()
}

// Stats returns a snapshot of capture counters.
func (o *OpenCVProvider) Stats() Stats {
	rate, last := o.meter.snapshot()
	return Stats{
		FrameCount:    atomic.LoadUint64(&o.seq),
		FramesDropped: o.slot.dropCount(),
		FPSReal:       rate,
		LastFrameAt:   last,
		Resolution:    fmt.Sprintf("%dx%d", o.cfg.Width, o.cfg.Height),
		IsConnected:   o.connected.Load(),
	}
}

// Close stops the read loop and releases the device. Idempotent.
func (o *OpenCVProvider) Close() error {
	o.mu.Lock()
	if !o.isRunning {
		o.mu.Unlock()
		return nil
	}
	o.isRunning = false
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	o.connected.Store(false)

	if err := o.vc.Close(); err != nil {
		return fmt.Errorf("capture: failed to release camera: %w", err)
	}
	slog.Info("opencv capture stopped", "frames", atomic.LoadUint64(&o.seq))
	return nil
}
