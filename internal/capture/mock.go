package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/visiona/faceover/internal/types"
)

// MockProvider generates synthetic frames: a diagonal gradient that drifts
// one pixel per frame, so consumers can see motion and detect stuck buffers.
// Used by tests and the -mock flag.
type MockProvider struct {
	width  int
	height int
	fps    int

	slot  latestSlot
	meter fpsMeter

	seq       uint64
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewMockProvider creates a mock camera of the given geometry and rate.
func NewMockProvider(width, height, fps int) *MockProvider {
	if fps <= 0 {
		fps = 30
	}
	return &MockProvider{width: width, height: height, fps: fps}
}

// Start begins generating frames.
func (m *MockProvider) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRunning {
		return fmt.Errorf("capture: mock provider already started")
	}
	m.isRunning = true

	ctx, m.cancel = context.WithCancel(ctx)
	slog.Info("mock capture starting", "width", m.width, "height", m.height, "fps", m.fps)

	m.wg.Add(1)
	go m.generate(ctx)
	return nil
}

func (m *MockProvider) generate(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(m.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq := atomic.AddUint64(&m.seq, 1)
			f := types.NewFrame(m.width, m.height, types.OrderRGB)
			shift := int(seq % 256)
			for y := 0; y < m.height; y++ {
				row := y * f.Stride()
				for x := 0; x < m.width; x++ {
					i := row + x*types.BytesPerPixel
					f.Data[i] = byte(x + shift)
					f.Data[i+1] = byte(y + shift)
					f.Data[i+2] = byte((x + y) / 2)
				}
			}
			f.Seq = seq
			f.Timestamp = time.Now()
			f.TraceID = uuid.New().String()
			m.slot.put(f)
			m.meter.tick(f.Timestamp)
		}
	}
}

// TryRead returns the latest generated frame, once.
func (m *MockProvider) TryRead() (*types.Frame, bool) {
	return m.slot.take()
}

// Stats returns a snapshot of capture counters.
func (m *MockProvider) Stats() Stats {
	rate, last := m.meter.snapshot()
	m.mu.Lock()
	running := m.isRunning
	m.mu.Unlock()
	return Stats{
		FrameCount:    atomic.LoadUint64(&m.seq),
		FramesDropped: m.slot.dropCount(),
		FPSReal:       rate,
		LastFrameAt:   last,
		Resolution:    fmt.Sprintf("%dx%d", m.width, m.height),
		IsConnected:   running,
	}
}

// Close stops the generator. Idempotent.
func (m *MockProvider) Close() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	return nil
}
