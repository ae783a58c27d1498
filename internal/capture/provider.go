// Package capture acquires raw camera frames for the render pipeline.
//
// Three providers share one contract: a GStreamer webcam source, an OpenCV
// webcam source, and a synthetic mock source for tests and headless runs.
// Providers buffer exactly one frame (latest wins); the pipeline polls with
// TryRead once per tick and treats an empty read as "no visual update this
// cycle".
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/visiona/faceover/internal/types"
)

// Provider is the contract for frame acquisition.
//
// Implementations must guarantee:
//   - Start returns promptly; frames arrive asynchronously
//   - TryRead never blocks and consumes the latest frame at most once
//   - Close is idempotent and releases the underlying device
//   - Stats is safe to call from any goroutine
type Provider interface {
	// Start opens the device and begins producing frames until ctx is
	// cancelled or Close is called.
	Start(ctx context.Context) error

	// TryRead returns the most recent unconsumed frame, or false when no
	// new frame has arrived since the last read.
	TryRead() (*types.Frame, bool)

	// Stats returns a snapshot of capture counters.
	Stats() Stats

	// Close releases the capture device. Safe to call multiple times.
	Close() error
}

// Stats contains capture statistics.
type Stats struct {
	// FrameCount is the total number of frames produced
	FrameCount uint64
	// FramesDropped is the number of frames overwritten before being read
	FramesDropped uint64
	// FPSReal is the measured production rate
	FPSReal float64
	// LastFrameAt is when the most recent frame arrived
	LastFrameAt time.Time
	// Resolution is the frame size, e.g. "1920x1080"
	Resolution string
	// IsConnected reports whether the device is currently delivering frames
	IsConnected bool
}

// latestSlot is a single-frame overwrite buffer between a device callback
// and the pipeline's TryRead. Same drop-never-queue policy as the pipeline's
// output mailbox, minus the blocking side: the pipeline polls on its own
// clock.
type latestSlot struct {
	mu    sync.Mutex
	frame *types.Frame
	drops uint64
}

func (s *latestSlot) put(f *types.Frame) {
	s.mu.Lock()
	if s.frame != nil {
		atomic.AddUint64(&s.drops, 1)
	}
	s.frame = f
	s.mu.Unlock()
}

func (s *latestSlot) take() (*types.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, false
	}
	f := s.frame
	s.frame = nil
	return f, true
}

func (s *latestSlot) dropCount() uint64 {
	return atomic.LoadUint64(&s.drops)
}

// fpsMeter tracks a smoothed production rate over a sliding half-second
// window.
type fpsMeter struct {
	mu        sync.Mutex
	windowAt  time.Time
	inWindow  int
	lastRate  float64
	lastFrame time.Time
}

func (m *fpsMeter) tick(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.windowAt.IsZero() {
		m.windowAt = now
	}
	m.inWindow++
	m.lastFrame = now
	if d := now.Sub(m.windowAt); d >= 500*time.Millisecond {
		m.lastRate = float64(m.inWindow) / d.Seconds()
		m.windowAt = now
		m.inWindow = 0
	}
}

func (m *fpsMeter) snapshot() (rate float64, last time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRate, m.lastFrame
}
