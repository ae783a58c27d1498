package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/visiona/faceover/internal/types"
)

// Mailbox is a single-slot, latest-wins frame buffer decoupling the render
// loop from the display sink.
//
// Semantics:
//   - Publish is non-blocking: a new frame overwrites an unconsumed one
//     (drop, never queue), so a slow sink can never stall capture.
//   - Receive blocks until a frame is available and returns nil after Close,
//     which is how the consumer detects shutdown.
//   - Single consumer: Receive must be called from one goroutine only.
//
// Frames passed through the mailbox are shared by reference under the usual
// immutability contract.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *types.Frame // nil = consumed, non-nil = unconsumed
	closed bool

	drops uint64 // frames overwritten before consumption
}

// NewMailbox creates an empty open mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Publish places a frame in the slot, overwriting any unconsumed frame, and
// wakes the consumer. Publishing to a closed mailbox is a no-op.
func (m *Mailbox) Publish(f *types.Frame) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.frame != nil {
		atomic.AddUint64(&m.drops, 1)
	}
	m.frame = f
	m.cond.Signal()
	m.mu.Unlock()
}

// Receive blocks until a frame is available and consumes it. Returns nil once
// the mailbox has been closed and drained.
func (m *Mailbox) Receive() *types.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	if m.frame == nil {
		return nil
	}
	f := m.frame
	m.frame = nil
	return f
}

// TryReceive consumes the slot without blocking. The second return is false
// when no frame is waiting.
func (m *Mailbox) TryReceive() (*types.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return nil, false
	}
	f := m.frame
	m.frame = nil
	return f, true
}

// Close wakes a blocked consumer and makes further Publish calls no-ops.
// A frame already in the slot remains receivable. Idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Drops returns the number of frames overwritten before the consumer took
// them. Nonzero values just mean the sink runs slower than the render loop.
func (m *Mailbox) Drops() uint64 {
	return atomic.LoadUint64(&m.drops)
}
