// Package display presents rendered frames to the user.
//
// The pipeline hands every output buffer to a Sink already converted to the
// sink's channel order and sized to the content area; a sink's only numeric
// job is painting, never rescaling or cropping.
package display

import (
	"sync"
	"sync/atomic"

	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/types"
)

// Sink is the display collaborator contract.
type Sink interface {
	// Order is the channel order this sink expects frames in.
	Order() types.ChannelOrder

	// Present shows a frame. The frame is exactly content-area sized and
	// must not be mutated by the sink (shared by reference).
	Present(f *types.Frame)

	// SetGeometry applies new window geometry (size, border, rounding).
	SetGeometry(g params.WindowGeometry)

	// SetVisible shows or hides the feed.
	SetVisible(visible bool)

	// Close releases display resources.
	Close() error
}

// NullSink discards frames while counting them. Used headless and in tests.
type NullSink struct {
	presented uint64

	mu      sync.Mutex
	last    *types.Frame
	visible bool
	geom    params.WindowGeometry
}

// NewNullSink creates a sink that accepts and drops everything.
func NewNullSink() *NullSink {
	return &NullSink{visible: true}
}

// Order returns RGB; the null sink has no real preference.
func (n *NullSink) Order() types.ChannelOrder { return types.OrderRGB }

// Present records the frame and increments the counter.
func (n *NullSink) Present(f *types.Frame) {
	atomic.AddUint64(&n.presented, 1)
	n.mu.Lock()
	n.last = f
	n.mu.Unlock()
}

// SetGeometry records the geometry.
func (n *NullSink) SetGeometry(g params.WindowGeometry) {
	n.mu.Lock()
	n.geom = g
	n.mu.Unlock()
}

// SetVisible records visibility.
func (n *NullSink) SetVisible(visible bool) {
	n.mu.Lock()
	n.visible = visible
	n.mu.Unlock()
}

// Close is a no-op.
func (n *NullSink) Close() error { return nil }

// Presented returns how many frames were handed to the sink.
func (n *NullSink) Presented() uint64 { return atomic.LoadUint64(&n.presented) }

// Last returns the most recently presented frame, or nil.
func (n *NullSink) Last() *types.Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
