// Package params holds the live, user-adjustable feed parameters.
//
// The render pipeline never reads control state directly. Controls write
// through clamping setters; once per cycle the pipeline takes a Snapshot and
// works from that value copy, so a parameter change can never tear a cycle
// in half (new zoom level with an old pan offset, for instance). Changes take
// effect on the next cycle, never retroactively on one in flight.
package params

import (
	"sync"

	"github.com/visiona/faceover/internal/transform"
)

// Control ranges. Values outside these are clamped, not rejected: a slider
// or remote command at the end of its travel should land on the limit.
const (
	MinZoom = 1.0
	MaxZoom = 3.0

	MinPan = -1.0
	MaxPan = 1.0

	MinWindowDim = 100
	MaxWindowDim = 500

	MinBorderWidth = 0
	MaxBorderWidth = 20

	MinBorderRadius = 0
	MaxBorderRadius = 100
)

// WindowGeometry describes the overlay window as the display sink renders it.
type WindowGeometry struct {
	Width        int
	Height       int
	BorderWidth  int
	BorderRadius int
	BorderColor  string
}

// ContentArea derives the pixel region available for the video image:
// window size minus the border on both sides, floored at one pixel per axis.
func (g WindowGeometry) ContentArea() transform.ContentArea {
	return transform.ContentArea{
		Width:  g.Width - 2*g.BorderWidth,
		Height: g.Height - 2*g.BorderWidth,
	}.Clamped()
}

// Snapshot is a read-only copy of all parameters for one render cycle.
type Snapshot struct {
	Zoom    transform.ZoomState
	Window  WindowGeometry
	Visible bool
}

// Store is the single holder of live parameters. All methods are safe for
// concurrent use; writers are the control plane and config load, the reader
// is the pipeline.
type Store struct {
	mu sync.RWMutex

	zoom    transform.ZoomState
	window  WindowGeometry
	visible bool
}

// NewStore creates a store with the given initial geometry and zoom state,
// clamped to the control ranges. The feed starts visible.
func NewStore(window WindowGeometry, zoom transform.ZoomState) *Store {
	s := &Store{visible: true}
	s.window = clampWindow(window)
	s.zoom = clampZoom(zoom)
	return s
}

// Snapshot returns a value copy of the current parameters.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Zoom: s.zoom, Window: s.window, Visible: s.visible}
}

// SetZoomLevel sets the digital zoom factor, clamped to [1.0, 3.0].
func (s *Store) SetZoomLevel(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom.Level = clampF(level, MinZoom, MaxZoom)
}

// SetPan sets both pan offsets, clamped to [-1.0, 1.0].
func (s *Store) SetPan(panX, panY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom.PanX = clampF(panX, MinPan, MaxPan)
	s.zoom.PanY = clampF(panY, MinPan, MaxPan)
}

// SetPanX sets the horizontal pan offset, clamped to [-1.0, 1.0].
func (s *Store) SetPanX(pan float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom.PanX = clampF(pan, MinPan, MaxPan)
}

// SetPanY sets the vertical pan offset, clamped to [-1.0, 1.0].
func (s *Store) SetPanY(pan float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom.PanY = clampF(pan, MinPan, MaxPan)
}

// SetWindowSize sets the outer window dimensions, each clamped to [100, 500].
func (s *Store) SetWindowSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Width = clampI(width, MinWindowDim, MaxWindowDim)
	s.window.Height = clampI(height, MinWindowDim, MaxWindowDim)
}

// SetWindowWidth sets only the outer window width, clamped to [100, 500].
func (s *Store) SetWindowWidth(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Width = clampI(width, MinWindowDim, MaxWindowDim)
}

// SetWindowHeight sets only the outer window height, clamped to [100, 500].
func (s *Store) SetWindowHeight(height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.Height = clampI(height, MinWindowDim, MaxWindowDim)
}

// SetBorderWidth sets the border thickness, clamped to [0, 20].
func (s *Store) SetBorderWidth(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.BorderWidth = clampI(width, MinBorderWidth, MaxBorderWidth)
}

// SetBorderRadius sets the corner rounding, clamped to [0, 100].
func (s *Store) SetBorderRadius(radius int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window.BorderRadius = clampI(radius, MinBorderRadius, MaxBorderRadius)
}

// SetBorderColor sets the border color as a hex string ("#343434").
func (s *Store) SetBorderColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if color != "" {
		s.window.BorderColor = color
	}
}

// ToggleVisible flips feed visibility and returns the new state.
func (s *Store) ToggleVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = !s.visible
	return s.visible
}

func clampZoom(z transform.ZoomState) transform.ZoomState {
	z.Level = clampF(z.Level, MinZoom, MaxZoom)
	z.PanX = clampF(z.PanX, MinPan, MaxPan)
	z.PanY = clampF(z.PanY, MinPan, MaxPan)
	return z
}

func clampWindow(g WindowGeometry) WindowGeometry {
	g.Width = clampI(g.Width, MinWindowDim, MaxWindowDim)
	g.Height = clampI(g.Height, MinWindowDim, MaxWindowDim)
	g.BorderWidth = clampI(g.BorderWidth, MinBorderWidth, MaxBorderWidth)
	g.BorderRadius = clampI(g.BorderRadius, MinBorderRadius, MaxBorderRadius)
	return g
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
