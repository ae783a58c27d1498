package params

import (
	"sync"
	"testing"

	"github.com/visiona/faceover/internal/transform"
)

func defaultStore() *Store {
	return NewStore(WindowGeometry{
		Width: 250, Height: 250, BorderWidth: 5, BorderRadius: 12, BorderColor: "#343434",
	}, transform.ZoomState{Level: 1.0})
}

// TestSettersClampToControlRanges pushes every setter past both ends of its
// documented range and checks the stored value lands on the limit.
func TestSettersClampToControlRanges(t *testing.T) {
	s := defaultStore()

	s.SetZoomLevel(5.0)
	if got := s.Snapshot().Zoom.Level; got != MaxZoom {
		t.Errorf("zoom clamped to %v, want %v", got, MaxZoom)
	}
	s.SetZoomLevel(0.2)
	if got := s.Snapshot().Zoom.Level; got != MinZoom {
		t.Errorf("zoom clamped to %v, want %v", got, MinZoom)
	}

	s.SetPan(-7, 7)
	snap := s.Snapshot()
	if snap.Zoom.PanX != MinPan || snap.Zoom.PanY != MaxPan {
		t.Errorf("pan clamped to (%v,%v), want (%v,%v)", snap.Zoom.PanX, snap.Zoom.PanY, MinPan, MaxPan)
	}

	s.SetWindowSize(50, 900)
	snap = s.Snapshot()
	if snap.Window.Width != MinWindowDim || snap.Window.Height != MaxWindowDim {
		t.Errorf("window clamped to %dx%d, want %dx%d",
			snap.Window.Width, snap.Window.Height, MinWindowDim, MaxWindowDim)
	}

	s.SetBorderWidth(99)
	if got := s.Snapshot().Window.BorderWidth; got != MaxBorderWidth {
		t.Errorf("border width clamped to %d, want %d", got, MaxBorderWidth)
	}

	s.SetBorderRadius(-1)
	if got := s.Snapshot().Window.BorderRadius; got != MinBorderRadius {
		t.Errorf("border radius clamped to %d, want %d", got, MinBorderRadius)
	}
}

// TestContentAreaDerivation checks content area = window - 2*border, floored
// at one pixel when a thick border swallows a small window.
func TestContentAreaDerivation(t *testing.T) {
	g := WindowGeometry{Width: 250, Height: 200, BorderWidth: 5}
	area := g.ContentArea()
	if area.Width != 240 || area.Height != 190 {
		t.Errorf("content area %dx%d, want 240x190", area.Width, area.Height)
	}

	g = WindowGeometry{Width: 100, Height: 100, BorderWidth: 20}
	area = g.ContentArea()
	if area.Width != 60 || area.Height != 60 {
		t.Errorf("content area %dx%d, want 60x60", area.Width, area.Height)
	}

	// Degenerate: border wider than half the window can never produce a
	// zero or negative area.
	g = WindowGeometry{Width: 100, Height: 100, BorderWidth: 60}
	area = g.ContentArea()
	if area.Width < 1 || area.Height < 1 {
		t.Errorf("content area %dx%d, want at least 1x1", area.Width, area.Height)
	}
}

// TestSnapshotIsolation verifies a snapshot is a value copy: setter calls
// after the snapshot do not leak into it.
func TestSnapshotIsolation(t *testing.T) {
	s := defaultStore()
	s.SetZoomLevel(2.0)
	snap := s.Snapshot()

	s.SetZoomLevel(3.0)
	s.SetPanX(1.0)
	s.SetWindowSize(300, 300)

	if snap.Zoom.Level != 2.0 || snap.Zoom.PanX != 0 || snap.Window.Width != 250 {
		t.Errorf("snapshot mutated after later setter calls: %+v", snap)
	}
}

// TestToggleVisible flips state and reports the new value.
func TestToggleVisible(t *testing.T) {
	s := defaultStore()
	if !s.Snapshot().Visible {
		t.Fatal("store should start visible")
	}
	if v := s.ToggleVisible(); v {
		t.Error("first toggle should report hidden")
	}
	if v := s.ToggleVisible(); !v {
		t.Error("second toggle should report visible")
	}
}

// TestConcurrentAccess hammers setters and snapshots from multiple
// goroutines; run with -race this catches any unguarded field.
func TestConcurrentAccess(t *testing.T) {
	s := defaultStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.SetZoomLevel(1.0 + float64(n%3))
				s.SetPan(float64(n%2), -float64(n%2))
				s.SetWindowSize(100+n, 100+n)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := s.Snapshot()
				_ = snap.Window.ContentArea()
			}
		}()
	}
	wg.Wait()
}
