package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/transform"
	"github.com/visiona/faceover/internal/types"
)

// fakeSource hands out a fixed frame, or nothing when starved.
type fakeSource struct {
	mu      sync.Mutex
	frame   *types.Frame
	starved bool
	reads   int
}

func (s *fakeSource) TryRead() (*types.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.starved || s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *fakeSource) setStarved(v bool) {
	s.mu.Lock()
	s.starved = v
	s.mu.Unlock()
}

func testStore() *params.Store {
	return params.NewStore(params.WindowGeometry{
		Width: 250, Height: 250, BorderWidth: 5, BorderRadius: 12, BorderColor: "#343434",
	}, transform.ZoomState{Level: 1.0})
}

func solidFrame(w, h int, r, g, b byte) *types.Frame {
	f := types.NewFrame(w, h, types.OrderRGB)
	for i := 0; i < len(f.Data); i += 3 {
		f.Data[i], f.Data[i+1], f.Data[i+2] = r, g, b
	}
	return f
}

// TestRenderOutputShape: for a spread of zoom states and targets the rendered
// buffer always has exactly the target dimensions.
func TestRenderOutputShape(t *testing.T) {
	raw := solidFrame(640, 480, 1, 2, 3)
	zooms := []transform.ZoomState{
		{Level: 1.0},
		{Level: 2.0, PanX: 1.0, PanY: -1.0},
		{Level: 3.0, PanX: -0.5, PanY: 0.5},
	}
	targets := []transform.ContentArea{
		{Width: 240, Height: 240},
		{Width: 490, Height: 120},
		{Width: 1, Height: 50},
	}

	for _, z := range zooms {
		for _, target := range targets {
			out, err := Render(raw, z, target)
			if err != nil {
				t.Fatalf("Render(zoom=%.1f, target=%dx%d) failed: %v",
					z.Level, target.Width, target.Height, err)
			}
			if out.Width != target.Width || out.Height != target.Height {
				t.Errorf("output %dx%d, want %dx%d", out.Width, out.Height, target.Width, target.Height)
			}
		}
	}
}

// TestRenderClampsDegenerateTarget: a collapsed target dimension is clamped
// to one pixel before the aspect-fill stage, so rendering still succeeds.
func TestRenderClampsDegenerateTarget(t *testing.T) {
	raw := solidFrame(64, 48, 9, 9, 9)
	out, err := Render(raw, transform.ZoomState{Level: 1.0}, transform.ContentArea{Width: 0, Height: 50})
	if err != nil {
		t.Fatalf("Render with degenerate target failed: %v", err)
	}
	if out.Width != 1 || out.Height != 50 {
		t.Errorf("output %dx%d, want 1x50", out.Width, out.Height)
	}
}

// TestRenderNoFrame: an invalid raw frame yields ErrNoFrame, not a panic or
// an empty buffer.
func TestRenderNoFrame(t *testing.T) {
	_, err := Render(nil, transform.ZoomState{Level: 1.0}, transform.ContentArea{Width: 10, Height: 10})
	if !errors.Is(err, ErrNoFrame) {
		t.Errorf("Render(nil) error = %v, want ErrNoFrame", err)
	}
	_, err = Render(&types.Frame{}, transform.ZoomState{Level: 1.0}, transform.ContentArea{Width: 10, Height: 10})
	if !errors.Is(err, ErrNoFrame) {
		t.Errorf("Render(empty) error = %v, want ErrNoFrame", err)
	}
}

// TestPipelinePublishesFrames runs the loop against a healthy source and
// checks frames arrive at the output with the sink's channel order and the
// content-area dimensions from the parameter store.
func TestPipelinePublishesFrames(t *testing.T) {
	src := &fakeSource{frame: solidFrame(320, 240, 200, 100, 50)}
	store := testStore()
	p := New(src, store, Config{Interval: 2 * time.Millisecond, SinkOrder: types.OrderBGR})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	got := p.Output().Receive()
	if got == nil {
		t.Fatal("no frame published")
	}
	area := store.Snapshot().Window.ContentArea()
	if got.Width != area.Width || got.Height != area.Height {
		t.Errorf("published frame %dx%d, want content area %dx%d",
			got.Width, got.Height, area.Width, area.Height)
	}
	if got.Order != types.OrderBGR {
		t.Errorf("published order %s, want BGR", got.Order)
	}
	// Source was RGB(200,100,50); sink order BGR swaps channels 0 and 2.
	if got.Data[0] != 50 || got.Data[1] != 100 || got.Data[2] != 200 {
		t.Errorf("first pixel (%d,%d,%d), want BGR (50,100,200)",
			got.Data[0], got.Data[1], got.Data[2])
	}
}

// TestPipelineSkipsStarvedTicks: with no capture output the loop publishes
// nothing and counts skipped cycles; it resumes as soon as frames return.
func TestPipelineSkipsStarvedTicks(t *testing.T) {
	src := &fakeSource{frame: solidFrame(320, 240, 1, 2, 3), starved: true}
	store := testStore()
	p := New(src, store, Config{Interval: 2 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	time.Sleep(30 * time.Millisecond)
	if _, ok := p.Output().TryReceive(); ok {
		t.Fatal("starved pipeline published a frame")
	}
	stats := p.Stats()
	if stats.SkippedNoFrame == 0 {
		t.Error("starved cycles not counted")
	}
	if stats.Rendered != 0 {
		t.Errorf("Rendered = %d during starvation, want 0", stats.Rendered)
	}

	src.setStarved(false)
	if got := p.Output().Receive(); got == nil {
		t.Fatal("pipeline did not recover after starvation")
	}
}

// TestPipelineParameterChangeTakesEffectNextCycle: resizing the window midway
// changes the dimensions of subsequently published frames.
func TestPipelineParameterChangeTakesEffectNextCycle(t *testing.T) {
	src := &fakeSource{frame: solidFrame(320, 240, 1, 2, 3)}
	store := testStore()
	p := New(src, store, Config{Interval: 2 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	first := p.Output().Receive()
	if first == nil {
		t.Fatal("no initial frame")
	}

	store.SetWindowSize(300, 180)
	store.SetBorderWidth(10)
	want := store.Snapshot().Window.ContentArea()

	for i := 0; i < 500; i++ {
		got := p.Output().Receive()
		if got == nil {
			t.Fatal("output closed early")
		}
		if got.Width == want.Width && got.Height == want.Height {
			return
		}
	}
	t.Fatal("published frames never picked up the new content area")
}

// TestPipelineRunStopsOnCancel: cancelling the context ends Run and closes
// the output mailbox.
func TestPipelineRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{}
	p := New(src, testStore(), Config{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	if got := p.Output().Receive(); got != nil {
		t.Errorf("closed output returned a frame: %+v", got)
	}
}
