package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/visiona/faceover/internal/types"
)

// gradientFrame builds a frame where every pixel encodes its own coordinates,
// so crops can be verified by value rather than by bookkeeping.
func gradientFrame(w, h int) *types.Frame {
	f := types.NewFrame(w, h, types.OrderRGB)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * types.BytesPerPixel
			f.Data[i] = byte(x)
			f.Data[i+1] = byte(y)
			f.Data[i+2] = byte(x ^ y)
		}
	}
	return f
}

// TestApplyZoomPanIdentity validates that zoom level 1.0 is a strict identity:
// the same frame comes back, pixel-identical and uncopied.
func TestApplyZoomPanIdentity(t *testing.T) {
	src := gradientFrame(64, 48)
	out := ApplyZoomPan(src, ZoomState{Level: 1.0})

	if out != src {
		t.Error("zoom level 1.0 should return the input frame itself, not a copy")
	}
	if diff := cmp.Diff(src.Data, out.Data); diff != "" {
		t.Errorf("identity zoom altered pixels (-want +got):\n%s", diff)
	}

	// Below 1.0 is treated the same as 1.0.
	if out := ApplyZoomPan(src, ZoomState{Level: 0.5}); out != src {
		t.Error("zoom level below 1.0 should be identity")
	}
}

// TestZoomCropContainment sweeps zoom levels and pan extremes and asserts the
// crop rectangle never leaves the source bounds, including odd dimensions
// where the centered offset does not divide evenly.
func TestZoomCropContainment(t *testing.T) {
	sizes := [][2]int{{1920, 1080}, {640, 480}, {641, 479}, {33, 17}, {2, 2}}
	pans := []float64{-1.0, -0.5, 0, 0.5, 1.0}

	for _, size := range sizes {
		w, h := size[0], size[1]
		for level := 1.1; level <= 3.05; level += 0.1 {
			for _, px := range pans {
				for _, py := range pans {
					x, y, cw, ch := zoomCrop(w, h, ZoomState{Level: level, PanX: px, PanY: py})
					if cw < 1 || ch < 1 {
						t.Fatalf("crop collapsed: %dx%d at level=%.1f", cw, ch, level)
					}
					if x < 0 || y < 0 || x+cw > w || y+ch > h {
						t.Fatalf("crop [%d,%d %dx%d] escapes %dx%d frame (level=%.1f pan=%.1f,%.1f)",
							x, y, cw, ch, w, h, level, px, py)
					}
				}
			}
		}
	}
}

// TestZoomCropPanExtremes validates the documented extreme-pan geometry:
// 1920 wide, zoom 2.0, pan fully right puts the 960-wide crop flush against
// the right edge, and fully left flush against the left edge.
func TestZoomCropPanExtremes(t *testing.T) {
	x, _, cw, _ := zoomCrop(1920, 1080, ZoomState{Level: 2.0, PanX: 1.0})
	if cw != 960 {
		t.Fatalf("crop width = %d, want 960", cw)
	}
	if x != 960 {
		t.Errorf("pan +1.0 start x = %d, want 960 (right edge)", x)
	}

	x, _, _, _ = zoomCrop(1920, 1080, ZoomState{Level: 2.0, PanX: -1.0})
	if x != 0 {
		t.Errorf("pan -1.0 start x = %d, want 0 (left edge)", x)
	}

	x, _, _, _ = zoomCrop(1920, 1080, ZoomState{Level: 2.0, PanX: 0})
	if x != 480 {
		t.Errorf("centered start x = %d, want 480", x)
	}
}

// TestZoomCropNoPanRoom covers the degenerate range where the crop is only
// one pixel narrower than the frame: the maximum offset is zero and panning
// must be a no-op instead of scaling against an empty range.
func TestZoomCropNoPanRoom(t *testing.T) {
	// 33 wide at a level just above 1.0 keeps 32 columns: maxOffset = 0.
	for _, pan := range []float64{-1.0, 0, 1.0} {
		x, _, cw, _ := zoomCrop(33, 17, ZoomState{Level: 1.01, PanX: pan})
		if cw != 32 {
			t.Fatalf("crop width = %d, want 32", cw)
		}
		if x != 0 {
			t.Errorf("pan %.1f with no pan room: start x = %d, want 0", pan, x)
		}
	}
}

// TestZoomCropDegenerateDimensions validates the one-pixel floor when extreme
// zoom would round a crop dimension to zero.
func TestZoomCropDegenerateDimensions(t *testing.T) {
	_, _, cw, ch := zoomCrop(2, 2, ZoomState{Level: 3.0})
	if cw < 1 || ch < 1 {
		t.Errorf("crop %dx%d, want at least 1x1", cw, ch)
	}
}

// TestApplyZoomPanPixels checks the actual pixels of a centered 2x zoom crop
// against the coordinate-encoding gradient.
func TestApplyZoomPanPixels(t *testing.T) {
	src := gradientFrame(8, 8)
	out := ApplyZoomPan(src, ZoomState{Level: 2.0})

	if out.Width != 4 || out.Height != 4 {
		t.Fatalf("crop dimensions %dx%d, want 4x4", out.Width, out.Height)
	}
	want := src.SubFrame(2, 2, 4, 4)
	if diff := cmp.Diff(want.Data, out.Data); diff != "" {
		t.Errorf("centered 2x crop pixels differ (-want +got):\n%s", diff)
	}

	// Source must be untouched.
	if diff := cmp.Diff(gradientFrame(8, 8).Data, src.Data); diff != "" {
		t.Errorf("source frame mutated (-want +got):\n%s", diff)
	}
}
