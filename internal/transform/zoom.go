package transform

import (
	"math"

	"github.com/visiona/faceover/internal/types"
)

// ZoomState holds the manual zoom/pan parameters for one render cycle.
// Callers snapshot it from the live control state before each cycle; the
// stages below never retain it.
type ZoomState struct {
	// Level is the digital zoom factor. 1.0 means no cropping; the crop
	// window shrinks by 1/Level per axis as it grows.
	Level float64
	// PanX and PanY are fractions of the maximum available crop offset at
	// the current zoom level, in [-1, 1]. 0 keeps the crop centered, +1
	// pushes it to the right/bottom edge, -1 to the left/top edge.
	PanX float64
	PanY float64
}

// zoomCrop computes the crop rectangle for a w×h frame under the given zoom
// state. Returns origin and dimensions; the rectangle always lies within
// [0,w)×[0,h), and dimensions never collapse below one pixel.
func zoomCrop(w, h int, s ZoomState) (x, y, cw, ch int) {
	cropFactor := 1.0 / s.Level
	cw = int(float64(w) * cropFactor)
	ch = int(float64(h) * cropFactor)

	// Extreme zoom on a small frame can floor a dimension to zero.
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}

	x = panOffset(w, cw, s.PanX)
	y = panOffset(h, ch, s.PanY)
	return x, y, cw, ch
}

// panOffset places the crop window of size crop along an axis of size dim.
// maxOffset is the centered position; pan shifts relative to it. maxOffset of
// zero means there is no room to pan, so the offset computation is skipped
// entirely rather than scaling pan against a degenerate range.
func panOffset(dim, crop int, pan float64) int {
	maxOffset := (dim - crop) / 2
	if maxOffset == 0 {
		return clampInt(maxOffset, 0, dim-crop)
	}
	start := maxOffset + int(math.Round(pan*float64(maxOffset)))
	return clampInt(start, 0, dim-crop)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyZoomPan applies the manual digital zoom/pan crop to a frame.
//
// Zoom levels at or below 1.0 are the identity: the input frame is returned
// untouched, no copy. Otherwise a fresh frame holding the crop window is
// returned. The crop rectangle is clamped to the source bounds, so extreme
// pan values simply pin the window against the nearest edge.
func ApplyZoomPan(f *types.Frame, s ZoomState) *types.Frame {
	if s.Level <= 1.0 {
		return f
	}
	x, y, cw, ch := zoomCrop(f.Width, f.Height, s)
	return f.SubFrame(x, y, cw, ch)
}
