package transform

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/visiona/faceover/internal/types"
)

var (
	// ErrInvalidTarget indicates a content area that collapsed below one
	// pixel in a dimension. The pipeline clamps targets before calling
	// AspectFill, so seeing this error means a caller skipped the clamp.
	ErrInvalidTarget = errors.New("transform: target dimensions must be at least 1x1")

	// ErrResample indicates the interpolation step could not run, e.g. a
	// source frame with no backing data. The cycle that hits it is
	// abandoned; the previously displayed buffer stays on screen.
	ErrResample = errors.New("transform: resample failed")
)

// ContentArea is the exact pixel size the final output buffer must have.
// It is derived externally as window size minus twice the border width,
// floored at one pixel per axis.
type ContentArea struct {
	Width  int
	Height int
}

// Clamped returns the content area with both dimensions floored at 1.
func (a ContentArea) Clamped() ContentArea {
	if a.Width < 1 {
		a.Width = 1
	}
	if a.Height < 1 {
		a.Height = 1
	}
	return a
}

// aspectRatio compares as equal within this tolerance. Integer frame
// dimensions can never produce ratios closer than ~1e-7 apart without being
// identical, so the tolerance only absorbs float division noise.
const aspectTolerance = 1e-9

// aspectCrop computes the centered sub-rectangle of a w×h frame whose aspect
// ratio matches the target area. When the target is relatively wider the
// frame loses rows top and bottom; when relatively taller it loses columns
// left and right; equal ratios keep the full frame.
func aspectCrop(w, h int, target ContentArea) (x, y, cw, ch int) {
	srcAR := float64(w) / float64(h)
	targetAR := float64(target.Width) / float64(target.Height)

	x, y, cw, ch = 0, 0, w, h
	switch {
	case targetAR > srcAR+aspectTolerance:
		newH := int(float64(w) / targetAR)
		cropY := (h - newH) / 2
		y = cropY
		ch = h - 2*cropY
	case targetAR < srcAR-aspectTolerance:
		newW := int(float64(h) * targetAR)
		cropX := (w - newW) / 2
		x = cropX
		cw = w - 2*cropX
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return x, y, cw, ch
}

// AspectFill crops a frame to the target's aspect ratio and resizes the
// result to exactly target.Width × target.Height using bilinear resampling.
//
// The pre-resize crop already matches the target ratio, so the resize is a
// uniform scale; integer rounding of the crop bounds can leave a sub-pixel
// ratio mismatch which the resize absorbs. The output dimensions are exact
// for any valid input frame and any target with positive dimensions.
func AspectFill(f *types.Frame, target ContentArea) (*types.Frame, error) {
	if target.Width < 1 || target.Height < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidTarget, target.Width, target.Height)
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: source frame is empty", ErrResample)
	}

	x, y, cw, ch := aspectCrop(f.Width, f.Height, target)
	cropped := f
	if x != 0 || y != 0 || cw != f.Width || ch != f.Height {
		cropped = f.SubFrame(x, y, cw, ch)
	}

	// Already at target size, no interpolation needed.
	if cw == target.Width && ch == target.Height {
		if cropped == f {
			return f.SubFrame(0, 0, f.Width, f.Height), nil
		}
		return cropped, nil
	}

	src := cropped.ToRGBA()
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	out := types.FrameFromRGBA(dst, f.Order)
	out.Seq = f.Seq
	out.Timestamp = f.Timestamp
	out.TraceID = f.TraceID
	return out, nil
}
