package types

import "image"

// ToRGBA expands the frame into a standard *image.RGBA with fully opaque
// alpha. The frame's channel order is respected, so the result is always
// true RGBA regardless of whether the source was RGB or BGR.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	ri, bi := 0, 2
	if f.Order == OrderBGR {
		ri, bi = 2, 0
	}
	for y := 0; y < f.Height; y++ {
		srcOff := y * f.Stride()
		dstOff := y * img.Stride
		for x := 0; x < f.Width; x++ {
			s := srcOff + x*BytesPerPixel
			d := dstOff + x*4
			img.Pix[d] = f.Data[s+ri]
			img.Pix[d+1] = f.Data[s+1]
			img.Pix[d+2] = f.Data[s+bi]
			img.Pix[d+3] = 0xff
		}
	}
	return img
}

// FrameFromRGBA packs an *image.RGBA back into an interleaved 3-channel frame
// in the requested channel order, dropping alpha. The source rectangle's Min
// need not be the origin.
func FrameFromRGBA(img *image.RGBA, order ChannelOrder) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewFrame(w, h, order)
	ri, bi := 0, 2
	if order == OrderBGR {
		ri, bi = 2, 0
	}
	for y := 0; y < h; y++ {
		srcOff := (y+b.Min.Y-img.Rect.Min.Y)*img.Stride + (b.Min.X-img.Rect.Min.X)*4
		dstOff := y * out.Stride()
		for x := 0; x < w; x++ {
			s := srcOff + x*4
			d := dstOff + x*BytesPerPixel
			out.Data[d+ri] = img.Pix[s]
			out.Data[d+1] = img.Pix[s+1]
			out.Data[d+bi] = img.Pix[s+2]
		}
	}
	return out
}
