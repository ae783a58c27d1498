package types

import "time"

// ChannelOrder identifies the interleaved channel layout of a frame's pixel data.
// Capture backends and display sinks do not agree on channel order (OpenCV
// delivers BGR, most display surfaces want RGB), so the order travels with the
// frame and is converted once at the pipeline boundary.
type ChannelOrder int

const (
	// OrderRGB is red-green-blue interleaved, 8 bits per channel.
	OrderRGB ChannelOrder = iota
	// OrderBGR is blue-green-red interleaved, 8 bits per channel.
	OrderBGR
)

// String returns a human-readable string representation of the channel order
func (o ChannelOrder) String() string {
	switch o {
	case OrderRGB:
		return "RGB"
	case OrderBGR:
		return "BGR"
	default:
		return "RGB"
	}
}

// BytesPerPixel is the size of one interleaved pixel (3 channels × 8 bits, no alpha).
const BytesPerPixel = 3

// Frame represents a single video frame.
//
// Immutability contract: Data MUST NOT be modified after the frame has been
// handed to another component (published to a mailbox, presented to a sink).
// Transform stages honor this by always allocating a fresh frame; they never
// reinterpret or rewrite a source frame's channels in place.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the capture provider
	Seq uint64
	// Timestamp is when the frame was captured/decoded
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Order is the interleaved channel layout of Data
	Order ChannelOrder
	// Data contains the raw pixel bytes, Width*Height*3 long, row-major,
	// no padding between rows
	Data []byte
	// TraceID is a unique identifier for tracing a frame across the pipeline
	TraceID string
}

// NewFrame allocates a zeroed frame of the given dimensions and channel order.
func NewFrame(width, height int, order ChannelOrder) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Order:  order,
		Data:   make([]byte, width*height*BytesPerPixel),
	}
}

// Valid reports whether the frame has positive dimensions and a fully backed
// data slice.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 &&
		len(f.Data) >= f.Width*f.Height*BytesPerPixel
}

// Stride returns the length of one pixel row in bytes.
func (f *Frame) Stride() int {
	return f.Width * BytesPerPixel
}

// withData returns a copy of the frame's metadata wrapping new pixel storage.
// Seq, Timestamp and TraceID carry over so a transformed frame remains
// traceable to its capture.
func (f *Frame) withData(width, height int, data []byte) *Frame {
	return &Frame{
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		Width:     width,
		Height:    height,
		Order:     f.Order,
		Data:      data,
		TraceID:   f.TraceID,
	}
}

// SubFrame copies the rectangle [x, x+w) × [y, y+h) out of the frame into a
// newly allocated frame. The rectangle must lie entirely within the frame
// bounds; callers are responsible for clamping first.
func (f *Frame) SubFrame(x, y, w, h int) *Frame {
	out := make([]byte, w*h*BytesPerPixel)
	srcStride := f.Stride()
	dstStride := w * BytesPerPixel
	for row := 0; row < h; row++ {
		srcOff := (y+row)*srcStride + x*BytesPerPixel
		copy(out[row*dstStride:(row+1)*dstStride], f.Data[srcOff:srcOff+dstStride])
	}
	return f.withData(w, h, out)
}

// Converted returns the frame with its pixel data in the requested channel
// order. When the frame is already in that order it is returned as-is;
// otherwise a new frame is allocated with the first and third channel of every
// pixel swapped (RGB↔BGR is its own inverse).
func (f *Frame) Converted(order ChannelOrder) *Frame {
	if f.Order == order {
		return f
	}
	out := make([]byte, len(f.Data))
	n := f.Width * f.Height * BytesPerPixel
	for i := 0; i+2 < n; i += BytesPerPixel {
		out[i] = f.Data[i+2]
		out[i+1] = f.Data[i+1]
		out[i+2] = f.Data[i]
	}
	conv := f.withData(f.Width, f.Height, out)
	conv.Order = order
	return conv
}

// Mirrored returns a new frame with each pixel row reversed (horizontal flip).
// Webcams capture a non-mirrored view; flipping makes the feed behave like a
// mirror, which is what people expect from a self-view.
func (f *Frame) Mirrored() *Frame {
	out := make([]byte, len(f.Data))
	stride := f.Stride()
	for row := 0; row < f.Height; row++ {
		base := row * stride
		for x := 0; x < f.Width; x++ {
			src := base + x*BytesPerPixel
			dst := base + (f.Width-1-x)*BytesPerPixel
			out[dst] = f.Data[src]
			out[dst+1] = f.Data[src+1]
			out[dst+2] = f.Data[src+2]
		}
	}
	return f.withData(f.Width, f.Height, out)
}
