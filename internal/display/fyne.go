package display

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/types"
)

// FyneSink shows the feed in a Fyne window: a rounded rectangle in the
// border color with the video image centered inside it. Frame updates go
// through canvas.Image.Refresh, geometry updates resize the window and
// restyle the border.
//
// Run must be called on the main goroutine (Fyne requirement); Present and
// the setters are safe from other goroutines.
type FyneSink struct {
	fyneApp fyne.App
	window  fyne.Window
	border  *canvas.Rectangle
	image   *canvas.Image
}

// NewFyneSink builds the preview window with the given initial geometry.
// The window is created hidden; Run shows it and enters the event loop.
func NewFyneSink(geom params.WindowGeometry) *FyneSink {
	a := app.New()
	w := a.NewWindow("faceover")
	w.SetFixedSize(true)

	border := canvas.NewRectangle(parseHexColor(geom.BorderColor))
	border.CornerRadius = float32(geom.BorderRadius)

	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest

	s := &FyneSink{
		fyneApp: a,
		window:  w,
		border:  border,
		image:   img,
	}
	w.SetContent(container.NewStack(border, container.NewCenter(img)))
	s.applyGeometry(geom)
	return s
}

// Order returns RGB; canvas images are RGBA underneath.
func (s *FyneSink) Order() types.ChannelOrder { return types.OrderRGB }

// Present swaps the displayed image for the new frame.
func (s *FyneSink) Present(f *types.Frame) {
	s.image.Image = f.ToRGBA()
	s.image.Refresh()
}

// SetGeometry resizes the window and restyles the border.
func (s *FyneSink) SetGeometry(g params.WindowGeometry) {
	s.applyGeometry(g)
}

func (s *FyneSink) applyGeometry(g params.WindowGeometry) {
	area := g.ContentArea()
	s.image.SetMinSize(fyne.NewSize(float32(area.Width), float32(area.Height)))
	s.border.FillColor = parseHexColor(g.BorderColor)
	s.border.CornerRadius = float32(g.BorderRadius)
	s.border.Refresh()
	s.window.Resize(fyne.NewSize(float32(g.Width), float32(g.Height)))
}

// SetVisible shows or hides the feed window.
func (s *FyneSink) SetVisible(visible bool) {
	if visible {
		s.window.Show()
		s.window.RequestFocus()
	} else {
		s.window.Hide()
	}
}

// Run shows the window and blocks in the Fyne event loop until the window
// closes or Close is called. Must run on the main goroutine.
func (s *FyneSink) Run() {
	s.window.ShowAndRun()
}

// Close quits the event loop, unblocking Run.
func (s *FyneSink) Close() error {
	s.fyneApp.Quit()
	return nil
}

// parseHexColor parses "#rrggbb" (or "#rgb") into an opaque color. Malformed
// input falls back to the default border grey rather than failing a frame
// cycle over cosmetics.
func parseHexColor(hex string) color.Color {
	fallback := color.NRGBA{R: 0x34, G: 0x34, B: 0x34, A: 0xff}

	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = fmt.Sprintf("%c%c%c%c%c%c", h[0], h[0], h[1], h[1], h[2], h[2])
	}
	if len(h) != 6 {
		if hex != "" {
			slog.Warn("display: malformed border color", "value", hex)
		}
		return fallback
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		slog.Warn("display: malformed border color", "value", hex)
		return fallback
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}
}
