// Package pipeline drives the per-frame render cycle: capture, zoom/pan,
// aspect-fill, channel conversion, publish. One cycle runs per timer tick on
// a single goroutine, so cycles never overlap and the backlog is bounded by
// the one pending tick Go's ticker keeps.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/transform"
	"github.com/visiona/faceover/internal/types"
)

// ErrNoFrame indicates the capture source had no frame for this tick. The
// cycle is skipped and the previously published buffer stays current; no new
// output is produced.
var ErrNoFrame = errors.New("pipeline: no frame available this cycle")

// DefaultInterval is the nominal tick period (~30 Hz), matching the cadence
// of a typical webcam.
const DefaultInterval = 33 * time.Millisecond

// Source is the capture collaborator: a bounded, non-blocking read of the
// latest available frame.
type Source interface {
	TryRead() (*types.Frame, bool)
}

// Render computes one output buffer from a raw frame and the cycle's
// parameter snapshot: manual zoom/pan crop first, then aspect-fill to the
// clamped target area. Pure function; both stages allocate fresh frames.
func Render(raw *types.Frame, zoom transform.ZoomState, target transform.ContentArea) (*types.Frame, error) {
	if !raw.Valid() {
		return nil, ErrNoFrame
	}
	zoomed := transform.ApplyZoomPan(raw, zoom)
	return transform.AspectFill(zoomed, target.Clamped())
}

// Config tunes a Pipeline.
type Config struct {
	// Interval between ticks; DefaultInterval when zero.
	Interval time.Duration
	// Mirror flips frames horizontally before the zoom stage (self-view).
	Mirror bool
	// SinkOrder is the channel order the display sink expects. Frames are
	// converted after the transform stages, once per cycle.
	SinkOrder types.ChannelOrder
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	// Ticks is the number of timer ticks handled
	Ticks uint64
	// Rendered is the number of cycles that published a frame
	Rendered uint64
	// SkippedNoFrame is the number of cycles with nothing to capture
	SkippedNoFrame uint64
	// RenderErrors is the number of cycles abandoned mid-transform
	RenderErrors uint64
	// PublishDrops is the number of published frames the sink never took
	PublishDrops uint64
	// LastPublished is when the most recent frame was published
	LastPublished time.Time
}

// Pipeline owns the capture-transform-publish loop.
type Pipeline struct {
	src   Source
	store *params.Store
	out   *Mailbox
	cfg   Config

	ticks          uint64
	rendered       uint64
	skippedNoFrame uint64
	renderErrors   uint64
	lastPublished  atomic.Int64 // unix nanos
}

// New creates a pipeline reading frames from src and parameters from store.
func New(src Source, store *params.Store, cfg Config) *Pipeline {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Pipeline{
		src:   src,
		store: store,
		out:   NewMailbox(),
		cfg:   cfg,
	}
}

// Output returns the mailbox the display sink consumes from. It is closed
// when Run returns.
func (p *Pipeline) Output() *Mailbox {
	return p.out
}

// Run executes the tick loop until ctx is cancelled, then closes the output
// mailbox. Capture failures and per-frame transform errors are absorbed; no
// cycle outcome terminates the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	defer p.out.Close()

	slog.Info("pipeline started", "interval", p.cfg.Interval, "mirror", p.cfg.Mirror)

	for {
		select {
		case <-ctx.Done():
			slog.Info("pipeline stopped", "rendered", atomic.LoadUint64(&p.rendered))
			return ctx.Err()
		case <-ticker.C:
			atomic.AddUint64(&p.ticks, 1)
			p.cycle()
		}
	}
}

// cycle performs one capture-transform-publish pass.
func (p *Pipeline) cycle() {
	snap := p.store.Snapshot()

	raw, ok := p.src.TryRead()
	if !ok || !raw.Valid() {
		atomic.AddUint64(&p.skippedNoFrame, 1)
		slog.Debug("pipeline: no frame this tick")
		return
	}

	if p.cfg.Mirror {
		raw = raw.Mirrored()
	}

	out, err := Render(raw, snap.Zoom, snap.Window.ContentArea())
	if err != nil {
		atomic.AddUint64(&p.renderErrors, 1)
		slog.Warn("pipeline: cycle abandoned",
			"error", err,
			"seq", raw.Seq,
			"trace_id", raw.TraceID,
		)
		return
	}

	p.out.Publish(out.Converted(p.cfg.SinkOrder))
	atomic.AddUint64(&p.rendered, 1)
	p.lastPublished.Store(time.Now().UnixNano())
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Ticks:          atomic.LoadUint64(&p.ticks),
		Rendered:       atomic.LoadUint64(&p.rendered),
		SkippedNoFrame: atomic.LoadUint64(&p.skippedNoFrame),
		RenderErrors:   atomic.LoadUint64(&p.renderErrors),
		PublishDrops:   p.out.Drops(),
	}
	if ns := p.lastPublished.Load(); ns != 0 {
		s.LastPublished = time.Unix(0, ns)
	}
	return s
}
