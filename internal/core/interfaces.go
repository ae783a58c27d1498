package core

import (
	"github.com/visiona/faceover/internal/params"
	"github.com/visiona/faceover/internal/types"
)

// Sink is the display collaborator the orchestrator drives. Satisfied by
// display.FyneSink and, for headless runs and tests, display.NullSink.
type Sink interface {
	// Order is the channel order the sink expects frames in.
	Order() types.ChannelOrder

	// Present shows one exactly content-area-sized frame.
	Present(f *types.Frame)

	// SetGeometry applies window size, border and rounding.
	SetGeometry(g params.WindowGeometry)

	// SetVisible shows or hides the feed.
	SetVisible(visible bool)

	// Close releases display resources.
	Close() error
}
