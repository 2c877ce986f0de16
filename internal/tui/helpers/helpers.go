package helpers

import (
	"arcopilot/internal/logging"
)

// Terminal size assumed until the first window size message arrives.
const (
	DefaultHeight = 24
	DefaultWidth  = 80
)

// UIContext carries environment information needed for creating UI models
type UIContext struct {
	Width  int
	Height int
	Logger *logging.AppLogger
}

// NewUIContext creates a new UI context with the provided parameters
func NewUIContext(width, height int, logger *logging.AppLogger) UIContext {
	return UIContext{
		Width:  width,
		Height: height,
		Logger: logger,
	}
}

// HasValidDimensions checks if the context has valid window dimensions
func (ctx UIContext) HasValidDimensions() bool {
	return ctx.Width > 0 && ctx.Height > 0
}

// Dimensions returns the context size, or the default terminal size when the
// context has none.
func (ctx UIContext) Dimensions() (width, height int) {
	if !ctx.HasValidDimensions() {
		return DefaultWidth, DefaultHeight
	}
	return ctx.Width, ctx.Height
}
