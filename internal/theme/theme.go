package theme

import (
	"image/color"
)

// Theme defines the colors used to paint the image, its annotations and
// the status line.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Behind the image
	Foreground color.RGBA

	// Annotations
	OverlayBorder   color.RGBA
	OverlayFill     color.RGBA // Usually translucent
	OverlaySelected color.RGBA // Border of the selected annotation
	OverlayDragging color.RGBA // Border while being moved or resized
	HandleFill      color.RGBA
	HandleBorder    color.RGBA
	RemoveHandle    color.RGBA
	RemoveGlyph     color.RGBA

	// Status line
	StatusBackground color.RGBA
	StatusText       color.RGBA

	// Transparent image areas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{220, 220, 220, 255},
		Foreground:       color.RGBA{0, 0, 0, 255},
		OverlayBorder:    color.RGBA{0, 120, 215, 255},
		OverlayFill:      color.RGBA{0, 120, 215, 48},
		OverlaySelected:  color.RGBA{255, 140, 0, 255},
		OverlayDragging:  color.RGBA{0, 160, 80, 255},
		HandleFill:       color.RGBA{255, 255, 255, 255},
		HandleBorder:     color.RGBA{0, 0, 0, 255},
		RemoveHandle:     color.RGBA{200, 30, 30, 255},
		RemoveGlyph:      color.RGBA{255, 255, 255, 255},
		StatusBackground: color.RGBA{200, 200, 200, 255},
		StatusText:       color.RGBA{0, 0, 0, 255},
		CheckerLight:     color.RGBA{220, 220, 220, 255},
		CheckerDark:      color.RGBA{192, 192, 192, 255},
	}
}
