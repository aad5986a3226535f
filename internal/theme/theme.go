// Package theme holds the colours of the capture overlay.
package theme

import (
	"embed"
	"image/color"
)

//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme defines the overlay palette.
type Theme struct {
	Name string

	Background color.RGBA // behind the canvas when it is letterboxed
	Foreground color.RGBA // status and hint text

	// Selection
	Scrim           color.RGBA // drawn over everything outside the selection
	SelectionBorder color.RGBA

	// Toolbar
	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonActive          color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA
}

// Default returns the built-in dark theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{24, 24, 24, 255},
		Foreground:            color.RGBA{240, 240, 240, 255},
		Scrim:                 color.RGBA{0, 0, 0, 120},
		SelectionBorder:       color.RGBA{64, 160, 255, 255},
		ToolbarBackground:     color.RGBA{40, 40, 40, 230},
		ButtonBackground:      color.RGBA{60, 60, 60, 255},
		ButtonBackgroundHover: color.RGBA{80, 80, 80, 255},
		ButtonActive:          color.RGBA{64, 160, 255, 255},
		ButtonText:            color.RGBA{240, 240, 240, 255},
		ButtonBorder:          color.RGBA{20, 20, 20, 255},
	}
}
