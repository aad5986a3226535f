// Package tool turns pointer gestures into annotation operations. A Machine
// owns the session's operation log: it is the only writer.
package tool

import (
	"fmt"
	"strings"

	"github.com/example/markshot/internal/geom"
)

// Tool selects what a gesture produces.
type Tool int

const (
	ToolRectangle Tool = iota
	ToolEllipse
	ToolArrow
	ToolLine
	ToolPencil
	ToolText
	ToolBlur
	ToolPixelate
	ToolHighlight
	ToolCrop
)

var toolNames = [...]string{"rectangle", "ellipse", "arrow", "line", "pencil", "text", "blur", "pixelate", "highlight", "crop"}

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	out := make([]Tool, len(toolNames))
	for i := range out {
		out[i] = Tool(i)
	}
	return out
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool resolves a tool by name.
func ParseTool(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tool) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tool) UnmarshalText(b []byte) error {
	v, err := ParseTool(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Default effect parameters used by the blur and pixelate tools.
const (
	DefaultBlurRadius    = 8
	DefaultPixelateBlock = 12
)

// Defaults is the last-used tool configuration. It is handed to a Machine at
// session start and read back at session end.
type Defaults struct {
	Tool          Tool       `toml:"tool"`
	Color         geom.Color `toml:"color"`
	Width         float64    `toml:"width"`
	FontSize      float64    `toml:"font_size"`
	Fill          bool       `toml:"fill"`
	BlurRadius    int        `toml:"blur_radius"`
	PixelateBlock int        `toml:"pixelate_block"`
}

// DefaultDefaults returns the settings used when nothing was persisted.
func DefaultDefaults() Defaults {
	return Defaults{
		Tool:          ToolRectangle,
		Color:         palette[defaultColorIndex].Color,
		Width:         widths[2],
		FontSize:      textSizes[1],
		BlurRadius:    DefaultBlurRadius,
		PixelateBlock: DefaultPixelateBlock,
	}
}

// Normalize fills unusable fields from DefaultDefaults.
func (d Defaults) Normalize() Defaults {
	def := DefaultDefaults()
	if d.Tool < 0 || int(d.Tool) >= len(toolNames) {
		d.Tool = def.Tool
	}
	if d.Color.A <= 0 {
		d.Color = def.Color
	}
	if d.Width <= 0 {
		d.Width = def.Width
	}
	if d.FontSize <= 0 {
		d.FontSize = def.FontSize
	}
	if d.BlurRadius <= 0 {
		d.BlurRadius = def.BlurRadius
	}
	if d.PixelateBlock <= 1 {
		d.PixelateBlock = def.PixelateBlock
	}
	return d
}

// Style returns the stroke style the defaults describe.
func (d Defaults) Style() geom.StrokeStyle {
	return geom.Stroke(d.Color, d.Width)
}
