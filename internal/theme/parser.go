package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strings"

	"github.com/example/markshot/internal/geom"
)

// Parse reads a theme definition from an io.Reader.
// The format is one "Key: #RRGGBB" or "Key: #RRGGBBAA" pair per line.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || (strings.HasPrefix(line, "#") && !strings.Contains(line, ":")) {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if err := SetField(t, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

// SetField sets the colour field named key, ignoring case. Unknown keys are
// ignored so newer files load in older builds.
func SetField(t *Theme, key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !strings.EqualFold(f.Name, key) || f.Type != reflect.TypeOf(color.RGBA{}) {
			continue
		}
		col, err := ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		val.Field(i).Set(reflect.ValueOf(col))
		return nil
	}
	return nil
}

// Fields returns the colour fields in declaration order, for writing a
// theme back out.
func Fields(t *Theme) []NamedColor {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var out []NamedColor
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := val.Field(i).Interface().(color.RGBA); ok {
			out = append(out, NamedColor{Key: typ.Field(i).Name, Color: c})
		}
	}
	return out
}

// NamedColor is one theme entry.
type NamedColor struct {
	Key   string
	Color color.RGBA
}

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.RGBA, error) {
	c, err := geom.ParseHex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	// premultiplied, as stored in image.RGBA
	return color.RGBAModel.Convert(c.NRGBA()).(color.RGBA), nil
}

// FormatColor writes c in the form ParseColor reads.
func FormatColor(c color.RGBA) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", n.R, n.G, n.B, n.A)
}
