package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"golang.org/x/image/colornames"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/oplog"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/session"
	"github.com/example/markshot/internal/store"
	"github.com/example/markshot/internal/tool"
)

// drawCmd applies an operations script to an image without opening a window.
type drawCmd struct {
	*root
	fs *flag.FlagSet

	input  string
	output string
	script string
	shadow bool
	stdin  io.Reader
}

func (d *drawCmd) FlagSet() *flag.FlagSet { return d.fs }

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	d := &drawCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.StringVar(&d.input, "input", "", "image to annotate (png or jpeg); - for stdin")
	fs.StringVar(&d.output, "output", "", "where to write the result (.png or .pdf); - for PNG on stdout")
	fs.StringVar(&d.script, "script", "", "TOML operations script; - for stdin")
	fs.BoolVar(&d.shadow, "shadow", false, "add a drop shadow to the result")
	if err := parseFlags(fs, d, args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: d, err: fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	switch {
	case d.input == "" || d.output == "" || d.script == "":
		return nil, &UsageError{of: d, err: errors.New("-input, -output and -script are required")}
	case d.input == "-" && d.script == "-":
		return nil, &UsageError{of: d, err: errors.New("only one of -input and -script can read stdin")}
	}
	return d, nil
}

func (d *drawCmd) open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(d.stdin), nil
	}
	return os.Open(path)
}

func (d *drawCmd) Run() error {
	in, err := d.open(d.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	decoded, _, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", d.input, err)
	}
	base := image.NewRGBA(image.Rect(0, 0, decoded.Bounds().Dx(), decoded.Bounds().Dy()))
	draw.Draw(base, base.Bounds(), decoded, decoded.Bounds().Min, draw.Src)

	sr, err := d.open(d.script)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defaults := tool.DefaultDefaults()
	if d.root != nil && d.loader != nil {
		defaults = d.toolDefaults()
	}
	ops, err := decodeScript(sr, defaults)
	sr.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", d.script, err)
	}

	img := render.Render(base, ops)
	if d.shadow {
		img = render.ApplyShadow(img, render.DefaultShadowOptions()).Image
	}
	md := session.Metadata{ID: uuid.New(), Timestamp: time.Now(), Source: "draw", Selection: geom.FromImageRect(base.Bounds())}
	if d.output == "-" {
		return store.Encode(d.stdout, img, store.PNG, md)
	}
	if err := store.WriteFile(d.output, img, md); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %s\n", d.output)
	if d.root != nil && d.notifier != nil {
		final := session.FinalImage{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
		d.notifier.Saved(final, md, d.output)
	}
	return nil
}

type script struct {
	Ops []opEntry `toml:"op"`
}

// opEntry is one [[op]] table. Coordinates are canvas pixels; rect is
// x, y, width, height.
type opEntry struct {
	Kind   string      `toml:"kind"`
	Rect   []float64   `toml:"rect"`
	From   []float64   `toml:"from"`
	To     []float64   `toml:"to"`
	Points [][]float64 `toml:"points"`
	At     []float64   `toml:"at"`
	Text   string      `toml:"text"`
	Color  string      `toml:"color"`
	Width  float64     `toml:"width"`
	Size   float64     `toml:"size"`
	Fill   bool        `toml:"fill"`
	Radius int         `toml:"radius"`
	Block  int         `toml:"block"`
}

// decodeScript reads [[op]] tables into operations. Missing colours, widths
// and sizes come from d.
func decodeScript(r io.Reader, d tool.Defaults) ([]oplog.Operation, error) {
	var s script
	meta, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	var l oplog.Log
	for i, entry := range s.Ops {
		op, err := entry.operation(d)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i+1, err)
		}
		if op.Kind() == oplog.KindCrop {
			if _, ok := l.ActiveCrop(); ok {
				return nil, fmt.Errorf("op %d: %w", i+1, tool.ErrCropExists)
			}
		}
		l.Append(op)
	}
	return l.Snapshot(), nil
}

func (s opEntry) operation(d tool.Defaults) (oplog.Operation, error) {
	style := d.Style()
	if s.Color != "" {
		c, err := parseColor(s.Color)
		if err != nil {
			return nil, err
		}
		style.Color = c
	}
	if s.Width > 0 {
		style.Width = s.Width
	}
	name := strings.ToLower(strings.TrimSpace(s.Kind))
	if name == "pencil" {
		name = "line"
	}
	kind, err := oplog.ParseKind(name)
	if err != nil {
		return nil, err
	}

	switch kind {
	case oplog.KindArrow:
		from, err := point("from", s.From)
		if err != nil {
			return nil, err
		}
		to, err := point("to", s.To)
		if err != nil {
			return nil, err
		}
		if from.Eq(to) {
			return nil, tool.ErrDegenerateShape
		}
		return oplog.Arrow{From: from, To: to, Style: style}, nil
	case oplog.KindLine:
		pts := make([]geom.Point, 0, len(s.Points))
		for _, raw := range s.Points {
			p, err := point("points", raw)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
		if len(pts) < 2 {
			return nil, fmt.Errorf("line needs at least two points: %w", tool.ErrDegenerateShape)
		}
		return oplog.Line{Points: pts, Style: style}, nil
	case oplog.KindText:
		at, err := point("at", s.At)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("text is empty: %w", tool.ErrDegenerateShape)
		}
		size := d.FontSize
		if s.Size > 0 {
			size = s.Size
		}
		return oplog.Text{Anchor: at, Content: s.Text, Style: style, FontSize: size}, nil
	}

	if len(s.Rect) != 4 {
		return nil, fmt.Errorf("%s needs rect = [x, y, width, height]", kind)
	}
	box := geom.R(s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3])
	if box.Empty() {
		return nil, tool.ErrDegenerateShape
	}
	switch kind {
	case oplog.KindRectangle:
		return oplog.Rectangle{Bounds: box, Style: style, Filled: s.Fill}, nil
	case oplog.KindEllipse:
		return oplog.Ellipse{Bounds: box, Style: style, Filled: s.Fill}, nil
	case oplog.KindBlur:
		radius := d.BlurRadius
		if s.Radius > 0 {
			radius = s.Radius
		}
		return oplog.Blur{Bounds: box, Radius: radius}, nil
	case oplog.KindPixelate:
		block := d.PixelateBlock
		if s.Block > 0 {
			block = s.Block
		}
		return oplog.Pixelate{Bounds: box, BlockSize: block}, nil
	case oplog.KindHighlight:
		return oplog.Highlight{Bounds: box}, nil
	case oplog.KindCrop:
		return oplog.Crop{Bounds: box}, nil
	}
	return nil, fmt.Errorf("unsupported operation %s", kind)
}

func point(key string, v []float64) (geom.Point, error) {
	if len(v) != 2 {
		return geom.Point{}, fmt.Errorf("%s needs [x, y]", key)
	}
	return geom.Pt(v[0], v[1]), nil
}

// parseColor accepts CSS colour names, palette names and #rrggbb[aa].
func parseColor(s string) (geom.Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return geom.Color{}, fmt.Errorf("color cannot be empty")
	}
	if c, ok := tool.PaletteColor(name); ok {
		return c, nil
	}
	if c, ok := colornames.Map[name]; ok {
		return geom.FromColor(c), nil
	}
	if strings.HasPrefix(name, "#") {
		return geom.ParseHex(name)
	}
	return geom.Color{}, fmt.Errorf("unknown color %q", s)
}
