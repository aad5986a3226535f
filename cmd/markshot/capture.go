package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/clipboard"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/overlay"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/session"
	"github.com/example/markshot/internal/store"
	"github.com/example/markshot/internal/tool"
)

type clipboardWriter interface {
	WriteImage(img *image.RGBA) error
	Wait(ctx context.Context) error
}

var (
	displaysFn     = capture.Displays
	listWindowsFn  = capture.ListWindows
	newProviderFn  = capture.NewProvider
	runOverlayFn   = overlay.Run
	newClipboardFn = func() clipboardWriter { return &clipboard.System{} }
)

type captureCmd struct {
	*root
	fs *flag.FlagSet

	mode        string
	display     string
	window      string
	backend     string
	decorations bool
	cursor      bool
	cropFirst   bool
	noEdit      bool
	output      string
	dir         string
	format      string
	copy        bool
	shadow      bool
	hold        time.Duration

	parsedMode   selector.Mode
	parsedFormat store.Format
}

func (c *captureCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseCaptureCmd(args []string, r *root) (*captureCmd, error) {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	c := &captureCmd{root: r, fs: fs}
	cfg := r.config
	fs.StringVar(&c.mode, "mode", "", "what to select: screen, window or region (default region)")
	fs.StringVar(&c.display, "display", cfg.Capture.Display, "display to capture: index, name, primary or all")
	fs.StringVar(&c.window, "window", "", "capture the window matching this selector without the editor")
	fs.StringVar(&c.backend, "backend", cfg.Capture.Backend, "capture backend: "+strings.Join(capture.Backends(), ", "))
	fs.BoolVar(&c.decorations, "decorations", cfg.Capture.Decorations, "include window manager frames in window captures")
	fs.BoolVar(&c.cursor, "cursor", cfg.Capture.Cursor, "include the pointer when the backend supports it")
	fs.BoolVar(&c.cropFirst, "crop-first", false, "start the editor with the crop tool selected")
	fs.BoolVar(&c.noEdit, "no-edit", false, "skip the editor for screen and window captures")
	fs.StringVar(&c.output, "output", "", "write to this file instead of the save directory; - for stdout")
	fs.StringVar(&c.dir, "dir", cfg.Save.Dir, "directory for timestamped captures")
	fs.StringVar(&c.format, "format", cfg.Save.Format, "file format for the save directory: png or pdf")
	fs.BoolVar(&c.copy, "copy", cfg.Save.Copy, "also copy the result to the clipboard")
	fs.BoolVar(&c.shadow, "shadow", cfg.Save.Shadow, "add a drop shadow to the result")
	fs.DurationVar(&c.hold, "hold", time.Minute, "how long to keep serving a copied image on X11")
	if err := parseFlags(fs, c, args); err != nil {
		return nil, err
	}

	operands := fs.Args()
	if c.mode == "" && len(operands) > 0 {
		c.mode, operands = operands[0], operands[1:]
	}
	if len(operands) > 0 {
		return nil, &UsageError{of: c, err: fmt.Errorf("unexpected arguments: %s", strings.Join(operands, " "))}
	}
	switch {
	case c.window != "":
		c.parsedMode = selector.WindowUnderPointer
	case c.mode == "":
		c.parsedMode = selector.InteractiveDrag
	default:
		m, err := selector.ParseMode(c.mode)
		if err != nil {
			return nil, &UsageError{of: c, err: err}
		}
		c.parsedMode = m
	}
	if c.noEdit && c.parsedMode == selector.InteractiveDrag {
		return nil, &UsageError{of: c, err: errors.New("-no-edit cannot be used to drag a region")}
	}
	if c.cropFirst && (c.noEdit || c.window != "") {
		return nil, &UsageError{of: c, err: errors.New("-crop-first needs the editor")}
	}
	f, err := store.ParseFormat(c.format)
	if err != nil {
		return nil, &UsageError{of: c, err: err}
	}
	c.parsedFormat = f
	return c, nil
}

func (c *captureCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, err := newProviderFn(c.backend, capture.Options{IncludeCursor: c.cursor})
	if err != nil {
		return &UsageError{of: c, err: err}
	}
	res, err := c.acquire(ctx, provider)
	if err != nil {
		return fmt.Errorf("failed to capture %s: %w", c.parsedMode, err)
	}
	return c.deliver(ctx, res)
}

func (c *captureCmd) acquire(ctx context.Context, provider capture.Provider) (overlay.Result, error) {
	defaults := c.toolDefaults()
	if c.window != "" {
		return c.captureWindow(ctx, provider, defaults)
	}
	displays, err := displaysFn()
	if err != nil {
		return overlay.Result{}, err
	}
	disp, err := capture.FindDisplay(displays, c.display)
	if err != nil {
		return overlay.Result{}, err
	}
	bounds := geom.FromImageRect(disp.Bounds)

	if c.noEdit {
		sess, err := session.New(ctx, session.Config{
			Selector: selector.New(bounds,
				selector.WithWindows(capture.Windows{}, capture.Windows{}),
				selector.WithDecorations(c.decorations)),
			Mode:     c.parsedMode,
			Provider: provider,
			Defaults: defaults,
		})
		if err != nil {
			return overlay.Result{}, err
		}
		return finishNow(sess), nil
	}

	frame, err := provider.Capture(ctx, bounds)
	if err != nil {
		return overlay.Result{}, err
	}
	start := defaults
	if c.cropFirst {
		start.Tool = tool.ToolCrop
	}
	res, err := runOverlayFn(ctx, overlay.Config{
		Frame:       frame,
		Origin:      disp.Bounds.Min,
		Mode:        c.parsedMode,
		Decorations: c.decorations,
		Windows:     capture.Windows{},
		Pointer:     capture.Windows{},
		Defaults:    start,
		Theme:       c.activeTheme,
	})
	if err != nil {
		return overlay.Result{}, err
	}
	kept := res.Defaults
	if c.cropFirst && kept.Tool == tool.ToolCrop {
		kept.Tool = defaults.Tool
	}
	c.saveToolDefaults(kept)
	return res, nil
}

func (c *captureCmd) captureWindow(ctx context.Context, provider capture.Provider, defaults tool.Defaults) (overlay.Result, error) {
	windows, err := listWindowsFn()
	if err != nil {
		return overlay.Result{}, err
	}
	w, err := capture.SelectWindow(c.window, windows)
	if err != nil {
		return overlay.Result{}, err
	}
	rect := geom.FromImageRect(w.Bounds(c.decorations))
	base, err := provider.Capture(ctx, rect)
	if err != nil {
		return overlay.Result{}, err
	}
	sess, err := session.Open(base, selector.Result{Mode: selector.WindowUnderPointer, Rect: rect},
		session.Config{Defaults: defaults, Source: w.Title})
	if err != nil {
		return overlay.Result{}, err
	}
	return finishNow(sess), nil
}

func finishNow(sess *session.Session) overlay.Result {
	final, md := sess.Finish()
	res := overlay.Result{Action: overlay.ActionFinish, Final: final, Metadata: md, Defaults: sess.Defaults()}
	sess.Close()
	return res
}

// deliver saves and copies the result. Save writes a file, Copy only copies,
// Finish does both as configured.
func (c *captureCmd) deliver(ctx context.Context, res overlay.Result) error {
	final := res.Final
	if c.shadow {
		img := render.ApplyShadow(final.Image, render.DefaultShadowOptions()).Image
		final = session.FinalImage{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	}

	var post session.PostCapture
	if c.notifier != nil {
		post.Notifier = c.notifier
	}
	if res.Action != overlay.ActionCopy {
		if c.output != "" {
			post.Persister = fileTarget{path: c.output, format: c.parsedFormat, stdout: c.stdout}
		} else {
			post.Persister = store.Dir{Path: c.dir, Format: c.parsedFormat}
		}
	}
	var cb clipboardWriter
	if c.copy || res.Action == overlay.ActionCopy {
		cb = newClipboardFn()
		post.Clipboard = cb
	}

	out, err := post.Run(ctx, final, res.Metadata)
	if out.Path != "" && c.output != "-" {
		fmt.Fprintf(os.Stderr, "saved %s\n", out.Path)
	}
	if out.Copied {
		fmt.Fprintln(os.Stderr, "copied image to clipboard")
		if c.hold > 0 {
			hctx, cancel := context.WithTimeout(ctx, c.hold)
			defer cancel()
			if werr := cb.Wait(hctx); werr != nil && !errors.Is(werr, context.DeadlineExceeded) && !errors.Is(werr, context.Canceled) {
				err = errors.Join(err, werr)
			}
		}
	}
	return err
}

// fileTarget persists to a fixed path, or to stdout for "-".
type fileTarget struct {
	path   string
	format store.Format
	stdout io.Writer
}

func (f fileTarget) Persist(ctx context.Context, img *image.RGBA, md session.Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.path == "-" {
		if err := store.Encode(f.stdout, img, f.format, md); err != nil {
			return "", fmt.Errorf("write %s to stdout: %w", f.format, err)
		}
		return "stdout", nil
	}
	if err := store.WriteFile(f.path, img, md); err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(f.path); err == nil {
		return abs, nil
	}
	return f.path, nil
}
