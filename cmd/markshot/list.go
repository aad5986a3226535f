package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/overlay"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

// listCmd is shared by the commands that take no arguments and print a list.
type listCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *listCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseListCmd(name string, args []string, r *root, of func(*listCmd) HelpData) (*listCmd, error) {
	c := &listCmd{root: r, fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	if err := parseFlags(c.fs, of(c), args); err != nil {
		return nil, err
	}
	if c.fs.NArg() != 0 {
		return nil, &UsageError{of: of(c), err: fmt.Errorf("unexpected arguments: %s", strings.Join(c.fs.Args(), " "))}
	}
	return c, nil
}

type windowsCmd struct{ *listCmd }

func parseWindowsCmd(args []string, r *root) (*windowsCmd, error) {
	c, err := parseListCmd("windows", args, r, func(l *listCmd) HelpData { return &windowsCmd{l} })
	if err != nil {
		return nil, err
	}
	return &windowsCmd{c}, nil
}

func (c *windowsCmd) Run() error {
	windows, err := listWindowsFn()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "available windows (* marks the active window):")
	for _, w := range windows {
		marker := " "
		if w.Active {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %s\n", marker, formatWindowLabel(w))
	}
	fmt.Fprintln(c.stdout, "selectors: active, index:<n>, id:<hex>, pid:<pid>, class:<name>, title:<text>, substring match")
	return nil
}

func formatWindowLabel(w capture.WindowInfo) string {
	title := w.Title
	if title == "" {
		title = "(untitled)"
	}
	r := w.Rect
	label := fmt.Sprintf("%2d: %q id:0x%x %dx%d+%d+%d", w.Index, title, w.ID, r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
	if w.Class != "" {
		label += " class:" + w.Class
	}
	if w.PID != 0 {
		label += fmt.Sprintf(" pid:%d", w.PID)
	}
	if w.Executable != "" {
		label += " exec:" + w.Executable
	}
	return label
}

type monitorsCmd struct{ *listCmd }

func parseMonitorsCmd(args []string, r *root) (*monitorsCmd, error) {
	c, err := parseListCmd("monitors", args, r, func(l *listCmd) HelpData { return &monitorsCmd{l} })
	if err != nil {
		return nil, err
	}
	return &monitorsCmd{c}, nil
}

func (c *monitorsCmd) Run() error {
	displays, err := displaysFn()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "available displays (* marks the primary display):")
	for _, d := range displays {
		marker := " "
		if d.Primary {
			marker = "*"
		}
		b := d.Bounds
		fmt.Fprintf(c.stdout, "%s %2d: %-12s %dx%d+%d+%d\n", marker, d.Index, d.Name, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
	}
	all := capture.DesktopBounds(displays)
	fmt.Fprintf(c.stdout, "  all: %dx%d+%d+%d\n", all.Dx(), all.Dy(), all.Min.X, all.Min.Y)
	return nil
}

type colorsCmd struct{ *listCmd }

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	c, err := parseListCmd("colors", args, r, func(l *listCmd) HelpData { return &colorsCmd{l} })
	if err != nil {
		return nil, err
	}
	return &colorsCmd{c}, nil
}

func (c *colorsCmd) Run() error {
	def := tool.DefaultDefaults().Color
	fmt.Fprintln(c.stdout, "available palette colors (* marks the default color):")
	for idx, entry := range tool.Palette() {
		marker := " "
		if entry.Color == def {
			marker = "*"
		}
		n := entry.Color.NRGBA()
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", n.R, n.G, n.B)
		fmt.Fprintf(c.stdout, "%s %2d: %-12s %s %s\n", marker, idx, entry.Name, entry.Color.Hex(), block)
	}
	fmt.Fprintln(c.stdout, "draw scripts also accept CSS colour names and #rrggbb[aa]")
	return nil
}

type widthsCmd struct{ *listCmd }

func parseWidthsCmd(args []string, r *root) (*widthsCmd, error) {
	c, err := parseListCmd("widths", args, r, func(l *listCmd) HelpData { return &widthsCmd{l} })
	if err != nil {
		return nil, err
	}
	return &widthsCmd{c}, nil
}

func (c *widthsCmd) Run() error {
	def := tool.DefaultDefaults()
	fmt.Fprintln(c.stdout, "available stroke widths (* marks the default width):")
	for _, w := range tool.Widths() {
		marker := " "
		if w == def.Width {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %3gpx\n", marker, w)
	}
	fmt.Fprintln(c.stdout, "text sizes:")
	for _, s := range tool.TextSizes() {
		marker := " "
		if s == def.FontSize {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %3gpt\n", marker, s)
	}
	fmt.Fprintln(c.stdout, "editor keys:")
	fmt.Fprint(c.stdout, overlay.HelpText())
	return nil
}

type themesCmd struct{ *listCmd }

func parseThemesCmd(args []string, r *root) (*themesCmd, error) {
	c, err := parseListCmd("themes", args, r, func(l *listCmd) HelpData { return &themesCmd{l} })
	if err != nil {
		return nil, err
	}
	return &themesCmd{c}, nil
}

func (c *themesCmd) Run() error {
	var custom map[string]*theme.Theme
	active := ""
	if c.config != nil {
		custom = c.config.Themes
	}
	if c.activeTheme != nil {
		active = c.activeTheme.Name
	}
	fmt.Fprintln(c.stdout, "available themes (* marks the active theme):")
	for _, name := range theme.NewLoader(custom).Names() {
		marker := " "
		if strings.EqualFold(name, active) {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %s\n", marker, name)
	}
	return nil
}
