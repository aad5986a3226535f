package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/example/markshot/internal/config"
	"github.com/example/markshot/internal/notify"
	"github.com/example/markshot/internal/selector"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs      *flag.FlagSet
	program string
	stdout  io.Writer
	getenv  func(string) string

	configPath    string
	themeName     string
	verbose       bool
	captureAlerts bool
	saveAlerts    bool
	copyAlerts    bool

	loader      *config.Loader
	config      *config.Config
	notifier    *notify.Notifier
	activeTheme *theme.Theme
}

func (r *root) Program() string { return r.program }

func (r *root) FlagSet() *flag.FlagSet { return r.fs }

func (r *root) subcommand(name string) *root {
	sub := *r
	sub.program = strings.TrimSpace(r.program + " " + name)
	sub.fs = nil
	return &sub
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("markshot", flag.ContinueOnError),
		program: "markshot",
		stdout:  os.Stdout,
		getenv:  os.Getenv,
	}
	r.fs.StringVar(&r.configPath, "config", "", "read configuration from this rc file")
	r.fs.StringVar(&r.themeName, "theme", "", "overlay theme name or .theme file")
	r.fs.BoolVar(&r.verbose, "verbose", false, "log with timestamps and source locations")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", false, "show a desktop notification after capturing")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", false, "show a desktop notification after saving")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying")
	return r
}

// parseFlags parses args into fs and turns every failure into a UsageError
// for of.
func parseFlags(fs *flag.FlagSet, of HelpData, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: of, help: true}
		}
		return &UsageError{of: of, err: err}
	}
	return nil
}

// setup loads configuration, theme and notification settings. Flags win
// over the environment, which wins over the rc file.
func (r *root) setup() {
	if r.verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(0)
	}
	r.loader = config.NewLoader(r.configPath)
	r.loader.Getenv = r.getenv
	cfg, err := r.loader.Load()
	if err != nil {
		log.Printf("warning: failed to load config: %v", err)
		cfg = config.New()
	}
	r.config = cfg

	r.notifier = notify.New(notify.LoadPreferences(r.getenv))
	r.notifier.Enable(notify.EventCapture, r.captureAlerts || cfg.Notify.Capture)
	r.notifier.Enable(notify.EventSave, r.saveAlerts || cfg.Notify.Save)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts || cfg.Notify.Copy)

	name := r.themeName
	if name == "" {
		name = cfg.Theme
	}
	t, err := theme.NewLoader(cfg.Themes).Load(name)
	if err != nil {
		log.Printf("warning: failed to load theme %q: %v, using default", name, err)
		t = theme.Default()
	}
	r.activeTheme = t
}

func (r *root) toolDefaults() tool.Defaults {
	d, err := config.LoadTools(r.loader.ToolsPath())
	if err != nil {
		log.Printf("warning: %v", err)
	}
	return d
}

func (r *root) saveToolDefaults(d tool.Defaults) {
	if err := config.SaveTools(r.loader.ToolsPath(), d); err != nil {
		log.Printf("warning: saving tool defaults: %v", err)
	}
}

func (r *root) Run(args []string) error {
	if err := parseFlags(r.fs, r, args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.setup()

	name := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]
	var (
		cmd runnable
		err error
	)
	switch name {
	case "capture":
		cmd, err = parseCaptureCmd(subArgs, r.subcommand(name))
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r.subcommand(name))
	case "windows":
		cmd, err = parseWindowsCmd(subArgs, r.subcommand(name))
	case "monitors":
		cmd, err = parseMonitorsCmd(subArgs, r.subcommand(name))
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r.subcommand(name))
	case "widths":
		cmd, err = parseWidthsCmd(subArgs, r.subcommand(name))
	case "themes":
		cmd, err = parseThemesCmd(subArgs, r.subcommand(name))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(name))
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r, err: fmt.Errorf("unknown command %q", name)}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// exitCode maps an error to the process status: 0 for success, help and
// cancellation, 2 for bad usage, 1 otherwise.
func exitCode(err error) int {
	if err == nil || errors.Is(err, selector.ErrCancelled) {
		return 0
	}
	var uerr *UsageError
	if errors.As(err, &uerr) {
		if uerr.help {
			return 0
		}
		return 2
	}
	return 1
}

func main() {
	err := newRoot().Run(os.Args[1:])
	if err != nil && !errors.Is(err, selector.ErrCancelled) {
		var uerr *UsageError
		if errors.As(err, &uerr) && uerr.help {
			fmt.Fprint(os.Stdout, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	os.Exit(exitCode(err))
}
