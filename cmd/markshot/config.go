package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/markshot/internal/config"
)

type configCmd struct {
	*root
	fs     *flag.FlagSet
	output string
}

func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	c := &configCmd{root: r, fs: fs}
	fs.StringVar(&c.output, "output", "", "file for config save (default: the file in use, or the user config file)")
	if err := parseFlags(fs, c, args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	switch fs.Arg(0) {
	case "print", "save", "path":
	default:
		return nil, &UsageError{of: c, err: fmt.Errorf("unknown config command %q", fs.Arg(0))}
	}
	return c, nil
}

func (c *configCmd) Run() error {
	switch c.fs.Arg(0) {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
	case "path":
		path, err := c.loader.ConfigPath()
		if err != nil {
			return err
		}
		if path == "" {
			path = c.loader.DefaultPath() + " (not created)"
		}
		fmt.Fprintln(c.stdout, path)
		fmt.Fprintln(c.stdout, c.loader.ToolsPath())
	case "save":
		path := c.output
		if path == "" {
			existing, err := c.loader.ConfigPath()
			if err != nil {
				return err
			}
			path = existing
		}
		if path == "" {
			path = c.loader.DefaultPath()
		}
		if err := config.SaveConfig(path, c.config); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", path)
	}
	return nil
}
