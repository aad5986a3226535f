// Package config reads the markshot rc file, .env overrides and the saved
// tool defaults.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/markshot/internal/theme"
)

// Capture holds capture backend settings.
type Capture struct {
	Backend     string
	Display     string
	Decorations bool
	Cursor      bool
}

// Save holds post-capture settings.
type Save struct {
	Dir    string
	Format string
	Copy   bool
	Shadow bool
}

// Notify holds notification settings.
type Notify struct {
	Capture bool
	Save    bool
	Copy    bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	Capture Capture
	Save    Save
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Capture: Capture{Backend: "auto"},
		Save:    Save{Format: "png"},
		Themes:  make(map[string]*theme.Theme),
	}
}

// String returns the configuration in rc format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	sb.WriteString("\n")

	sb.WriteString("[capture]\n")
	fmt.Fprintf(&sb, "backend = %s\n", c.Capture.Backend)
	if c.Capture.Display != "" {
		fmt.Fprintf(&sb, "display = %s\n", c.Capture.Display)
	}
	fmt.Fprintf(&sb, "decorations = %v\n", c.Capture.Decorations)
	fmt.Fprintf(&sb, "cursor = %v\n", c.Capture.Cursor)
	sb.WriteString("\n")

	sb.WriteString("[save]\n")
	if c.Save.Dir != "" {
		fmt.Fprintf(&sb, "dir = %s\n", c.Save.Dir)
	}
	fmt.Fprintf(&sb, "format = %s\n", c.Save.Format)
	fmt.Fprintf(&sb, "copy = %v\n", c.Save.Copy)
	fmt.Fprintf(&sb, "shadow = %v\n", c.Save.Shadow)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	themeNames := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Key, theme.FormatColor(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
