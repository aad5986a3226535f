package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/markshot/internal/theme"
)

// Parse reads configuration from an io.Reader. Keys are "key = value" or
// "Key: value"; unknown keys are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = theme.SetField(current, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		case section == "capture":
			err = setCaptureField(&cfg.Capture, key, value)
		case section == "save":
			err = setSaveField(&cfg.Save, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			name := section
			if name == "" {
				name = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, name, err)
		}
	}

	return cfg, scanner.Err()
}

func splitKeyValue(line string) (string, string, bool) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:sep])
	value := strings.TrimSpace(line[sep+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, key != ""
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.Save.Dir = value
	}
	return nil
}

func setCaptureField(c *Capture, key, value string) error {
	switch strings.ToLower(key) {
	case "backend":
		c.Backend = strings.ToLower(value)
	case "display":
		c.Display = value
	case "decorations":
		return parseBool(key, value, &c.Decorations)
	case "cursor":
		return parseBool(key, value, &c.Cursor)
	}
	return nil
}

func setSaveField(s *Save, key, value string) error {
	switch strings.ToLower(key) {
	case "dir":
		s.Dir = value
	case "format":
		s.Format = strings.ToLower(value)
	case "copy":
		return parseBool(key, value, &s.Copy)
	case "shadow":
		return parseBool(key, value, &s.Shadow)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	switch strings.ToLower(key) {
	case "capture":
		return parseBool(key, value, &n.Capture)
	case "save":
		return parseBool(key, value, &n.Save)
	case "copy":
		return parseBool(key, value, &n.Copy)
	}
	return nil
}

func parseBool(key, value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	*dst = b
	return nil
}
