package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MARKSHOT_"

// Loader finds and reads the rc file.
type Loader struct {
	// OverridePath is an explicit rc file, such as from -config.
	OverridePath string
	// WorkDir is searched for .markshotrc and .env; the process working
	// directory when empty.
	WorkDir string
	// Getenv reads the environment; os.Getenv when nil.
	Getenv func(string) string

	dotenv map[string]string
}

// NewLoader creates a Loader for an optional explicit path.
func NewLoader(overridePath string) *Loader {
	return &Loader{OverridePath: overridePath}
}

// getenv prefers the process environment over .env values.
func (l *Loader) getenv(key string) string {
	get := os.Getenv
	if l.Getenv != nil {
		get = l.Getenv
	}
	if v := get(key); v != "" {
		return v
	}
	return l.dotenv[key]
}

func (l *Loader) workDir() string {
	if l.WorkDir != "" {
		return l.WorkDir
	}
	wd, _ := os.Getwd()
	return wd
}

// ConfigDir returns $XDG_CONFIG_HOME/markshot.
func (l *Loader) ConfigDir() string {
	base := l.getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "markshot")
}

// Load reads .env files, the rc file and the environment, later sources
// winning. A missing rc file yields defaults.
func (l *Loader) Load() (*Config, error) {
	l.loadDotEnv()

	cfg := New()
	path, err := l.ConfigPath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = Parse(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg, l.getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads .env from the working and config directories. The
// working directory file wins.
func (l *Loader) loadDotEnv() {
	l.dotenv = map[string]string{}
	for _, path := range []string{filepath.Join(l.ConfigDir(), ".env"), filepath.Join(l.workDir(), ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			log.Printf("config: reading %s: %v", path, err)
			continue
		}
		for k, v := range values {
			l.dotenv[k] = v
		}
	}
}

// ConfigPath returns the rc file to read: the explicit path, then
// ./.markshotrc, then $XDG_CONFIG_HOME/markshot/config.rc. It is empty when
// none exists; a missing explicit path is an error.
func (l *Loader) ConfigPath() (string, error) {
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return l.OverridePath, nil
	}
	for _, path := range []string{
		filepath.Join(l.workDir(), ".markshotrc"),
		filepath.Join(l.ConfigDir(), "config.rc"),
	} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// DefaultPath is where SaveConfig writes when no rc file exists yet.
func (l *Loader) DefaultPath() string {
	return filepath.Join(l.ConfigDir(), "config.rc")
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cfg.String()), 0o644)
}

// ApplyEnv overrides cfg from MARKSHOT_* variables.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("THEME", &cfg.Theme)
	str("BACKEND", &cfg.Capture.Backend)
	str("DISPLAY", &cfg.Capture.Display)
	str("SAVE_DIR", &cfg.Save.Dir)
	str("FORMAT", &cfg.Save.Format)
	return errors.Join(
		boolean("DECORATIONS", &cfg.Capture.Decorations),
		boolean("CURSOR", &cfg.Capture.Cursor),
		boolean("COPY", &cfg.Save.Copy),
		boolean("SHADOW", &cfg.Save.Shadow),
		boolean("NOTIFY_CAPTURE", &cfg.Notify.Capture),
		boolean("NOTIFY_SAVE", &cfg.Notify.Save),
		boolean("NOTIFY_COPY", &cfg.Notify.Copy),
	)
}
