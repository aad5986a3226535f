package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader resolves themes by name or path.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Custom holds themes defined inline in the rc file.
	Custom map[string]*Theme
}

// NewLoader creates a Loader with the standard search directories.
func NewLoader(custom map[string]*Theme) *Loader {
	return &Loader{
		ConfigDir: filepath.Join(configHome(), "markshot", "themes"),
		SystemDir: "/usr/share/markshot/themes",
		Custom:    custom,
	}
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// Load resolves name in order: rc-file themes, an existing file path,
// embedded themes, ConfigDir, SystemDir. An empty name is the default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, ok := l.Custom[name]; ok {
		return t, nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	if t, err := parseFile(EmbeddedThemes, "defaults/"+filename); err == nil {
		return t, nil
	}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			return parseFile(os.DirFS(dir), filename)
		}
	}
	return nil, fmt.Errorf("theme %q not found", name)
}

// Names lists the themes Load can find without a path.
func (l *Loader) Names() []string {
	seen := map[string]bool{}
	for name := range l.Custom {
		seen[name] = true
	}
	collect := func(fsys fs.FS, dir string) {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".theme") {
				seen[strings.TrimSuffix(e.Name(), ".theme")] = true
			}
		}
	}
	collect(EmbeddedThemes, "defaults")
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir != "" {
			collect(os.DirFS(dir), ".")
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseFile(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	return t, nil
}
