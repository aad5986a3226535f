package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/example/markshot/internal/tool"
)

// ToolsFile is the name of the saved tool defaults inside ConfigDir.
const ToolsFile = "tools.toml"

// ToolsPath returns where tool defaults are kept.
func (l *Loader) ToolsPath() string {
	return filepath.Join(l.ConfigDir(), ToolsFile)
}

// LoadTools reads tool defaults from path. A missing file gives the built-in
// defaults; fields absent from the file keep theirs.
func LoadTools(path string) (tool.Defaults, error) {
	d := tool.DefaultDefaults()
	if _, err := toml.DecodeFile(path, &d); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tool.DefaultDefaults(), nil
		}
		return tool.DefaultDefaults(), fmt.Errorf("read tool defaults %s: %w", path, err)
	}
	return d.Normalize(), nil
}

// SaveTools writes d to path, replacing the file atomically.
func SaveTools(path string, d tool.Defaults) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(d.Normalize()); err != nil {
		return fmt.Errorf("encode tool defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tools-*.toml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
