package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	Library string `toml:"library"`
}

// Engine tunes the database itself.
type Engine struct {
	Workers      int `toml:"workers"`
	FlushDelayMS int `toml:"flush_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	NoTerminal bool   `toml:"no_terminal"`
}

// Index configures the SQLite catalogue of tracked assets.
type Index struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Watch configures the filesystem watcher of the watch command.
type Watch struct {
	DebounceMS int      `toml:"debounce_ms"`
	Ignore     []string `toml:"ignore"`
}

// Mount is a directory registered under a name.
type Mount struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
	Type string `toml:"type"`
}

// Importer registers a meta type that copies matching files into the library.
type Importer struct {
	Ext  string `toml:"ext"`
	Type string `toml:"type"`
}

// Config encapsulates all configuration values for assetdb.
type Config struct {
	Paths     Paths      `toml:"paths"`
	Engine    Engine     `toml:"engine"`
	Logging   Logging    `toml:"logging"`
	Index     Index      `toml:"index"`
	Watch     Watch      `toml:"watch"`
	Mounts    []Mount    `toml:"mounts"`
	Importers []Importer `toml:"importers"`
}

// Load locates, parses, and validates a configuration file. Without a path the
// user config and ./assetdb.toml are tried in that order. The returned config has
// all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// SampleConfig returns a commented configuration file.
func SampleConfig() string {
	return sampleConfig
}

// FlushDelay returns the mtime snapshot delay.
func (c *Config) FlushDelay() time.Duration {
	return time.Duration(c.Engine.FlushDelayMS) * time.Millisecond
}

// Debounce returns the quiet period of the watcher.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// LockPath returns the file locked while a command works on the library.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.Library, ".assetdb.lock")
}

// DefaultConfigPath returns the user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// ExpandPath resolves ~ and makes the path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectPath)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
