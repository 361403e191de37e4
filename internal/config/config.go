// Package config loads and stores bridge configuration in the XDG config dir.
// The file is YAML; a missing file yields defaults, and a few environment
// variables override what the file says.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"enginebridge/cli/internal/xdg"

	"gopkg.in/yaml.v3"
)

// Mode selects how the engine is launched.
type Mode string

const (
	// ModePackaged runs the bundled engine binary from EngineDir.
	ModePackaged Mode = "packaged"
	// ModeDevelopment runs the engine script through a Python interpreter.
	ModeDevelopment Mode = "development"
)

// DefaultListen is the gRPC address used by `enginebridge serve`.
const DefaultListen = "127.0.0.1:50551"

// Config holds the bridge settings.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Mode     Mode         `yaml:"mode"`
	Engine   EngineConfig `yaml:"engine"`
	// Timeout bounds one invocation; zero waits for the engine indefinitely.
	Timeout time.Duration `yaml:"timeout"`
	Listen  string        `yaml:"listen"`
}

// EngineConfig locates the worker for both launch modes.
type EngineConfig struct {
	Dir    string `yaml:"dir"`
	Binary string `yaml:"binary"`
	Python string `yaml:"python"`
	Script string `yaml:"script"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Mode:     ModeDevelopment,
		Engine: EngineConfig{
			Dir:    "engine",
			Binary: DefaultBinary(),
			Python: "python",
			Script: filepath.Join("engine", "main.py"),
		},
		Listen: DefaultListen,
	}
}

// DefaultBinary is the packaged engine's executable name on this platform.
func DefaultBinary() string {
	if runtime.GOOS == "windows" {
		return "rj_engine.exe"
	}
	return "rj_engine"
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from the default path.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from p; a missing file returns defaults.
// Environment overrides are applied in both cases.
func LoadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	c.applyEnvOverrides()
	return c, c.Validate()
}

// Save writes configuration to p with 0600 permissions.
func Save(p string, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Validate rejects settings the runner cannot use.
func (c Config) Validate() error {
	switch c.Mode {
	case ModePackaged:
		if c.Engine.Dir == "" {
			return errors.New("engine.dir is required in packaged mode")
		}
	case ModeDevelopment:
		if c.Engine.Script == "" {
			return errors.New("engine.script is required in development mode")
		}
	default:
		return fmt.Errorf("unknown mode %q (want packaged or development)", c.Mode)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("ENGINEBRIDGE_MODE")); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("ENGINEBRIDGE_ENGINE_DIR")); v != "" {
		c.Engine.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINEBRIDGE_PYTHON")); v != "" {
		c.Engine.Python = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINEBRIDGE_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}
