// Package xdg provides helpers to resolve XDG Base Directory paths for enginebridge.
// It implements the XDG Base Directory specification for determining where the
// bridge keeps its configuration and the caller's preferences record, with
// fallback to the traditional home-relative locations when the XDG environment
// variables are not set.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under each XDG base.
const AppName = "enginebridge"

// ConfigDir returns the XDG config directory for enginebridge.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/enginebridge when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

func ensure(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
