package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"enginebridge/cli/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitWritesEffectiveSettings(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")

	_, stderr, err := runCLI(t, "config", "init", "--config", p, "--mode", "packaged", "--engine-dir", "/opt/engine")
	require.NoError(t, err)
	assert.Contains(t, stderr, p)

	got, err := config.LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, config.ModePackaged, got.Mode)
	assert.Equal(t, "/opt/engine", got.Engine.Dir)
	assert.Equal(t, config.DefaultListen, got.Listen)
}

func TestConfigInitKeepsExistingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log_level: debug\n"), 0o600))

	_, _, err := runCLI(t, "config", "init", "--config", p)
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, writeConfig(p, config.Default(), true))
	got, err := config.LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "info", got.LogLevel)
}

func TestConfigPathHonoursFlag(t *testing.T) {
	stdout, _, err := runCLI(t, "config", "path", "--config", "/tmp/custom.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", strings.TrimSpace(stdout))

	stdout, _, err = runCLI(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "enginebridge", "config.yaml"), strings.TrimSpace(stdout))
}
