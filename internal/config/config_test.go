package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"ENGINEBRIDGE_MODE", "ENGINEBRIDGE_ENGINE_DIR", "ENGINEBRIDGE_PYTHON", "ENGINEBRIDGE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	clearEnv(t)
	c, err := LoadFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, time.Duration(0), c.Timeout, "no timeout unless configured")
}

func TestLoadFileYAML(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
mode: packaged
log_level: debug
timeout: 90s
engine:
  dir: /opt/app/resources/engine
`), 0o600))

	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, ModePackaged, c.Mode)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.Equal(t, "/opt/app/resources/engine", c.Engine.Dir)
	assert.Equal(t, DefaultBinary(), c.Engine.Binary, "unset fields keep defaults")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENGINEBRIDGE_MODE", "PACKAGED")
	t.Setenv("ENGINEBRIDGE_ENGINE_DIR", "/srv/engine")
	t.Setenv("ENGINEBRIDGE_PYTHON", "python3")

	c, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModePackaged, c.Mode)
	assert.Equal(t, "/srv/engine", c.Engine.Dir)
	assert.Equal(t, "python3", c.Engine.Python)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Mode = "docker"
	assert.ErrorContains(t, c.Validate(), "unknown mode")

	c = Default()
	c.Timeout = -time.Second
	assert.Error(t, c.Validate())

	c = Default()
	c.Mode = ModePackaged
	c.Engine.Dir = ""
	assert.Error(t, c.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.Timeout = 2 * time.Minute
	require.NoError(t, Save(p, c))

	got, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
