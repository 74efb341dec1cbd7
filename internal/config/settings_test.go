package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("VOXFLOW_LOG_LEVEL", "")
	t.Setenv("VOXFLOW_CONFIG", "")
	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, 4, s.MaxConcurrentRuns)
	assert.NotEmpty(t, s.ConfigPath)
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "voxflow.yml"), []byte(`
logLevel: DEBUG
configPath: /tmp/from-file.json
maxConcurrentRuns: 2
toolServer:
  name: desk
`), 0o644))
	t.Setenv("VOXFLOW_CONFIG", "/tmp/from-env.json")
	t.Setenv("VOXFLOW_LOG_LEVEL", "")

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "/tmp/from-env.json", s.ConfigPath)
	assert.Equal(t, 2, s.MaxConcurrentRuns)
	assert.Equal(t, "desk", s.ToolServer.Name)
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "voxflow.yaml"), []byte("logLevel: [unterminated"), 0o644))
	_, err := LoadSettings(dir)
	assert.Error(t, err)
}
