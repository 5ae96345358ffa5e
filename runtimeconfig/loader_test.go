package runtimeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	content := `
version: "2.0.0"
scheduler:
  workers: 8
  mode: poll
  poll_rate: 2000
  poll_burst: 4
buffer_managers:
  heap:
    count: 64
    size: 4096
    alignment: 64
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, "poll", cfg.Scheduler.Mode)
	require.Contains(t, cfg.BufferManagers, "heap")
	assert.Equal(t, 4096, cfg.BufferManagers["heap"].Size)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.json")
	content := `{
		"version": "1.5.0",
		"scheduler": {"workers": 2, "mode": "wait"},
		"buffer_managers": {"pinned": {"count": 8, "size": 1024}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", cfg.Version)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	require.Contains(t, cfg.BufferManagers, "pinned")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	content := `{"scheduler": {"mode": "bogus"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/runtime.yaml")
	assert.Error(t, err)
}
