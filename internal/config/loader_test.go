package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfigYAML = `
server:
  port: 9191
database:
  host: localhost
  username: bazaar
  dbname: bazaarbuddy
security:
  jwt:
    secret: test-secret
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetLoaderState(t *testing.T) {
	t.Helper()
	prevConfig, prevViper := GlobalConfig, loadedViper
	t.Cleanup(func() {
		GlobalConfig = prevConfig
		loadedViper = prevViper
	})
}

func TestLoadConfig_FromFile(t *testing.T) {
	resetLoaderState(t)
	path := writeConfigFile(t, baseConfigYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "bazaar", cfg.Database.Username)
	assert.Same(t, cfg, GlobalConfig)

	require.NotNil(t, loadedViper)
	assert.Equal(t, path, loadedViper.ConfigFileUsed())
}

func TestReloadFromDisk_AppliesNewValues(t *testing.T) {
	resetLoaderState(t)
	path := writeConfigFile(t, baseConfigYAML)

	_, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9191, GlobalConfig.Server.Port)

	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9292
database:
  host: localhost
  username: bazaar
  dbname: bazaarbuddy
security:
  jwt:
    secret: test-secret
`), 0o644))

	fired := false
	reloadFromDisk(path, func() { fired = true })

	assert.True(t, fired)
	assert.Equal(t, 9292, GlobalConfig.Server.Port)
}

func TestReloadFromDisk_KeepsPreviousConfigOnError(t *testing.T) {
	resetLoaderState(t)
	path := writeConfigFile(t, baseConfigYAML)

	_, err := LoadConfig(path)
	require.NoError(t, err)
	previous := GlobalConfig

	// missing JWT secret fails validation
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9292
database:
  host: localhost
  username: bazaar
  dbname: bazaarbuddy
`), 0o644))

	fired := false
	reloadFromDisk(path, func() { fired = true })

	assert.False(t, fired)
	assert.Same(t, previous, GlobalConfig)
}

func TestWatchConfig_NoFileLoaded(t *testing.T) {
	resetLoaderState(t)
	loadedViper = nil

	assert.NotPanics(t, func() { WatchConfig(nil) })
}
