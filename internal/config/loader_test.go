package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ReadsYAMLAndAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  user: ipfolio
  password: secret
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ipfolio", cfg.Database.User)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults filled in for everything unset.
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultKafkaGroupID, cfg.Kafka.GroupID)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	path := writeConfigFile(t, `
server:
  mode: production
database:
  user: ipfolio
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestLoadFromEnv_UsesEnvironmentOverrides(t *testing.T) {
	t.Setenv("IPFOLIO_DATABASE_USER", "envuser")
	t.Setenv("IPFOLIO_DATABASE_HOST", "db.env.local")
	t.Setenv("IPFOLIO_SERVER_PORT", "7070")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.Database.User)
	assert.Equal(t, "db.env.local", cfg.Database.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}
