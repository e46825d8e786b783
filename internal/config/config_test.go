package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "survey-", cfg.Storage.KeyPrefix)
	assert.Equal(t, []string{"CXGAIA", "survey-"}, cfg.Storage.ResetPrefixes)
	assert.Equal(t, "survey_config_change", cfg.Listener.Channel)
	assert.Equal(t, 5*time.Second, cfg.Backoff())
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 1000, cfg.Monitor.Capacity)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  addr: ":9000"
storage:
  driver: REDIS
redis:
  addr: "cache:6379"
  db: 3
postgres:
  host: db
  user: u
  password: p
  db_name: surveys
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "application.yaml"), yaml, 0o600))
	t.Setenv("APP_SERVER_ADDR", ":7000")
	t.Setenv("APP_MONITOR_CAPACITY", "50")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 50, cfg.Monitor.Capacity)
	assert.Equal(t, "postgres://u:p@db:5432/surveys?sslmode=disable", cfg.DSN())
}

func TestSetupLoggingTo_JSON(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	SetupLoggingTo(&buf, "warn", "json")

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"message":"kept"`)
}
