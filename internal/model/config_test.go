package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Reminders.PollIntervalSec)
	assert.Equal(t, 5*time.Minute, cfg.Reminders.PollInterval())
	assert.Equal(t, 10, cfg.Reminders.UpcomingLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.Reminders.Retention())
	assert.True(t, cfg.Reminders.PruneInactive)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, "notifications", cfg.Storage.Key)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
api:
  base_url: https://booking.example.com/api
reminders:
  poll_interval_sec: 60
  prune_inactive: false
storage:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://booking.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, time.Minute, cfg.Reminders.PollInterval())
	assert.False(t, cfg.Reminders.PruneInactive)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.Reminders.UpcomingLimit)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("CAREREMINDER_API_BASE_URL", "https://env.example.com")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Reminders.UpcomingLimit = 25
	cfg.Storage.Backend = StorageRedis

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Reminders.UpcomingLimit)
	assert.Equal(t, StorageRedis, loaded.Storage.Backend)
}

func TestReminderConfig_LocationFallback(t *testing.T) {
	assert.Equal(t, time.Local, ReminderConfig{}.Location())
	assert.Equal(t, time.Local, ReminderConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", ReminderConfig{Timezone: "UTC"}.Location().String())
}
