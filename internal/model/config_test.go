package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	d := DefaultAppConfig()
	assert.Equal(t, d.Merge.DelayMS, cfg.Merge.DelayMS)
	assert.Equal(t, TransportLog, cfg.Merge.Transport)
	assert.Equal(t, 1500, cfg.Progress.PhaseDurationMS)
	assert.Equal(t, "public", cfg.Settings.ProfileVisibility)
	assert.True(t, cfg.Settings.EmailNotifications)
}

func TestLoadConfig_ReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
merge:
  delay_ms: 5
  from: team@example.com
blocked:
  - spam@example.com
settings:
  sms_notifications: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("LISTMAILER_SMTP_HOST", "smtp.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Merge.DelayMS)
	assert.Equal(t, "team@example.com", cfg.Merge.From)
	assert.Equal(t, []string{"spam@example.com"}, cfg.Blocked)
	assert.True(t, cfg.Settings.SMSNotifications)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, "587", cfg.SMTP.Port)
}

func TestLoadConfig_RejectsUnknownTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge:\n  transport: pigeon\n"), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "pigeon")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Settings.ProfileVisibility = "private"
	cfg.Display.Theme = "dark"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "private", loaded.Settings.ProfileVisibility)
	assert.Equal(t, "dark", loaded.Display.Theme)
}
