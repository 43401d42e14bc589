package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "http://0.0.0.0:8080", cfg.APIEndpoint)
	assert.Equal(t, 60*time.Second, cfg.SyncInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReminderLead)
	assert.Equal(t, "Europe/Copenhagen", cfg.Location().String())
	assert.True(t, cfg.FrozenAt().IsZero())
}

func TestLoadFrozenTime(t *testing.T) {
	t.Setenv("CONF_FROZEN_TIME", "2019-12-05T10:15:00+01:00")

	cfg, err := Load()
	require.NoError(t, err)

	want := time.Date(2019, time.December, 5, 10, 15, 0, 0, time.FixedZone("", 3600))
	assert.True(t, cfg.FrozenAt().Equal(want))
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("CONF_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.ErrorContains(t, err, "CONF_TIMEZONE")
}

func TestLoadRejectsBadFrozenTime(t *testing.T) {
	t.Setenv("CONF_FROZEN_TIME", "yesterday")

	_, err := Load()
	assert.ErrorContains(t, err, "CONF_FROZEN_TIME")
}

func TestLoadRejectsTinySyncInterval(t *testing.T) {
	t.Setenv("CONF_SYNC_INTERVAL", "10ms")

	_, err := Load()
	assert.ErrorContains(t, err, "CONF_SYNC_INTERVAL")
}
