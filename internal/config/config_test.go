package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.DefaultHorizonDays)
	assert.Equal(t, 30, cfg.LookbackDays)
	assert.Equal(t, 4, cfg.SnapshotWorkers)
	assert.Equal(t, "100.00", cfg.DefaultDailySpend.StringFixed(2))
	assert.True(t, cfg.SafetyThreshold.IsZero())
	assert.True(t, cfg.NotifyWarnings)
	assert.Equal(t, "30 2 * * *", cfg.SnapshotSchedule)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("FORECAST_DEFAULT_HORIZON", "60")
	t.Setenv("FORECAST_SAFETY_THRESHOLD", "500.00")
	t.Setenv("NOTIFY_WARNINGS", "false")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.DefaultHorizonDays)
	assert.Equal(t, "500.00", cfg.SafetyThreshold.StringFixed(2))
	assert.False(t, cfg.NotifyWarnings)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"FORECAST_LOOKBACK_DAYS":       "soon",
		"SNAPSHOT_WORKERS":             "0",
		"FORECAST_DEFAULT_DAILY_SPEND": "-5",
		"FORECAST_SAFETY_THRESHOLD":    "lots",
		"JWT_SECRET":                   "",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
