package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INACTIVITY_SWEEP_INTERVAL", "")
	t.Setenv("DEFAULT_INACTIVITY_DAYS", "")
	t.Setenv("APP_ENV", "")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.InactivitySweepInterval)
	assert.Equal(t, 180, cfg.DefaultInactivityDays)
	assert.Equal(t, "verification_requests", cfg.DynamoTables.VerificationRequests)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INACTIVITY_SWEEP_INTERVAL", "90m")
	t.Setenv("DEFAULT_INACTIVITY_DAYS", "365")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, 90*time.Minute, cfg.InactivitySweepInterval)
	assert.Equal(t, 365, cfg.DefaultInactivityDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SWEEP_TEST", "-5s")
	assert.Equal(t, time.Hour, getEnvDuration("SWEEP_TEST", time.Hour))

	t.Setenv("SWEEP_TEST", "daily")
	assert.Equal(t, time.Hour, getEnvDuration("SWEEP_TEST", time.Hour))
}
