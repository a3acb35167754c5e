package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "LOG_LEVEL", "DB_DRIVER", "DATABASE_URL", "SUPABASE_JWT_SECRET", "BYPASS_AUTH", "ALLOWED_ORIGINS", "ADMIN_USER_IDS",
		"GAME_DURATION_SEC", "GAME_HEART_THRESHOLD", "GAME_INITIAL_DROP_MS", "GAME_SPEEDUP_FACTOR",
		"GAME_SPEEDUP_PERIOD_MS", "GAME_MIN_DROP_MS", "GAME_COUNTDOWN_STEP_MS",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.BypassAuth)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AdminUserIDs)

	assert.Equal(t, 90*time.Second, cfg.Game.Duration)
	assert.Equal(t, 10, cfg.Game.HeartThreshold)
	assert.Equal(t, 1200*time.Millisecond, cfg.Game.InitialDropInterval)
	assert.Equal(t, 0.97, cfg.Game.SpeedUpFactor)
	assert.Equal(t, 5*time.Second, cfg.Game.SpeedUpPeriod)
	assert.Equal(t, 100*time.Millisecond, cfg.Game.MinDropInterval)
	assert.Equal(t, 900*time.Millisecond, cfg.Game.CountdownStep)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("BYPASS_AUTH", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ADMIN_USER_IDS", "admin-1,admin-2")
	t.Setenv("GAME_DURATION_SEC", "60")
	t.Setenv("GAME_HEART_THRESHOLD", "5")
	t.Setenv("GAME_SPEEDUP_FACTOR", "0.9")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.HasDatabase())
	assert.True(t, cfg.BypassAuth)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.AdminUserIDs)
	assert.Equal(t, 60*time.Second, cfg.Game.Duration)
	assert.Equal(t, 5, cfg.Game.HeartThreshold)
	assert.Equal(t, 0.9, cfg.Game.SpeedUpFactor)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "mysql"},
		{"GAME_DURATION_SEC", "abc"},
		{"GAME_SPEEDUP_FACTOR", "1.5"},
		{"GAME_MIN_DROP_MS", "5000"},
		{"GAME_INITIAL_DROP_MS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
