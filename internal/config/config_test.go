package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "http://localhost:3000", cfg.Server.ClientURL)
	assert.Equal(t, "@daily", cfg.Analytics.SnapshotCron)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 300, cfg.Redis.IdempotencyTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/loans.db")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/loans.db", cfg.Database.DSN())
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 0.0001)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			Server:      ServerConfig{Port: "5000"},
			Database:    DatabaseConfig{Driver: DriverPostgres},
			RateLimit:   RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
			Analytics:   AnalyticsConfig{SnapshotCron: "@daily"},
			Log:         LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: "unsupported DB_DRIVER"},
		{name: "production without password", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "database password"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "LOG_LEVEL"},
		{name: "bad cron", mutate: func(c *Config) { c.Analytics.SnapshotCron = "every day" }, wantErr: "ANALYTICS_SNAPSHOT_CRON"},
		{name: "cron disabled", mutate: func(c *Config) { c.Analytics.SnapshotCron = "" }},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: "rate limit"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Driver = DriverSQLite }, wantErr: "DB_SQLITE_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", Database: "loans", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=loans sslmode=disable TimeZone=UTC", d.DSN())
}
