package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-backoffice/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":   "postgres://localhost:5432/sales",
		"REDIS_URL":      "redis://localhost:6379/0",
		"APP_ENV":        "",
		"PORT":           "",
		"SALE_CACHE_TTL": "",
		"RATE_LIMIT":     "",
		"AUTO_MIGRATE":   "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 5*time.Minute, cfg.SaleCacheTTL)
	require.Equal(t, "300-M", cfg.RateLimit)
	require.True(t, cfg.AutoMigrate)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestHTTPAddrKeepsExplicitColon(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/sales",
		"REDIS_URL":    "redis://localhost:6379/0",
		"PORT":         ":9090",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
