package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.AutomaticEnv()

	cfg := fromViper()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "stock_metrics", cfg.Database.Table)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "0 6 * * *", cfg.Report.Schedule)
	assert.Equal(t, "reorder_recommendations.csv", cfg.Report.FileName)
}

func TestEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("DB_METRICS_TABLE", "metrics_v2")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	setDefaults()
	viper.AutomaticEnv()

	cfg := fromViper()

	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "metrics_v2", cfg.Database.Table)
	assert.Equal(t, 30, cfg.Cache.TTLSeconds)
}
