package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/tradepost/internal/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:              "db.internal",
		Port:              5433,
		User:              "tradepost",
		Password:          "secret",
		Name:              "tradepost",
		SSLMode:           "disable",
		MaxConns:          12,
		MinConns:          2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   10 * time.Minute,
		HealthCheckPeriod: time.Minute,
	}

	poolCfg, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", poolCfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolCfg.ConnConfig.Port)
	assert.Equal(t, "tradepost", poolCfg.ConnConfig.Database)
	assert.Equal(t, int32(12), poolCfg.MaxConns)
	assert.Equal(t, int32(2), poolCfg.MinConns)
	assert.Equal(t, time.Hour, poolCfg.MaxConnLifetime)
	assert.Equal(t, 10*time.Minute, poolCfg.MaxConnIdleTime)
	assert.Equal(t, time.Minute, poolCfg.HealthCheckPeriod)
	assert.Equal(t, applicationName, poolCfg.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPoolConfig_Invalid(t *testing.T) {
	_, err := newPoolConfig(&config.DatabaseConfig{Host: "db", Port: 5432, SSLMode: "sometimes"})
	assert.Error(t, err)
}
