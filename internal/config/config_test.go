package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyDatabaseURL(t *testing.T) {
	// Config loads successfully even without DATABASE_URL set.
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DatabaseURL)
}

func TestLoad_WithDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cypher")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "postgres://localhost:5432/cypher", cfg.DatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("HTTP_LISTEN_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("TICK_CONCURRENCY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.TickConcurrency)
}

func TestLoad_TickConcurrencyParsed(t *testing.T) {
	t.Setenv("TICK_CONCURRENCY", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.TickConcurrency)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{TickConcurrency: 4}
	err := cfg.Validate("cypher-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/cypher", TickConcurrency: 1}
	require.NoError(t, cfg.Validate("cypher-api"))
}
