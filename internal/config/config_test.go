package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvitto/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "claude", cfg.Parser.Primary.Provider)
	assert.Equal(t, 4096, cfg.Parser.Primary.MaxTokens)
	assert.Equal(t, 8192, cfg.Parser.RetryMaxTokens)
	assert.Nil(t, cfg.Parser.SecondaryConfig())
	assert.Equal(t, "noop", cfg.Cache.Provider)
	assert.Equal(t, 2048, cfg.Geometry.MaxDimension)
	assert.False(t, cfg.Geometry.Disabled)
	assert.Equal(t, int64(25), cfg.S3.MaxFileSizeMB)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KVITTO_SERVER_PORT", ":9090")
	t.Setenv("KVITTO_PARSER_PRIMARY_PROVIDER", "openai")
	t.Setenv("KVITTO_PARSER_SECONDARY_PROVIDER", "gemini")
	t.Setenv("KVITTO_CACHE_PROVIDER", "redis")
	t.Setenv("KVITTO_GEOMETRY_DISABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Parser.Primary.Provider)
	require.NotNil(t, cfg.Parser.SecondaryConfig())
	assert.Equal(t, "gemini", cfg.Parser.SecondaryConfig().Provider)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.True(t, cfg.Geometry.Disabled)
}

func TestLoad_PlatformPortFallback(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Port)
}

func TestLoad_ExplicitPortBeatsPlatformPort(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("KVITTO_SERVER_PORT", ":9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}
