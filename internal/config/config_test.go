package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8440", cfg.Port)
	assert.Equal(t, "capmatch", cfg.DBName)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, 10, cfg.RateLimitSubmitMax)
	assert.Equal(t, 3600, cfg.RateLimitSubmitWindowS)
	assert.Equal(t, 3, cfg.RateLimitResendMax)
	assert.Equal(t, 20, cfg.RateLimitRequestMax)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RATE_LIMIT_SUBMIT_MAX", "2")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.RateLimitSubmitMax)
	assert.True(t, cfg.TracingEnabled)
}
