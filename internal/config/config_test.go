package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMPTCOACH_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "PromptCoach API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "openai/gpt-4o-mini", cfg.AIDefaultModel)
	require.InDelta(t, 0.2, cfg.AITemperature, 1e-6)
	require.Equal(t, 20*time.Second, cfg.AITimeout)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 50000, cfg.DailyTokenQuota)
	require.Equal(t, 20, cfg.RecentRunsPageSize)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("PROMPTCOACH_JWT_SECRET", "secret")
	t.Setenv("PROMPTCOACH_APP_PORT", ":9090")
	t.Setenv("PROMPTCOACH_LOG_LEVEL", "DEBUG")
	t.Setenv("PROMPTCOACH_AI_DEFAULT_MODEL", "anthropic/claude-3-5-haiku-20241022")
	t.Setenv("PROMPTCOACH_AI_TIMEOUT", "5s")
	t.Setenv("PROMPTCOACH_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("PROMPTCOACH_USAGE_DAILY_TOKEN_QUOTA", "1000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "anthropic/claude-3-5-haiku-20241022", cfg.AIDefaultModel)
	require.Equal(t, 5*time.Second, cfg.AITimeout)
	require.Equal(t, 1000, cfg.DailyTokenQuota)
	require.True(t, cfg.ModelBacked())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PROMPTCOACH_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PROMPTCOACH_JWT_SECRET", "secret")
	t.Setenv("PROMPTCOACH_AI_TEMPERATURE", "3.5")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("PROMPTCOACH_AI_TEMPERATURE", "0.2")
	t.Setenv("PROMPTCOACH_AI_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)
}
