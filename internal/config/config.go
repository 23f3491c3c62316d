package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	NATSURL            string
	NATSSubject        string
	AIDefaultModel     string
	AITemperature      float32
	AITimeout          time.Duration
	AIMaxTokens        int
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnthropicAPIKey    string
	GoogleAPIKey       string
	EvaluateRateLimit  int
	RateLimitWindow    time.Duration
	DailyTokenQuota    int
	RecentRunsPageSize int
	CORSAllowOrigins   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ModelBacked reports whether at least one LLM provider key is configured.
func (c Config) ModelBacked() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicAPIKey != "" || c.GoogleAPIKey != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PROMPTCOACH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PromptCoach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "file:promptcoach.db?cache=shared")
	v.SetDefault("nats.subject", "promptcoach.evaluations")
	v.SetDefault("ai.default_model", "openai/gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.timeout", "20s")
	v.SetDefault("ai.max_tokens", 1200)
	v.SetDefault("ratelimit.evaluate_max", 20)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("usage.daily_token_quota", 50000)
	v.SetDefault("runs.page_size", 20)
	v.SetDefault("cors.allow_origins", "*")

	timeout, err := time.ParseDuration(v.GetString("ai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		NATSURL:            v.GetString("nats.url"),
		NATSSubject:        v.GetString("nats.subject"),
		AIDefaultModel:     v.GetString("ai.default_model"),
		AITemperature:      float32(v.GetFloat64("ai.temperature")),
		AITimeout:          timeout,
		AIMaxTokens:        v.GetInt("ai.max_tokens"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIBaseURL:      v.GetString("openai_base_url"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		GoogleAPIKey:       v.GetString("google_api_key"),
		EvaluateRateLimit:  v.GetInt("ratelimit.evaluate_max"),
		RateLimitWindow:    window,
		DailyTokenQuota:    v.GetInt("usage.daily_token_quota"),
		RecentRunsPageSize: v.GetInt("runs.page_size"),
		CORSAllowOrigins:   v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AITemperature < 0 || cfg.AITemperature > 2 {
		return Config{}, fmt.Errorf("ai temperature must be between 0 and 2")
	}

	if cfg.RecentRunsPageSize <= 0 {
		cfg.RecentRunsPageSize = 20
	}

	return cfg, nil
}
