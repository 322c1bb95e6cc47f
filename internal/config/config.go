package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	RequestTimeoutSeconds int `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	BasicAuthEnabled  bool   `mapstructure:"BASIC_AUTH_ENABLED"`
	BasicAuthUsername string `mapstructure:"BASIC_AUTH_USERNAME"`
	BasicAuthPassword string `mapstructure:"BASIC_AUTH_PASSWORD"`

	AnthropicAPIKey   string  `mapstructure:"ANTHROPIC_API_KEY"`
	LLMBaseURL        string  `mapstructure:"LLM_BASE_URL"`
	LLMModel          string  `mapstructure:"LLM_MODEL"`
	LLMMaxTokens      int     `mapstructure:"LLM_MAX_TOKENS"`
	LLMTemperature    float64 `mapstructure:"LLM_TEMPERATURE"`
	LLMTimeoutSeconds int     `mapstructure:"LLM_TIMEOUT_SECONDS"`
	LLMMaxRetries     int     `mapstructure:"LLM_MAX_RETRIES"`

	DuplicateWindowHours int `mapstructure:"DUPLICATE_WINDOW_HOURS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 120)
	v.SetDefault("BASIC_AUTH_ENABLED", false)
	v.SetDefault("BASIC_AUTH_USERNAME", "admin")
	v.SetDefault("BASIC_AUTH_PASSWORD", "changeme")
	v.SetDefault("LLM_BASE_URL", "https://api.anthropic.com")
	v.SetDefault("LLM_MODEL", "claude-sonnet-4-20250514")
	v.SetDefault("LLM_MAX_TOKENS", 4096)
	v.SetDefault("LLM_TEMPERATURE", 0.7)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 90)
	v.SetDefault("LLM_MAX_RETRIES", 3)
	v.SetDefault("DUPLICATE_WINDOW_HOURS", 24)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")
	v.BindEnv("BASIC_AUTH_ENABLED")
	v.BindEnv("BASIC_AUTH_USERNAME")
	v.BindEnv("BASIC_AUTH_PASSWORD")
	v.BindEnv("ANTHROPIC_API_KEY")
	v.BindEnv("LLM_BASE_URL")
	v.BindEnv("LLM_MODEL")
	v.BindEnv("LLM_MAX_TOKENS")
	v.BindEnv("LLM_TEMPERATURE")
	v.BindEnv("LLM_TIMEOUT_SECONDS")
	v.BindEnv("LLM_MAX_RETRIES")
	v.BindEnv("DUPLICATE_WINDOW_HOURS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && !cfg.BasicAuthEnabled {
		log.Println("WARNING: Server is running without authentication (ENV=development).")
		log.Println("WARNING: Set BASIC_AUTH_ENABLED=true before exposing this server.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMTimeout returns the per-call generation deadline.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// RequestTimeout returns the whole-request deadline applied by middleware.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DuplicateWindow returns the lookback window for the duplicate-order check.
func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowHours) * time.Hour
}

// Validate checks that the configuration is safe to run. Production refuses
// to start without an API key for care plan generation, and refuses default
// Basic auth credentials since Basic auth is the only thing gating access.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required in production")
		}
		if !c.BasicAuthEnabled {
			return fmt.Errorf("BASIC_AUTH_ENABLED must be true in production")
		}
		if c.BasicAuthPassword == "" || c.BasicAuthPassword == "changeme" {
			return fmt.Errorf("BASIC_AUTH_PASSWORD must be set to a non-default value in production")
		}
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative, got %d", c.LLMMaxRetries)
	}
	if c.DuplicateWindowHours <= 0 {
		return fmt.Errorf("DUPLICATE_WINDOW_HOURS must be positive, got %d", c.DuplicateWindowHours)
	}
	return nil
}
