package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT" validate:"required,numeric"`

	TextProvider  string `mapstructure:"TEXT_PROVIDER" validate:"oneof=gemini openai"`
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY" validate:"required"`
	GeminiBaseURL string `mapstructure:"GEMINI_BASE_URL" validate:"omitempty,url"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL" validate:"required"`
	ImageModel    string `mapstructure:"IMAGE_MODEL" validate:"required"`
	AspectRatio   string `mapstructure:"IMAGE_ASPECT_RATIO" validate:"required"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY" validate:"required_if=TextProvider openai"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL" validate:"omitempty,url"`

	StorageBaseURL string        `mapstructure:"STORAGE_BASE_URL" validate:"required,url"`
	StorageToken   string        `mapstructure:"STORAGE_TOKEN" validate:"required"`
	StorageBucket  string        `mapstructure:"STORAGE_BUCKET" validate:"required"`
	StorageTimeout time.Duration `mapstructure:"STORAGE_TIMEOUT" validate:"gt=0"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxBodyBytes    int64         `mapstructure:"MAX_BODY_BYTES" validate:"gt=0"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=0"`
	RedisURL       string  `mapstructure:"REDIS_URL"`
	TrustedProxies string  `mapstructure:"TRUSTED_PROXIES"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json text"`
	LogFile   string `mapstructure:"LOG_FILE"`

	// только для бота
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `mapstructure:"WEBHOOK_URL"`
}

var defaults = map[string]any{
	"PORT":               "8000",
	"TEXT_PROVIDER":      "gemini",
	"GEMINI_API_KEY":     "",
	"GEMINI_BASE_URL":    "",
	"GEMINI_MODEL":       "gemini-2.5-flash",
	"IMAGE_MODEL":        "imagen-4.0-generate-001",
	"IMAGE_ASPECT_RATIO": "16:9",
	"OPENAI_API_KEY":     "",
	"OPENAI_MODEL":       "gpt-4o-mini",
	"OPENAI_BASE_URL":    "",
	"STORAGE_BASE_URL":   "",
	"STORAGE_TOKEN":      "",
	"STORAGE_BUCKET":     "pitch-slides",
	"STORAGE_TIMEOUT":    "60s",
	"REQUEST_TIMEOUT":    "180s",
	"SHUTDOWN_TIMEOUT":   "15s",
	"MAX_BODY_BYTES":     20 << 20,
	"RATE_LIMIT_RPS":     2.0,
	"RATE_LIMIT_BURST":   10,
	"REDIS_URL":          "",
	"TRUSTED_PROXIES":    "",
	"DATABASE_URL":       "",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	"LOG_FILE":           "",
	"TELEGRAM_BOT_TOKEN": "",
	"WEBHOOK_URL":        "",
}

// Load читает конфиг: файл из CONFIG_FILE (если задан) + переменные окружения поверх.
func Load() (*Config, error) {
	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.TextProvider = strings.ToLower(strings.TrimSpace(cfg.TextProvider))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Addr() string { return ":" + c.Port }

// Secrets: значения, которые нельзя отдавать клиенту в details.
func (c *Config) Secrets() []string {
	return []string{c.GeminiAPIKey, c.OpenAIAPIKey, c.StorageToken, c.TelegramBotToken}
}
