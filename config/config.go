package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const defaultSystemPrompt = "You are a virtual assistant for a small business. Answer clearly and concisely."

// Store selects and addresses the message store backend.
type Store struct {
	Driver       string `env:"STORE_DRIVER" env-default:"mongo"`
	MongoURI     string `env:"MONGO_URI" env-default:"mongodb://localhost:27017/helpbot"`
	TestMongoURI string `env:"TEST_MONGO_URI" env-default:"mongodb://localhost:27017/helpbot_test"`
	RedisURL     string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	SQLitePath   string `env:"SQLITE_PATH" env-default:"helpbot.db"`
	MySQL        MySQL
}

// MySQL holds the pieces of the MySQL DSN.
type MySQL struct {
	Host     string `env:"SQL_HOST" env-default:"localhost"`
	Port     string `env:"SQL_PORT" env-default:"3306"`
	User     string `env:"SQL_USER"`
	Password string `env:"SQL_PASSWORD"`
	DBName   string `env:"SQL_DBNAME" env-default:"helpbot"`
}

// OpenAI configures the AI responder. An empty APIKey disables it.
type OpenAI struct {
	APIKey       string  `env:"OPENAI_API_KEY"`
	BaseURL      string  `env:"OPENAI_BASE_URL"`
	Model        string  `env:"OPENAI_MODEL" env-default:"gpt-3.5-turbo"`
	Temperature  float64 `env:"OPENAI_TEMPERATURE" env-default:"0.7"`
	MaxTokens    int64   `env:"OPENAI_MAX_TOKENS" env-default:"150"`
	SystemPrompt string  `env:"OPENAI_SYSTEM_PROMPT"`
}

// Webhook configures the n8n notifier. An empty URL disables it.
type Webhook struct {
	URL     string        `env:"N8N_WEBHOOK_URL"`
	Timeout time.Duration `env:"N8N_WEBHOOK_TIMEOUT" env-default:"10s"`
}

// Config holds all configuration for the application.
type Config struct {
	Env           string `env:"APP_ENV" env-default:"development"`
	Port          string `env:"PORT" env-default:"5000"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	LogDir        string `env:"LOG_DIR"`
	CORSOrigins   string `env:"CORS_ORIGINS" env-default:"*"`
	ProbeSchedule string `env:"STORE_PROBE_SCHEDULE" env-default:"@every 30s"`

	Store   Store
	OpenAI  OpenAI
	Webhook Webhook
}

// Load reads configuration from environment variables, loading a .env file
// first if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		c.Env = EnvDevelopment
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.OpenAI.SystemPrompt == "" {
		c.OpenAI.SystemPrompt = defaultSystemPrompt
	}

	if c.Env == EnvTesting {
		// external integrations are never called from the test profile
		c.OpenAI.APIKey = ""
		c.Webhook.URL = ""
		c.Store.MongoURI = c.Store.TestMongoURI
	}

	if c.Env == EnvProduction && c.storeAddress() == "" {
		return fmt.Errorf("store address for driver %q is required in production", c.Store.Driver)
	}
	return nil
}

func (c *Config) storeAddress() string {
	switch c.Store.Driver {
	case "mongo":
		return c.Store.MongoURI
	case "mysql":
		return c.Store.MySQL.Host
	case "sqlite":
		return c.Store.SQLitePath
	case "redis":
		return c.Store.RedisURL
	case "memory":
		return "memory"
	}
	return ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Origins splits CORSOrigins into its entries.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
