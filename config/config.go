package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"production"`
	LogLevel        string        `env:"LOG_LEVEL"`
	AppName         string        `env:"APP_NAME" envDefault:"SplitLedger"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	RedisURL        string        `env:"REDIS_URL"`
	BalanceCacheTTL time.Duration `env:"BALANCE_CACHE_TTL" envDefault:"5m"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	Currency        string        `env:"CURRENCY" envDefault:"INR"`
	SendGridAPIKey  string        `env:"SENDGRID_API_KEY"`
	SendGridFrom    string        `env:"SENDGRID_FROM_EMAIL" envDefault:"noreply@splitledger.app"`
	FirebaseCreds   string        `env:"FIREBASE_CREDENTIALS"`
	NotifyBuffer    int           `env:"NOTIFY_BUFFER" envDefault:"100"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var AppConfig *Config

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	AppConfig = cfg
	return cfg, nil
}

// InMemory reports whether the service runs without a database.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == ""
}
