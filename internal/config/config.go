package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime settings. Every field maps to one env var.
type Config struct {
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	PostgresConn  string `mapstructure:"POSTGRES_CONN"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	NotifyFrom   string `mapstructure:"NOTIFY_FROM"`

	RateRFQCreatePerHour   int `mapstructure:"RATE_RFQ_CREATE_PER_HOUR"`
	RateQuoteSubmitPerHour int `mapstructure:"RATE_QUOTE_SUBMIT_PER_HOUR"`
	RateRFQListPerMinute   int `mapstructure:"RATE_RFQ_LIST_PER_MINUTE"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"SERVER_ADDRESS", "APP_ENV", "WORKER_POOL_SIZE",
	"STORAGE_DRIVER", "POSTGRES_CONN", "REDIS_URL",
	"JWT_SECRET",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "NOTIFY_FROM",
	"RATE_RFQ_CREATE_PER_HOUR", "RATE_QUOTE_SUBMIT_PER_HOUR", "RATE_RFQ_LIST_PER_MINUTE",
	"SHUTDOWN_TIMEOUT",
}

// Load reads the environment, after an optional .env file in the working
// directory. Variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		// AutomaticEnv alone does not expose keys to Unmarshal.
		_ = v.BindEnv(k)
	}

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 2)
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RATE_RFQ_CREATE_PER_HOUR", 20)
	v.SetDefault("RATE_QUOTE_SUBMIT_PER_HOUR", 50)
	v.SetDefault("RATE_RFQ_LIST_PER_MINUTE", 100)
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	return cfg, cfg.Validate()
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN is required when STORAGE_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateRFQCreatePerHour <= 0 || c.RateQuoteSubmitPerHour <= 0 || c.RateRFQListPerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// SMTPEnabled reports whether a mail relay is configured.
func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }
