package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Pricing  PricingAPIConfig
	Telegram TelegramConfig
	Quote    QuoteConfig
	Verbose  bool `env:"VERBOSE" envDefault:"false"`
}

type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST,required"`
	Port            int           `env:"DB_PORT,required"`
	User            string        `env:"DB_USER,required"`
	Password        string        `env:"DB_PASSWORD,required"`
	Name            string        `env:"DB_NAME,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,required"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	// Pricing bundles go stale quickly; the proxy recomputes them on a short
	// cycle.
	BundleTTL time.Duration `env:"REDIS_BUNDLE_TTL" envDefault:"5m"`
}

type PricingAPIConfig struct {
	BaseURL string        `env:"PRICING_API_BASE_URL,required"`
	Key     string        `env:"PRICING_API_KEY,required"`
	Timeout time.Duration `env:"PRICING_API_TIMEOUT" envDefault:"30s"`
}

// TelegramConfig drives staff notifications. Leaving the token empty disables
// them.
type TelegramConfig struct {
	Token     string  `env:"TELEGRAM_TOKEN"`
	ChannelID int64   `env:"TELEGRAM_CHANNEL_ID"`
	AdminIDs  []int64 `env:"TELEGRAM_ADMIN_IDS" envSeparator:","`
}

type QuoteConfig struct {
	ValidityDays int `env:"QUOTE_VALIDITY_DAYS" envDefault:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
