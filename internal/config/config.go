package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Environment        string        `mapstructure:"ENV"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	StorageDriver      string        `mapstructure:"STORAGE_DRIVER"`
	DBDSN              string        `mapstructure:"DB_DSN"`
	RunMigrations      bool          `mapstructure:"RUN_MIGRATIONS"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	NatsURL            string        `mapstructure:"NATS_URL"`
	TelegramToken      string        `mapstructure:"TELEGRAM_TOKEN"`
	OTLPEndpoint       string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SlotExpiryInterval time.Duration `mapstructure:"SLOT_EXPIRY_INTERVAL"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"ENV":                         "development",
	"HTTP_ADDR":                   ":8080",
	"STORAGE_DRIVER":              StoragePostgres,
	"DB_DSN":                      "",
	"RUN_MIGRATIONS":              true,
	"JWT_SECRET":                  "",
	"NATS_URL":                    "",
	"TELEGRAM_TOKEN":              "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"SLOT_EXPIRY_INTERVAL":        time.Hour,
	"SHUTDOWN_TIMEOUT":            10 * time.Second,
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.SlotExpiryInterval <= 0 {
		return fmt.Errorf("SLOT_EXPIRY_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
