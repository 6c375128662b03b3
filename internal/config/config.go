package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Slug engine configuration
	Slug SlugConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string        `env:"DB_DRIVER" envDefault:"postgres"` // "postgres" or "sqlite3"
	DSN          string        `env:"DB_DSN"`                          // overrides the host/port fields when set
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         string        `env:"DB_PORT" envDefault:"5432"`
	User         string        `env:"DB_USER" envDefault:"postgres"`
	Password     string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name         string        `env:"DB_NAME" envDefault:"slug_swap"`
	SSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxLifetime  time.Duration `env:"DB_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// SlugConfig holds slug derivation and redirect settings
type SlugConfig struct {
	Normalizer        string        `env:"SLUG_NORMALIZER" envDefault:"default"` // "default" or "strict"
	AllowUnicode      bool          `env:"SLUG_ALLOW_UNICODE" envDefault:"true"`
	MaxLength         int           `env:"SLUG_MAX_LENGTH" envDefault:"255"`
	MaxSuffixAttempts int           `env:"SLUG_MAX_SUFFIX_ATTEMPTS" envDefault:"10000"`
	TypeMapping       string        `env:"SLUGSWAP_TYPE_MAPPING"`      // inline YAML or JSON
	TypeMappingFile   string        `env:"SLUGSWAP_TYPE_MAPPING_FILE"` // path to a YAML file
	ReconcileInterval time.Duration `env:"SLUGSWAP_RECONCILE_INTERVAL" envDefault:"0s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "pretty"
}

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into Config
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned by Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Load reads configuration from an optional .env file and the environment
func Load(envFiles ...string) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("%w: DB_HOST is required", ErrInvalidConfig)
		}
		if c.Database.DSN == "" && c.Database.Name == "" {
			return fmt.Errorf("%w: DB_NAME is required", ErrInvalidConfig)
		}
	case "sqlite3":
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: DB_DSN is required for sqlite3", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.Slug.Normalizer {
	case "default", "strict":
	default:
		return fmt.Errorf("%w: unsupported SLUG_NORMALIZER %q", ErrInvalidConfig, c.Slug.Normalizer)
	}
	if c.Slug.MaxSuffixAttempts <= 0 {
		return fmt.Errorf("%w: SLUG_MAX_SUFFIX_ATTEMPTS must be positive", ErrInvalidConfig)
	}
	if c.Slug.MaxLength < 0 {
		return fmt.Errorf("%w: SLUG_MAX_LENGTH must not be negative", ErrInvalidConfig)
	}
	if c.Slug.ReconcileInterval < 0 {
		return fmt.Errorf("%w: SLUGSWAP_RECONCILE_INTERVAL must not be negative", ErrInvalidConfig)
	}
	return nil
}

// GetDSN returns the driver-specific connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
