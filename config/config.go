package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is built once at process start and passed down explicitly.
type Config struct {
	Env         string          `yaml:"env" env:"APP_ENV" env-default:"development"`
	HTTP        HTTPConfig      `yaml:"http"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	ResetSecret string          `yaml:"reset_password" env:"RESET_PASSWORD"`
	SeedOnStart bool            `yaml:"seed_on_start" env:"SEED_ON_START" env-default:"true"`
	Seed        []SeedPoll      `yaml:"seed"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"SERVER_PORT" env-default:"8090"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	AllowOrigins    []string      `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"*"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies  []string      `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN      string `yaml:"dsn" env:"DATABASE_URL" env-default:"polls.db"`
	LogLevel string `yaml:"log_level" env:"DB_LOG_LEVEL" env-default:"warn"`
}

// RedisConfig is optional; an empty Addr keeps every Redis-backed component
// on its in-process fallback.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"ENABLE_RATE_LIMIT" env-default:"false"`
	Rate    float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst   int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// SeedPoll is one entry of the default poll set used by reset and first start.
type SeedPoll struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
}

// Load reads the YAML file at path, if any, and then applies environment
// variables on top of it.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}

	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit rps and burst must be positive")
	}

	for _, proxy := range c.HTTP.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid trusted proxy %q", proxy)
			}
		}
	}

	for i, p := range c.Seed {
		if strings.TrimSpace(p.Question) == "" || nonBlank(p.Options) < 2 {
			return fmt.Errorf("seed poll %d needs a question and at least 2 non-empty options", i)
		}
	}

	return nil
}

func nonBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// IsDevelopment reports whether internal error details may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment || c.Env == EnvLocal
}
