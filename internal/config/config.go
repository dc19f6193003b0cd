package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL is required")
	ErrInvalidCurrencyScale = errors.New("currency_scale must be between 0 and 4")
	ErrInvalidColor         = errors.New("color must be a #rrggbb hex value")
	ErrDuplicatePillar      = errors.New("duplicate pillar category")
	ErrEmptyLabel           = errors.New("label must not be empty")
	ErrInvalidRateLimit     = errors.New("rate limit must be positive")
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Config is everything the server and CLI tools need at startup.
type Config struct {
	Port           string    `yaml:"port"`
	DatabaseURL    string    `yaml:"database_url"`
	LogLevel       string    `yaml:"log_level"`
	LogPretty      bool      `yaml:"log_pretty"`
	AllowedOrigins []string  `yaml:"allowed_origins"`
	RateLimit      RateLimit `yaml:"rate_limit"`
	Pool           Pool      `yaml:"pool"`
	Finance        Finance   `yaml:"finance"`
}

// RateLimit bounds report endpoints, per client address.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Pool struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	SlowQueryMillis        int `yaml:"slow_query_millis"`
}

// Default returns the settings used when no file or environment overrides them.
func Default() Config {
	return Config{
		Port:     "5050",
		LogLevel: "info",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:8080",
		},
		RateLimit: RateLimit{RPS: 5, Burst: 20},
		Pool: Pool{
			MaxOpenConns:           20,
			MaxIdleConns:           20,
			ConnMaxLifetimeMinutes: 30,
			SlowQueryMillis:        100,
		},
		Finance: DefaultFinance(),
	}
}

// Load reads an optional YAML file, then applies environment overrides.
//
// Environment variables:
//   - FINANCE_CONFIG: path to the YAML file (used when path is empty)
//   - PORT, DATABASE_URL, LOG_LEVEL, LOG_PRETTY
//   - CORS_ALLOWED_ORIGINS: comma separated list
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - CURRENCY_SCALE: fractional digits kept when rounding shares
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("FINANCE_CONFIG"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		c.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_PRETTY")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.LogPretty = b
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RPS = f
	}
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimit.Burst = n
	}
	if v := strings.TrimSpace(os.Getenv("CURRENCY_SCALE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CURRENCY_SCALE: %w", err)
		}
		c.Finance.CurrencyScale = int32(n)
	}
	return nil
}

// Validate checks the server settings and the finance section.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return ErrInvalidRateLimit
	}
	return c.Finance.Validate()
}
