package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"port"`
	StoreDriver string `mapstructure:"store_driver"` // postgres | memory

	DatabaseURL string `mapstructure:"database_url"`
	DBHost      string `mapstructure:"db_host"`
	DBPort      int    `mapstructure:"db_port"`
	DBUser      string `mapstructure:"db_user"`
	DBPassword  string `mapstructure:"db_password"`
	DBName      string `mapstructure:"db_name"`
	DBSSLMode   string `mapstructure:"db_sslmode"`
	DBTimeZone  string `mapstructure:"db_timezone"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	AllowedOrigins         string `mapstructure:"allowed_origins"`
	RateLimitMax           int    `mapstructure:"rate_limit_max"`
	RateLimitWindowSeconds int    `mapstructure:"rate_limit_window_seconds"`
	BodyLimitMB            int    `mapstructure:"body_limit_mb"`

	PageSize          int    `mapstructure:"page_size"`
	SearchDebounceMS  int    `mapstructure:"search_debounce_ms"`
	DefaultTaxPercent string `mapstructure:"default_tax_percent"`
	DefaultDueDays    int    `mapstructure:"default_due_days"`
}

var defaults = map[string]any{
	"port":         "8080",
	"store_driver": "postgres",

	"database_url": "",
	"db_host":      "localhost",
	"db_port":      5432,
	"db_user":      "postgres",
	"db_password":  "",
	"db_name":      "bizdocs",
	"db_sslmode":   "disable",
	"db_timezone":  "Asia/Jakarta",

	"redis_addr":     "",
	"redis_password": "",
	"redis_db":       0,

	"allowed_origins":           "*",
	"rate_limit_max":            60,
	"rate_limit_window_seconds": 60,
	"body_limit_mb":             4,

	"page_size":           10,
	"search_debounce_ms":  400,
	"default_tax_percent": "11",
	"default_due_days":    30,
}

// Load reads .env (if present), an optional bizdocs.yaml in the working
// directory and the environment, in increasing precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("bizdocs")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Printf("[config] no bizdocs.yaml found, using env and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q (want postgres or memory)", c.StoreDriver)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("invalid PAGE_SIZE %d", c.PageSize)
	}
	tax, err := decimal.NewFromString(strings.TrimSpace(c.DefaultTaxPercent))
	if err != nil || tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("invalid DEFAULT_TAX_PERCENT %q", c.DefaultTaxPercent)
	}
	if c.DefaultDueDays < 0 {
		return fmt.Errorf("invalid DEFAULT_DUE_DAYS %d", c.DefaultDueDays)
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from DB_*.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

func (c *Config) TaxPercent() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.DefaultTaxPercent))
	if err != nil {
		return decimal.NewFromInt(11)
	}
	return d
}

func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) BodyLimitBytes() int {
	if c.BodyLimitMB <= 0 {
		return 4 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
