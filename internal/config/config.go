// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	GIF       GIFConfig       `mapstructure:"gif"`
	Log       LogConfig       `mapstructure:"log"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
}

// BotConfig holds chat transport configuration.
type BotConfig struct {
	Token        string        `mapstructure:"token"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	RetryInitial time.Duration `mapstructure:"retry_initial"`
	RetryMax     int           `mapstructure:"retry_max"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
// An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// Enabled reports whether a database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds the optional effects persistence connection.
// An empty Addr keeps shop effects in memory only.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AdminConfig holds owner and dashboard credentials.
type AdminConfig struct {
	OwnerID  int64  `mapstructure:"owner_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Secret   string `mapstructure:"secret"`
}

// HTTPConfig holds dashboard server configuration.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// Addr returns the listen address.
func (h *HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

// EconomyConfig holds economy tuning.
type EconomyConfig struct {
	StartBalance int64  `mapstructure:"start_balance"`
	Timezone     string `mapstructure:"timezone"`
	Seed         int64  `mapstructure:"seed"`
}

// Location resolves Timezone, falling back to UTC.
func (e *EconomyConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// GIFConfig holds the media lookup key. It is accepted but unused.
type GIFConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// envBindings maps config keys to the plain environment variable names
// deployments already use.
var envBindings = map[string]string{
	"bot.token":             "BOT_TOKEN",
	"database.url":          "DATABASE_URL",
	"redis.addr":            "REDIS_ADDR",
	"redis.password":        "REDIS_PASSWORD",
	"admin.owner_id":        "OWNER_ID",
	"admin.username":        "ADMIN_USERNAME",
	"admin.password":        "ADMIN_PASSWORD",
	"admin.secret":          "ADMIN_SECRET",
	"http.port":             "PORT",
	"economy.start_balance": "START_BALANCE",
	"economy.timezone":      "TIMEZONE",
	"gif.api_key":           "GIF_API_KEY",
	"log.level":             "LOG_LEVEL",
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Nested keys also resolve from e.g. DATABASE_POOL_SIZE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Config file is optional - env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("bot.retry_initial", "30s")
	v.SetDefault("bot.retry_max", 3)

	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("http.port", 5000)

	v.SetDefault("economy.start_balance", 100)
	v.SetDefault("economy.timezone", "UTC")
	v.SetDefault("economy.seed", 0)

	v.SetDefault("log.level", "info")
}

// Validate rejects values that cannot work. Missing optional settings are not errors.
func (c *Config) Validate() error {
	if c.Economy.StartBalance < 0 {
		return fmt.Errorf("economy.start_balance must not be negative, got %d", c.Economy.StartBalance)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if _, err := c.Economy.Location(); err != nil {
		return err
	}
	return nil
}

// IsOwner checks if a user ID is the configured owner.
func (c *Config) IsOwner(userID int64) bool {
	return c.Admin.OwnerID != 0 && c.Admin.OwnerID == userID
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
