// Package config loads the navcast yaml configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Feed      FeedConfig      `yaml:"feed"`
	Engine    EngineConfig    `yaml:"engine"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	LogLevel  string          `yaml:"log_level"`
}

// DatabaseConfig points at the reference/market data warehouse.
type DatabaseConfig struct {
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig points at the snapshot cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Disabled bool          `yaml:"disabled"`
}

// FeedConfig configures the live price websocket subscriber.
type FeedConfig struct {
	URL              string        `yaml:"url"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
	Disabled         bool          `yaml:"disabled"`
}

// EngineConfig controls the calculation loop.
type EngineConfig struct {
	CalcInterval  time.Duration `yaml:"calc_interval"`
	StartInterval time.Duration `yaml:"start_interval"`
}

// MonitorConfig configures the monitoring HTTP server.
type MonitorConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and validates a yaml config file, applying defaults for
// anything unset.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Timeout == 0 {
		c.Database.Timeout = 10 * time.Second
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.Feed.ReconnectBackoff == 0 {
		c.Feed.ReconnectBackoff = 5 * time.Second
	}
	if c.Engine.CalcInterval == 0 {
		c.Engine.CalcInterval = time.Minute
	}
	if c.Engine.StartInterval == 0 {
		c.Engine.StartInterval = 30 * time.Minute
	}
	if c.Monitor.Addr == "" {
		c.Monitor.Addr = ":8090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
