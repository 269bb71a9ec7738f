package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/breakwatch/internal/analysis"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Sync      SyncConfig      `yaml:"sync"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// AnalysisConfig controls how scans are bucketed into calendar days and how
// wide the trailing trend window is.
type AnalysisConfig struct {
	TrendDays int    `yaml:"trend_days"`
	Timezone  string `yaml:"timezone"`
}

// SyncConfig tunes the remote sync transport. The endpoint itself is runtime
// state stored in the database, not configuration.
type SyncConfig struct {
	RetryMax int           `yaml:"retry_max"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "breakwatch.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Analysis: AnalysisConfig{
			TrendDays: 7,
			Timezone:  "Local",
		},
		Sync: SyncConfig{
			RetryMax: 3,
			Timeout:  30 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("BREAKWATCH_CONFIG_PATH"))
}

// LoadFrom reads configuration from path (skipped when empty), then applies
// environment overrides and validates the result.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("BREAKWATCH_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("BREAKWATCH_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid BREAKWATCH_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("BREAKWATCH_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("BREAKWATCH_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("BREAKWATCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("BREAKWATCH_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if daysStr := os.Getenv("BREAKWATCH_TREND_DAYS"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return fmt.Errorf("invalid BREAKWATCH_TREND_DAYS: %w", err)
		}
		cfg.Analysis.TrendDays = days
	}
	if tz := os.Getenv("BREAKWATCH_TIMEZONE"); tz != "" {
		cfg.Analysis.Timezone = tz
	}
	if retryStr := os.Getenv("BREAKWATCH_SYNC_RETRY_MAX"); retryStr != "" {
		retry, err := strconv.Atoi(retryStr)
		if err != nil {
			return fmt.Errorf("invalid BREAKWATCH_SYNC_RETRY_MAX: %w", err)
		}
		cfg.Sync.RetryMax = retry
	}
	if timeoutStr := os.Getenv("BREAKWATCH_SYNC_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid BREAKWATCH_SYNC_TIMEOUT: %w", err)
		}
		cfg.Sync.Timeout = timeout
	}
	return nil
}

// Validate checks value ranges that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	if c.Analysis.TrendDays < 1 || c.Analysis.TrendDays > analysis.MaxTrendDays {
		return fmt.Errorf("analysis trend_days must be between 1 and %d, got %d", analysis.MaxTrendDays, c.Analysis.TrendDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Sync.RetryMax < 0 {
		return fmt.Errorf("sync retry_max must not be negative")
	}
	return nil
}

// Location resolves the configured timezone used to derive calendar days.
func (c Config) Location() (*time.Location, error) {
	switch c.Analysis.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis timezone %q: %w", c.Analysis.Timezone, err)
	}
	return loc, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
