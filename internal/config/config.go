package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Lock     LockConfig     `yaml:"lock"`
	Quota    QuotaConfig    `yaml:"quota"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LockConfig bounds how long an editing session owns a slide lock before
// it expires on its own.
type LockConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// QuotaConfig sets the slide limit seeded for users without a ledger entry.
type QuotaConfig struct {
	SlideLimit int64 `yaml:"slide_limit"`
}

// ScheduleConfig picks the policy for inconsistent scheduling flags:
// "derive" corrects the enabled flag from the window, "reject" fails the
// request.
type ScheduleConfig struct {
	Policy string `yaml:"policy"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "marquee.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Lock: LockConfig{
			TTLSeconds: 600,
		},
		Quota: QuotaConfig{
			SlideLimit: 46,
		},
		Schedule: ScheduleConfig{
			Policy: "derive",
		},
	}

	if path := os.Getenv("MARQUEE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("MARQUEE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("MARQUEE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MARQUEE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("MARQUEE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("MARQUEE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ttlStr := os.Getenv("MARQUEE_LOCK_TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MARQUEE_LOCK_TTL: %w", err)
		}
		cfg.Lock.TTLSeconds = ttl
	}
	if limitStr := os.Getenv("MARQUEE_SLIDE_LIMIT"); limitStr != "" {
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MARQUEE_SLIDE_LIMIT: %w", err)
		}
		cfg.Quota.SlideLimit = limit
	}
	if policy := os.Getenv("MARQUEE_SCHEDULE_POLICY"); policy != "" {
		cfg.Schedule.Policy = policy
	}

	if cfg.Schedule.Policy != "derive" && cfg.Schedule.Policy != "reject" {
		return Config{}, fmt.Errorf("invalid schedule policy %q", cfg.Schedule.Policy)
	}
	if cfg.Lock.TTLSeconds <= 0 {
		return Config{}, fmt.Errorf("lock ttl must be positive")
	}

	return cfg, nil
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
