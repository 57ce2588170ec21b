package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Quiz sources.
const (
	QuizSourceCatalog  = "catalog"
	QuizSourcePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
		KeyPrefix  string `yaml:"key_prefix"`
	} `yaml:"storage"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		Namespace string `yaml:"namespace"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL    string `yaml:"ttl"`
		Source string `yaml:"source"`
	} `yaml:"quiz"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.SQLitePath = "data/progress.db"
	cfg.Storage.KeyPrefix = "tutorial"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.Source = QuizSourceCatalog
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Report.Dir = "reports"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies TUTOR_* env
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Server.Port = envStr("TUTOR_PORT", c.Server.Port)
	c.Storage.Driver = envStr("TUTOR_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.SQLitePath = envStr("TUTOR_SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.KeyPrefix = envStr("TUTOR_KEY_PREFIX", c.Storage.KeyPrefix)
	c.Redis.Addr = envStr("TUTOR_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envStr("TUTOR_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("TUTOR_REDIS_DB", c.Redis.DB)
	c.Postgres.URL = envStr("TUTOR_POSTGRES_URL", c.Postgres.URL)
	c.Quiz.TTL = envStr("TUTOR_QUIZ_TTL", c.Quiz.TTL)
	c.Quiz.Source = envStr("TUTOR_QUIZ_SOURCE", c.Quiz.Source)
	c.Catalog.Path = envStr("TUTOR_CATALOG_PATH", c.Catalog.Path)
	c.Log.Level = envStr("TUTOR_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envStr("TUTOR_LOG_FORMAT", c.Log.Format)
	c.Report.Dir = envStr("TUTOR_REPORT_DIR", c.Report.Dir)
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("storage.driver must be memory, sqlite, redis or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
	}
	if c.Storage.Driver == DriverRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis driver")
	}

	switch c.Quiz.Source {
	case QuizSourceCatalog, QuizSourcePostgres:
	default:
		return fmt.Errorf("quiz.source must be catalog or postgres, got %q", c.Quiz.Source)
	}
	if (c.Storage.Driver == DriverPostgres || c.Quiz.Source == QuizSourcePostgres) && c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required when postgres is selected")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// LogLevel parses log.level into a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}
