package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

const (
	EnvPrefix = "LMSR_"
	// MaxHistoryCapacity matches the ceiling enforced by history.NewLog.
	MaxHistoryCapacity = 50
)

type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Backend   BackendConfig   `koanf:"backend"`
	Reminders RemindersConfig `koanf:"reminders"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"` // sqlite or postgres
	Path     string `koanf:"path"`   // sqlite file
	Host     string `koanf:"host"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	Port     int    `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`
}

// RedisConfig selects redis as the settings/history backend when URL is set.
type RedisConfig struct {
	URL       string `koanf:"url"`
	KeyPrefix string `koanf:"key_prefix"`
}

type TelegramConfig struct {
	Token  string `koanf:"token"`
	ChatID int64  `koanf:"chat_id"`
}

type BackendConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timezone string        `koanf:"timezone"`
}

type RemindersConfig struct {
	SyncInterval     time.Duration `koanf:"sync_interval"`
	DispatchInterval time.Duration `koanf:"dispatch_interval"`
	HistoryCapacity  int           `koanf:"history_capacity"`
}

type LoggingConfig struct {
	Level     string        `koanf:"level"`
	File      string        `koanf:"file"`
	Format    string        `koanf:"format"`
	GormLevel string        `koanf:"gorm_level"`
	SlowQuery time.Duration `koanf:"slow_query"`
}

var AppConfig Config

// LoadConfig layers defaults, the optional config file and LMSR_* environment
// variables into AppConfig. Nested keys use a double underscore in env names,
// e.g. LMSR_BACKEND__BASE_URL. A .env file in the working directory is read
// first; variables already set in the environment win.
func LoadConfig(filename string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to read .env file", "error", err)
	}
	cfg, err := Load(filename)
	if err != nil {
		logger.Error("failed to load config", "file", filename, "error", err)
		return err
	}
	AppConfig = *cfg
	return nil
}

func Load(filename string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if filename != "" {
		if err := k.Load(file.Provider(filename), parserFor(filename)); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func parserFor(filename string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return json.Parser()
	}
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.dbname are required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q (supported: sqlite, postgres)", c.Database.Driver))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if _, err := time.LoadLocation(c.Backend.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("backend.timezone: %w", err))
	}
	if c.Reminders.HistoryCapacity <= 0 || c.Reminders.HistoryCapacity > MaxHistoryCapacity {
		errs = append(errs, fmt.Errorf("reminders.history_capacity must be between 1 and %d", MaxHistoryCapacity))
	}
	return errors.Join(errs...)
}

// Location resolves Backend.Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Backend.Timezone)
	if err != nil {
		logger.Error("invalid backend timezone, falling back to UTC", "timezone", c.Backend.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
