// Package config loads the StickFix process configuration from a YAML
// file, environment variables prefixed with STICKFIX_, and built-in
// defaults, in that order of increasing precedence for env over file.
//
// The Telegram API key deliberately does not live here: it is stored in
// the meta table of the persistent store so that a config file can be
// committed without leaking credentials.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks when --config is not given.
const DefaultPath = "stickfix.yaml"

// Defaults applied when neither the file nor the environment sets a key.
const (
	defaultDriver            = "sqlite"
	defaultDatabaseURL       = "stickfix.db"
	defaultEvictionInterval  = 15 * time.Minute
	defaultEvictionThreshold = time.Hour
	defaultPollTimeout       = 10 * time.Second
	defaultLogLevel          = "info"
)

// Config is the resolved process configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Eviction EvictionConfig `yaml:"eviction"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the persistent backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// EvictionConfig tunes the pending-registration reaper.
type EvictionConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

// TelegramConfig tunes the Telegram transport.
type TelegramConfig struct {
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the config file at path and overlays STICKFIX_* environment
// variables. A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	v.SetDefault("database.driver", defaultDriver)
	v.SetDefault("database.url", defaultDatabaseURL)
	v.SetDefault("eviction.interval", defaultEvictionInterval)
	v.SetDefault("eviction.threshold", defaultEvictionThreshold)
	v.SetDefault("telegram.poll_timeout", defaultPollTimeout)
	v.SetDefault("log.level", defaultLogLevel)

	v.SetEnvPrefix("STICKFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.Database.Driver = v.GetString("database.driver")
	cfg.Database.URL = v.GetString("database.url")
	cfg.Eviction.Interval = v.GetDuration("eviction.interval")
	cfg.Eviction.Threshold = v.GetDuration("eviction.threshold")
	cfg.Telegram.PollTimeout = v.GetDuration("telegram.poll_timeout")
	cfg.Log.Level = v.GetString("log.level")
	return cfg, nil
}

// LogLevel maps the configured level name onto slog. Unknown names fall
// back to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fileConfig mirrors Config with durations as strings so the generated
// file reads as "15m0s" rather than nanosecond integers.
type fileConfig struct {
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Eviction struct {
		Interval  string `yaml:"interval"`
		Threshold string `yaml:"threshold"`
	} `yaml:"eviction"`
	Telegram struct {
		PollTimeout string `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// WriteDefault writes a starter config file at path. An existing file is
// left untouched.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var fc fileConfig
	fc.Database.Driver = defaultDriver
	fc.Database.URL = defaultDatabaseURL
	fc.Eviction.Interval = defaultEvictionInterval.String()
	fc.Eviction.Threshold = defaultEvictionThreshold.String()
	fc.Telegram.PollTimeout = defaultPollTimeout.String()
	fc.Log.Level = defaultLogLevel

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
