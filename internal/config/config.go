package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/insightsec/harvestr/internal/logger"
)

// DefaultPath is where the controller looks for its configuration when no
// --config flag is given.
const DefaultPath = "harvestr.toml"

// Defaults for optional sections.
const (
	DefaultRegistryDSN  = "harvester_db.sqlite"
	DefaultEventLogPath = "harvester_events.log"
	DefaultPace         = time.Second
	DefaultListen       = "127.0.0.1:8585"
)

// Config is the top-level TOML structure.
type Config struct {
	Telegram TelegramConfig `toml:"telegram" mapstructure:"telegram"`
	Registry RegistryConfig `toml:"registry" mapstructure:"registry"`
	EventLog EventLogConfig `toml:"eventlog" mapstructure:"eventlog"`
	Launcher LauncherConfig `toml:"launcher" mapstructure:"launcher"`
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Log      logger.Config  `toml:"log" mapstructure:"log"`
}

// TelegramConfig carries the API credentials every monitor needs. Both
// fields are required; a fleet without them cannot authenticate at all, so
// validation failure is fatal before any session work.
type TelegramConfig struct {
	APIID   int    `toml:"api_id" mapstructure:"api_id"`
	APIHash string `toml:"api_hash" mapstructure:"api_hash"`
}

type RegistryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type EventLogConfig struct {
	Path  string   `toml:"path" mapstructure:"path"`
	Sinks []string `toml:"sinks" mapstructure:"sinks"` // extra sink DSNs (sqlite/postgres/clickhouse)
}

type LauncherConfig struct {
	Command        string        `toml:"command" mapstructure:"command"`
	Args           []string      `toml:"args" mapstructure:"args"`
	WorkDir        string        `toml:"workdir" mapstructure:"workdir"`
	Pace           time.Duration `toml:"pace" mapstructure:"pace"`
	KillOnShutdown bool          `toml:"kill_on_shutdown" mapstructure:"kill_on_shutdown"`
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file %q not found: %w", path, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("configuration file %q is invalid: %w", path, err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("configuration file %q is invalid: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Registry.DSN == "" {
		c.Registry.DSN = DefaultRegistryDSN
	}
	if c.EventLog.Path == "" {
		c.EventLog.Path = DefaultEventLogPath
	}
	if c.Launcher.Pace <= 0 {
		c.Launcher.Pace = DefaultPace
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
}

// Validate checks the required credential section.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.APIID <= 0 {
		errs = append(errs, errors.New("telegram.api_id is required and must be a positive integer"))
	}
	if strings.TrimSpace(c.Telegram.APIHash) == "" {
		errs = append(errs, errors.New("telegram.api_hash is required"))
	}
	return errors.Join(errs...)
}
