package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

// StorageConfig selects where state is persisted.
type StorageConfig struct {
	// Driver is "sqlite" or "json".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the database or JSON file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// SchedulerConfig holds auto-reset sweep settings.
type SchedulerConfig struct {
	SweepIntervalSec int `mapstructure:"sweep_interval_sec" yaml:"sweep_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	DarkMode bool   `mapstructure:"dark_mode" yaml:"dark_mode"`
}

// StreakConfig controls which calendar the streak is counted in.
type StreakConfig struct {
	// Timezone is an IANA zone name or "Local".
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Streak    StreakConfig    `mapstructure:"streak" yaml:"streak"`
}

// SweepInterval returns the sweep cadence, falling back to one minute.
func (c *AppConfig) SweepInterval() time.Duration {
	if c.Scheduler.SweepIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.Scheduler.SweepIntervalSec) * time.Second
}

// Location resolves the streak timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Streak.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	return loc, nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/persistdo/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "persistdo", "config.yaml")
}

// DefaultDataPath returns the default SQLite database location.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "persistdo.db")
	}
	return filepath.Join(home, ".local", "share", "persistdo", "persistdo.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   DefaultDataPath(),
		},
		Scheduler: SchedulerConfig{
			SweepIntervalSec: 60,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Streak: StreakConfig{
			Timezone: "Local",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration with any
// PERSISTDO_* environment overrides applied.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("persistdo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", DefaultDataPath())
	v.SetDefault("scheduler.sweep_interval_sec", 60)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.dark_mode", false)
	v.SetDefault("streak.timezone", "Local")

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case DriverSQLite, DriverJSON:
	default:
		return nil, fmt.Errorf("parsing config %s: unknown storage driver %q", path, cfg.Storage.Driver)
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultDataPath()
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("display", cfg.Display)
	v.Set("streak", cfg.Streak)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
