// Package config provides configuration management for the journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Display  DisplayConfig  `mapstructure:"display"`
	Journal  JournalConfig  `mapstructure:"journal"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // relative paths resolve against the config dir
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DisplayConfig holds CLI output configuration.
type DisplayConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// JournalConfig holds journal defaults.
type JournalConfig struct {
	DefaultAccount     string  `mapstructure:"default_account"`
	DefaultAccountType string  `mapstructure:"default_account_type"`
	DefaultCurrency    string  `mapstructure:"default_currency"`
	DefaultRiskPercent float64 `mapstructure:"default_risk_percent"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradevault"
	}
	return filepath.Join(home, ".config", "tradevault")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env files only fill variables that are not already set
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("database.path", "tradevault.db")
	v.SetDefault("server.addr", "127.0.0.1:3001")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "tradevault.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("display.color_enabled", true)
	v.SetDefault("display.date_format", "02 Jan 2006")
	v.SetDefault("journal.default_account_type", "Personal")
	v.SetDefault("journal.default_currency", "USD")
	v.SetDefault("journal.default_risk_percent", 1.0)
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and continue on defaults
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADEVAULT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TRADEVAULT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADEVAULT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRADEVAULT_CURRENCY"); v != "" {
		cfg.Journal.DefaultCurrency = v
	}
	if v := os.Getenv("TRADEVAULT_ACCOUNT"); v != "" {
		cfg.Journal.DefaultAccount = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return tverrors.Wrap(tverrors.ErrConfigInvalid, "database.path must be set")
	}
	if c.Server.Addr == "" {
		return tverrors.Wrap(tverrors.ErrConfigInvalid, "server.addr must be set")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return tverrors.Wrapf(tverrors.ErrConfigInvalid, "invalid log level: %s (must be debug, info, warn, error or off)", c.Logging.Level)
	}
	if c.Journal.DefaultRiskPercent < 0 || c.Journal.DefaultRiskPercent > 100 {
		return tverrors.Wrap(tverrors.ErrConfigInvalid, "default_risk_percent must be between 0 and 100")
	}
	if len(c.Journal.DefaultCurrency) != 3 {
		return tverrors.Wrapf(tverrors.ErrConfigInvalid, "default_currency must be a 3-letter code, got %q", c.Journal.DefaultCurrency)
	}
	return nil
}

// DatabasePath resolves the database path against the config directory.
func (c *Config) DatabasePath() string {
	if c.Database.Path == ":memory:" || filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(c.Dir, c.Database.Path)
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// ConfigFile returns the path of the main config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.Dir, "config.toml")
}
