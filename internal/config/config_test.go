package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tverrors "tradevault/internal/errors"
)

func TestLoadCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Equal(t, "127.0.0.1:3001", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "USD", cfg.Journal.DefaultCurrency)
	assert.Equal(t, filepath.Join(dir, "tradevault.db"), cfg.DatabasePath())

	// the written template loads back to the same values
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, again.Server)
	assert.Equal(t, cfg.Journal, again.Journal)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[database]
path = "/tmp/journal.db"

[journal]
default_currency = "EUR"
default_risk_percent = 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal.db", cfg.DatabasePath())
	assert.Equal(t, "EUR", cfg.Journal.DefaultCurrency)
	assert.Equal(t, 0.5, cfg.Journal.DefaultRiskPercent)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADEVAULT_ADDR", ":9090")
	t.Setenv("TRADEVAULT_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "debug", cfg.LogConfig().Level)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADEVAULT_CURRENCY=GBP\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TRADEVAULT_CURRENCY") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Journal.DefaultCurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "x.db"},
			Server:   ServerConfig{Addr: ":3001"},
			Logging:  LoggingConfig{Level: "info"},
			Journal:  JournalConfig{DefaultCurrency: "USD", DefaultRiskPercent: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no database", func(c *Config) { c.Database.Path = "" }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"risk above 100", func(c *Config) { c.Journal.DefaultRiskPercent = 150 }},
		{"bad currency", func(c *Config) { c.Journal.DefaultCurrency = "DOLLAR" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, tverrors.Is(err, tverrors.ErrConfigInvalid))
		})
	}
}
