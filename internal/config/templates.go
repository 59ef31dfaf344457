package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# TradeVault Configuration

[database]
# SQLite database file; relative paths resolve against this directory
path = "tradevault.db"

[server]
# Listen address of "tradevault serve"
addr = "127.0.0.1:3001"
read_timeout = "15s"
write_timeout = "30s"
cors_origins = ["*"]

[logging]
# Level: debug, info, warn, error, off
level = "info"
console = true
file = true
# Rotation limits (megabytes, files, days)
max_size = 20
max_backups = 5
max_age = 30

[display]
# Enable colored output
color_enabled = true
# Date format used by tables
date_format = "02 Jan 2006"

[journal]
# Account used when --account is not given
default_account = ""
default_account_type = "Personal"
default_currency = "USD"
# Risk percent suggested when logging a trade
default_risk_percent = 1.0
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
