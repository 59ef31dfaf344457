// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "tradevault", "logs", "tradevault.log"),
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
// Console output goes to stderr so command output on stdout stays parseable.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, consoleWriter(os.Stderr))
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

// consoleWriter renders human-readable lines; colors are dropped when out
// is not a terminal.
func consoleWriter(out *os.File) zerolog.ConsoleWriter {
	color := false
	if fi, err := out.Stat(); err == nil {
		color = fi.Mode()&os.ModeCharDevice != 0
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !color,
		TimeFormat: time.Kitchen,
	}
}

// parseLevel maps a configured level name onto zerolog, accepting "off"
// for disabled and falling back to info.
func parseLevel(level string) zerolog.Level {
	if level == "off" {
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ValidLevel reports whether level is a recognised level name.
func ValidLevel(level string) bool {
	if level == "off" {
		return true
	}
	l, err := zerolog.ParseLevel(level)
	return err == nil && l != zerolog.NoLevel
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

const (
	// LoggerKey is the context key for the logger.
	LoggerKey ContextKey = "logger"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithAccount adds an account ID to the logger context.
func WithAccount(logger zerolog.Logger, accountID string) zerolog.Logger {
	return logger.With().Str("account_id", accountID).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogTrade logs a trade journal event.
func LogTrade(logger zerolog.Logger, action, code, pair, direction string) {
	logger.Info().
		Str("event", "trade").
		Str("action", action).
		Str("trade_code", code).
		Str("pair", pair).
		Str("direction", direction).
		Msg("Trade " + action)
}

// LogTransaction logs a deposit or withdrawal.
func LogTransaction(logger zerolog.Logger, accountID, txType string, amount float64) {
	logger.Info().
		Str("event", "transaction").
		Str("account_id", accountID).
		Str("type", txType).
		Float64("amount", amount).
		Msg("Ledger updated")
}

// LogBalance logs a reconciled balance.
func LogBalance(logger zerolog.Logger, accountID string, cached, current float64) {
	event := logger.Debug()
	if cached != current {
		event = logger.Info()
	}
	event.
		Str("event", "balance").
		Str("account_id", accountID).
		Float64("cached", cached).
		Float64("current", current).
		Msg("Balance reconciled")
}

// LogImport logs the result of a CSV import.
func LogImport(logger zerolog.Logger, accountID string, imported, skipped int) {
	logger.Info().
		Str("event", "import").
		Str("account_id", accountID).
		Int("imported", imported).
		Int("skipped", skipped).
		Msg("CSV import finished")
}

// LogAPICall logs an HTTP request.
func LogAPICall(logger zerolog.Logger, method, endpoint string, status int, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", status).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("API call failed")
	} else {
		event.Msg("API call completed")
	}
}
