// Package cli provides the command-line interface for the trading journal.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradevault/internal/config"
	"tradevault/internal/journal"
	"tradevault/internal/logging"
	"tradevault/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-01-01"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.DataStore
	Service *journal.Service
}

// service opens the store on first use and returns the journal service.
func (a *App) service() (*journal.Service, error) {
	if a.Service != nil {
		return a.Service, nil
	}
	ds, err := store.NewSQLiteStore(a.Config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	a.Store = ds
	a.Service = journal.NewService(ds, a.Logger, journal.Defaults{
		AccountType: a.Config.Journal.DefaultAccountType,
		Currency:    a.Config.Journal.DefaultCurrency,
	})
	a.Logger.Debug().Str("path", a.Config.DatabasePath()).Msg("SQLite store initialized")
	return a.Service, nil
}

// output builds an Output honouring the display settings.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil && !a.Config.Display.ColorEnabled {
		out.colorEnabled = false
	}
	return out
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store, a.Service = nil, nil
	return err
}

// Execute runs the CLI.
func Execute() error {
	app := &App{Logger: zerolog.Nop()}
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(context.Background())
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradevault",
		Short: "TradeVault - trading journal and performance analytics",
		Long: `TradeVault is a trading journal for forex, metals and index traders.

Log trades with their setup context, track account balances through deposits,
withdrawals and closed trades, and analyse performance by session, strategy,
pair and more. Run 'tradevault serve' to expose the journal as an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				cfg, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradevault)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAccountCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	addAnalyticsCommands(rootCmd, app)
	rootCmd.AddCommand(newCSVCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newDoctorCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("TradeVault v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.ConfigFile()})
			}
			output.Println(app.Config.ConfigFile())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Database")
	output.KV("Path", cfg.DatabasePath())
	output.Println()

	output.Bold("Server")
	output.KV("Address", cfg.Server.Addr)
	output.KV("Read timeout", cfg.Server.ReadTimeout)
	output.KV("Write timeout", cfg.Server.WriteTimeout)
	output.KV("CORS origins", FormatList(cfg.Server.CORSOrigins))
	output.Println()

	output.Bold("Logging")
	output.KV("Level", cfg.Logging.Level)
	output.KV("Console", cfg.Logging.Console)
	output.KV("File", cfg.Logging.File)
	output.KV("File path", orDash(cfg.Logging.FilePath))
	output.Println()

	output.Bold("Journal")
	output.KV("Default account", orDash(cfg.Journal.DefaultAccount))
	output.KV("Account type", cfg.Journal.DefaultAccountType)
	output.KV("Currency", cfg.Journal.DefaultCurrency)
	output.KV("Risk percent", fmt.Sprintf("%.2f%%", cfg.Journal.DefaultRiskPercent))
}
