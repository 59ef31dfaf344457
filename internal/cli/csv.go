package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCSVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export and import trades as CSV",
	}

	cmd.PersistentFlags().StringP("account", "a", "", "account ID or name (default from config)")
	cmd.AddCommand(newCSVExportCmd(app))
	cmd.AddCommand(newCSVImportCmd(app))
	return cmd
}

func newCSVExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades to CSV",
		Example: `  tradevault csv export --out trades.csv
  tradevault csv export --account FTMO > ftmo.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, err := app.service()
			if err != nil {
				return err
			}
			account, err := app.scopeAccount(ctx, cmd, svc)
			if err != nil {
				return err
			}
			var accountID string
			if account != nil {
				accountID = account.ID
			}

			var buf bytes.Buffer
			n, err := svc.ExportCSV(ctx, accountID, &buf)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"exported": n, "path": out})
			}
			output.Success("✓ Exported %d trade(s) to %s", n, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newCSVImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import trades from a journal or MT5 CSV export",
		Long: `Import trades from CSV. Both the journal's own export format and MT5
history exports (comma or tab separated) are understood. Rows without a pair
or with invalid values are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			account, err := app.requireAccount(ctx, cmd, svc)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := svc.ImportCSV(ctx, account.ID, f)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("✓ Imported %d trade(s) into %s", res.Imported, account.Name)
			for _, w := range res.Warnings {
				output.Warning("  %s", w)
			}
			return nil
		},
	}
}
