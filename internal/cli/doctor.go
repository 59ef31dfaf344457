package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradevault/internal/health"
)

func newDoctorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the journal database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}

			checker := health.NewChecker(health.DefaultConfig())
			checker.Register("database", health.DatabaseCheck(svc.Ping, health.DefaultConfig().SlowDatabase))
			report := checker.Run(ctx)

			if output.IsJSON() {
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				table := NewTable(output, "COMPONENT", "STATUS", "LATENCY", "MESSAGE")
				for _, c := range report.Components {
					color := ColorGreen
					switch c.Status {
					case health.StatusDegraded:
						color = ColorYellow
					case health.StatusUnhealthy:
						color = ColorRed
					}
					table.AddRow(c.Name, output.ColoredString(color, string(c.Status)), c.Latency.Round(time.Microsecond).String(), c.Message)
				}
				table.Render()
				output.KV("Database", app.Config.DatabasePath())
			}

			if !report.Healthy() {
				return fmt.Errorf("journal is %s", report.Status)
			}
			return nil
		},
	}
}
