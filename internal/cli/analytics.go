package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tradevault/internal/analytics"
	"tradevault/internal/journal"
	"tradevault/pkg/utils"
)

// analyticsScope is the account and filter shared by analytics commands.
type analyticsScope struct {
	filter analytics.Filter
}

func (s *analyticsScope) addFlags(fs *pflag.FlagSet) {
	fs.StringP("account", "a", "", "account ID or name (default from config, else all accounts)")
	fs.StringVar(&s.filter.Pair, "pair", "", "only this pair")
	fs.StringVar(&s.filter.Session, "session", "", "only this session")
	fs.StringVar(&s.filter.Strategy, "strategy", "", "only this strategy")
	fs.StringVar(&s.filter.MarketCondition, "condition", "", "only this market condition")
	fs.StringVar(&s.filter.KeyLevel, "key-level", "", "only trades with this key level")
	fs.StringVar(&s.filter.LiquiditySweep, "sweep", "", "only this liquidity sweep type")
	fs.StringVar(&s.filter.Location, "location", "", "only this trade location: Premium, Discount, EQ")
}

// resolve opens the journal and returns it with the account ID in scope.
func (s *analyticsScope) resolve(cmd *cobra.Command, app *App) (*journal.Service, string, error) {
	s.filter.Pair = strings.ToUpper(s.filter.Pair)
	svc, err := app.service()
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	account, err := app.scopeAccount(ctx, cmd, svc)
	if err != nil || account == nil {
		return svc, "", err
	}
	return svc, account.ID, nil
}

func addAnalyticsCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newReportCmd(app))

	cmd := &cobra.Command{
		Use:     "analytics",
		Aliases: []string{"analyze"},
		Short:   "Breakdowns, equity curve and R distribution",
	}
	cmd.AddCommand(newBreakdownCmd(app))
	cmd.AddCommand(newEquityCmd(app))
	cmd.AddCommand(newDistributionCmd(app))
	cmd.AddCommand(newStrategiesCmd(app))
	rootCmd.AddCommand(cmd)
}

func newStatsCmd(app *App) *cobra.Command {
	var scope analyticsScope

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show performance statistics of closed trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			stats, err := svc.Stats(ctx, accountID, scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(stats)
			}
			showStats(output, stats)
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	return cmd
}

func showStats(output *Output, s analytics.Stats) {
	output.Bold("Performance")
	if s.TotalTrades == 0 {
		output.Dim("No closed trades match.")
		return
	}
	output.KV("Trades", fmt.Sprintf("%d (%d W / %d L)", s.TotalTrades, s.Wins, s.Losses))
	output.KV("Win rate", FormatWinRate(s.WinRate))
	output.KV("Total P&L", output.PnL(s.TotalPnL, ""))
	output.KV("Avg R", output.R(s.AvgRMultiple))
	output.KV("Expectancy", output.PnL(s.Expectancy, ""))
	output.KV("Profit factor", fmt.Sprintf("%.2f", s.ProfitFactor))
	output.KV("Avg win", output.PnL(s.AvgWin, ""))
	output.KV("Avg loss", output.PnL(s.AvgLoss, ""))
	output.KV("Best trade", output.PnL(s.BestTrade, ""))
	output.KV("Worst trade", output.PnL(s.WorstTrade, ""))
	output.KV("Max drawdown", utils.FormatMoney(s.MaxDrawdown, ""))
	output.KV("Win streak", s.ConsecutiveWins)
	output.KV("Loss streak", s.ConsecutiveLosses)
	output.KV("Avg holding", s.AvgHoldingTime)
}

func newReportCmd(app *App) *cobra.Command {
	var (
		scope  analyticsScope
		period string
	)

	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"summary"},
		Short:   "Weekly or monthly performance summary",
		Example: `  tradevault report --period month
  tradevault report --period week --account FTMO --strategy Breakout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			g, ok := analytics.ParseGranularity(strings.ToLower(period))
			if !ok {
				return fmt.Errorf("invalid period %q (use week or month)", period)
			}
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			report, err := svc.Report(ctx, accountID, g, scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(report)
			}

			showStats(output, report.Stats)
			if len(report.Periods) > 0 {
				output.Println()
				output.Bold("By %s", g)
				table := NewTable(output, "PERIOD", "TRADES", "W/L", "WIN RATE", "P&L", "AVG R", "BEST", "WORST")
				for _, p := range report.Periods {
					table.AddRow(
						p.Period,
						fmt.Sprint(p.TotalTrades),
						fmt.Sprintf("%d/%d", p.Wins, p.Losses),
						FormatWinRate(p.WinRate),
						output.PnL(p.TotalPnL, ""),
						output.R(p.AvgR),
						output.PnL(p.BestTrade, ""),
						output.PnL(p.WorstTrade, ""),
					)
				}
				table.Render()
			}
			if len(report.Sessions) > 0 {
				output.Println()
				output.Bold("By session")
				renderGroups(output, report.Sessions)
			}
			if report.Stats.TotalTrades > 0 {
				output.Println()
				output.KV("Best strategy", report.Strategies.Best)
				output.KV("Worst strategy", report.Strategies.Worst)
			}
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	cmd.Flags().StringVarP(&period, "period", "p", string(analytics.Weekly), "grouping: week or month")
	return cmd
}

func renderGroups(output *Output, groups []analytics.GroupWinRate) {
	table := NewTable(output, "GROUP", "TRADES", "WINS", "WIN RATE", "P&L")
	for _, g := range groups {
		table.AddRow(g.Name, fmt.Sprint(g.Total), fmt.Sprint(g.Wins), FormatWinRate(g.WinRate), output.PnL(g.TotalPnL, ""))
	}
	table.Render()
}

func newBreakdownCmd(app *App) *cobra.Command {
	var (
		scope analyticsScope
		by    string
	)

	dims := make([]string, len(analytics.Dimensions))
	for i, d := range analytics.Dimensions {
		dims[i] = string(d)
	}

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Win rate grouped by a trade attribute",
		Long:  "Win rate grouped by a trade attribute, highest first.\n\nDimensions: " + strings.Join(dims, ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			groups, err := svc.Breakdown(ctx, accountID, analytics.Dimension(strings.ToLower(by)), scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list(groups))
			}
			if len(groups) == 0 {
				output.Info("No closed trades match.")
				return nil
			}
			renderGroups(output, groups)
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	cmd.Flags().StringVar(&by, "by", string(analytics.DimSession), "dimension to group by")
	return cmd
}

func newEquityCmd(app *App) *cobra.Command {
	var scope analyticsScope

	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Cumulative P&L after each closed trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			points, err := svc.EquityCurve(ctx, accountID, scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list(points))
			}
			if len(points) == 0 {
				output.Info("No closed trades match.")
				return nil
			}
			table := NewTable(output, "TRADE", "EQUITY")
			for _, p := range points {
				table.AddRow(fmt.Sprint(p.Trade), output.PnL(p.Equity, ""))
			}
			table.Render()
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	return cmd
}

func newDistributionCmd(app *App) *cobra.Command {
	var scope analyticsScope

	cmd := &cobra.Command{
		Use:     "distribution",
		Aliases: []string{"dist"},
		Short:   "Histogram of R multiples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			bands, err := svc.RDistribution(ctx, accountID, scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list(bands))
			}
			if len(bands) == 0 {
				output.Info("No closed trades match.")
				return nil
			}
			table := NewTable(output, "BAND", "COUNT", "")
			for _, b := range bands {
				table.AddRow(b.Name, fmt.Sprint(b.Count), strings.Repeat("█", b.Count))
			}
			table.Render()
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	return cmd
}

func newStrategiesCmd(app *App) *cobra.Command {
	var scope analyticsScope

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Strategies ranked by total P&L",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, accountID, err := scope.resolve(cmd, app)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			ranking, err := svc.StrategyRanking(ctx, accountID, scope.filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(ranking)
			}
			if len(ranking.Totals) == 0 {
				output.Info("No closed trades match.")
				return nil
			}
			table := NewTable(output, "STRATEGY", "TRADES", "P&L")
			for _, g := range ranking.Totals {
				table.AddRow(g.Name, fmt.Sprint(g.Trades), output.PnL(g.TotalPnL, ""))
			}
			table.Render()
			output.Println()
			output.KV("Best", ranking.Best)
			output.KV("Worst", ranking.Worst)
			return nil
		},
	}

	scope.addFlags(cmd.Flags())
	return cmd
}
