package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tradevault/internal/analytics"
	"tradevault/internal/journal"
	"tradevault/internal/models"
	"tradevault/internal/store"
	"tradevault/pkg/utils"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trade",
		Aliases: []string{"trades", "t"},
		Short:   "Log and manage journaled trades",
	}

	cmd.PersistentFlags().StringP("account", "a", "", "account ID or name (default from config)")

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeUpdateCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))
	cmd.AddCommand(newClosedSummaryCmd(app))

	return cmd
}

// addTradeFlags registers the writable trade fields as flags.
func addTradeFlags(fs *pflag.FlagSet) {
	fs.String("id", "", "trade code (generated when empty)")
	fs.String("date", "", "trade date, YYYY-MM-DD (default today)")
	fs.String("pair", "", "instrument, e.g. EURUSD or XAUUSD")
	fs.String("direction", "", "Buy or Sell")
	fs.String("status", "", "Open or Closed (default from exit price)")
	fs.Float64("entry", 0, "entry price")
	fs.Float64("stop", 0, "stop loss")
	fs.Float64("tp", 0, "take profit")
	fs.Float64("exit", 0, "exit price")
	fs.Float64("lots", 0, "lot size")
	fs.Float64("risk", 0, "risk amount in account currency")
	fs.Float64("risk-percent", 0, "risk as percent of account size (default from config)")
	fs.Float64("account-size", 0, "account size at entry (default current balance)")
	fs.String("session", "", "session: London, New York, Asia, Sydney")
	fs.String("strategy", "", "strategy name")
	fs.String("condition", "", "market condition")
	fs.StringSlice("confluence", nil, "confluence tag (repeatable)")
	fs.String("htf", "", "higher timeframe")
	fs.String("entry-tf", "", "entry timeframe")
	fs.Float64("range-high", 0, "dealing range high")
	fs.Float64("range-low", 0, "dealing range low")
	fs.String("sweep", "", "liquidity sweep type")
	fs.StringSlice("key-level", nil, "key level (repeatable): OB, FVG, RB, BB")
	fs.String("entry-type", "", "entry type")
	fs.Int("quality", 0, "entry quality 1-5")
	fs.String("htf-bias", "", "HTF bias respected: yes or no")
	fs.String("ltf-bos", "", "LTF break of structure confirmed: yes or no")
	fs.String("mss", "", "market structure shift present: yes or no")
	fs.String("notes", "", "notes")
	fs.String("before", "", "screenshot URL before entry")
	fs.String("after", "", "screenshot URL after exit")
}

// applyTradeFlags copies the flags the user set onto in.
func applyTradeFlags(fs *pflag.FlagSet, in *journal.TradeInput) error {
	var err error
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *float64) {
		if fs.Changed(name) {
			*dst, _ = fs.GetFloat64(name)
		}
	}
	optNum := func(name string, dst **float64) {
		if fs.Changed(name) {
			v, _ := fs.GetFloat64(name)
			*dst = models.Float(v)
		}
	}
	tags := func(name string, dst *[]string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetStringSlice(name)
		}
	}
	tri := func(name string, dst *models.TriState) {
		if err != nil || !fs.Changed(name) {
			return
		}
		v, _ := fs.GetString(name)
		if *dst, err = ParseTriState(v); err != nil {
			err = fmt.Errorf("--%s: %w", name, err)
		}
	}

	str("id", &in.TradeCode)
	if fs.Changed("date") {
		v, _ := fs.GetString("date")
		d, perr := models.ParseDate(v)
		if perr != nil {
			return fmt.Errorf("--date: %w", perr)
		}
		in.Date = d
	}
	str("pair", &in.Pair)
	if fs.Changed("direction") {
		v, _ := fs.GetString("direction")
		in.Direction = models.Direction(v)
	}
	if fs.Changed("status") {
		v, _ := fs.GetString("status")
		in.Status = models.Status(v)
	}
	num("entry", &in.EntryPrice)
	num("stop", &in.StopLoss)
	num("tp", &in.TakeProfit)
	optNum("exit", &in.ExitPrice)
	num("lots", &in.LotSize)
	num("risk", &in.RiskAmount)
	num("risk-percent", &in.RiskPercent)
	num("account-size", &in.AccountSize)
	str("session", &in.Session)
	str("strategy", &in.Strategy)
	str("condition", &in.MarketCondition)
	tags("confluence", &in.Confluences)
	str("htf", &in.HTFTimeframe)
	str("entry-tf", &in.EntryTimeframe)
	optNum("range-high", &in.DealingRangeHigh)
	optNum("range-low", &in.DealingRangeLow)
	str("sweep", &in.LiquiditySweepType)
	tags("key-level", &in.KeyLevels)
	str("entry-type", &in.EntryType)
	if fs.Changed("quality") {
		v, _ := fs.GetInt("quality")
		in.EntryQuality = models.Int(v)
	}
	tri("htf-bias", &in.HTFBiasRespected)
	tri("ltf-bos", &in.LTFBOSConfirmed)
	tri("mss", &in.MSSPresent)
	str("notes", &in.Notes)
	str("before", &in.ScreenshotBefore)
	str("after", &in.ScreenshotAfter)
	return err
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"log"},
		Short:   "Log a trade",
		Example: `  tradevault trade add --pair EURUSD --direction Buy --entry 1.0850 --stop 1.0820 --tp 1.0940 \
    --lots 0.5 --session London --strategy Breakout --key-level OB --key-level FVG
  tradevault trade add --pair XAUUSD --direction Sell --entry 2350 --stop 2360 --exit 2330 --risk 200`,
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

			in := journal.TradeInput{AccountID: account.ID}
			if err := applyTradeFlags(cmd.Flags(), &in); err != nil {
				return err
			}
			if !cmd.Flags().Changed("risk-percent") && in.RiskAmount == 0 {
				in.RiskPercent = app.Config.Journal.DefaultRiskPercent
			}

			t, err := svc.LogTrade(ctx, in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(t)
			}
			output.Success("✓ Trade logged: %s %s %s @ %s", t.TradeCode, t.Direction, t.Pair, FormatPrice(t.EntryPrice))
			output.KV("Account", account.Name)
			output.KV("Risk", utils.FormatMoney(t.RiskAmount, account.Currency))
			output.KV("Planned R:R", FormatRiskReward(analytics.PlannedRiskReward(t.EntryPrice, t.StopLoss, t.TakeProfit)))
			if t.TradeLocation != models.LocationNone {
				output.KV("Location", t.TradeLocation)
			}
			return nil
		},
	}

	addTradeFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("pair")
	_ = cmd.MarkFlagRequired("direction")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func newTradeUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "update <trade>",
		Aliases: []string{"edit"},
		Short:   "Update fields of a trade",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			existing, err := svc.GetTrade(ctx, args[0])
			if err != nil {
				return err
			}

			in := journal.InputOf(existing)
			if cmd.Flags().Changed("account") {
				account, err := app.requireAccount(ctx, cmd, svc)
				if err != nil {
					return err
				}
				in.AccountID = account.ID
			}
			if err := applyTradeFlags(cmd.Flags(), &in); err != nil {
				return err
			}

			t, err := svc.UpdateTrade(ctx, existing.ID, in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(t)
			}
			output.Success("✓ Trade updated: %s", t.TradeCode)
			return nil
		},
	}

	addTradeFlags(cmd.Flags())
	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close <trade> <exit-price>",
		Short: "Close an open trade at an exit price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			exit, err := parseAmount(args[1])
			if err != nil {
				return fmt.Errorf("invalid exit price %q", args[1])
			}
			svc, err := app.service()
			if err != nil {
				return err
			}
			t, err := svc.CloseTrade(ctx, args[0], exit)
			if err != nil {
				return err
			}
			detail, err := svc.TradeDetail(ctx, t.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(detail)
			}
			output.Success("✓ Trade closed: %s @ %s", t.TradeCode, FormatPrice(exit))
			if o := detail.Outcome; o != nil {
				output.KV("Result", output.R(o.RMultiple)+"  "+output.PnL(o.PnL, ""))
				output.KV("Pips", utils.FormatPips(o.Pips))
			}
			return nil
		},
	}
}

func newTradeListCmd(app *App) *cobra.Command {
	var (
		pair, direction, status string
		from, to                string
		limit                   int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List trades, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			account, err := app.scopeAccount(ctx, cmd, svc)
			if err != nil {
				return err
			}

			filter := store.TradeFilter{
				Pair:      strings.ToUpper(pair),
				Direction: models.Direction(direction),
				Status:    models.Status(status),
				Limit:     limit,
			}
			if account != nil {
				filter.AccountID = account.ID
			}
			if from != "" {
				if filter.StartDate, err = models.ParseDate(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if to != "" {
				if filter.EndDate, err = models.ParseDate(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}

			trades, err := svc.ListTrades(ctx, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list(trades))
			}
			if len(trades) == 0 {
				output.Info("No trades found.")
				return nil
			}

			table := NewTable(output, "TRADE", "DATE", "PAIR", "SIDE", "ENTRY", "EXIT", "STATUS", "R", "P&L", "STRATEGY")
			for i := range trades {
				t := &trades[i]
				r, pnl := "-", "-"
				if o, ok := analytics.Evaluate(t); ok {
					r, pnl = output.R(o.RMultiple), output.PnL(o.PnL, "")
				}
				table.AddRow(
					t.TradeCode,
					FormatDate(t.Date, app.Config.Display.DateFormat),
					t.Pair,
					string(t.Direction),
					FormatPrice(t.EntryPrice),
					FormatOptPrice(t.ExitPrice),
					string(t.Status),
					r,
					pnl,
					TruncateString(orDash(t.Strategy), 20),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&pair, "pair", "", "filter by pair")
	cmd.Flags().StringVar(&direction, "direction", "", "filter by direction")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of trades")
	return cmd
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade>",
		Short: "Show a trade with its derived figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			d, err := svc.TradeDetail(ctx, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(d)
			}
			showTrade(output, d, app.Config.Display.DateFormat)
			return nil
		},
	}
}

func showTrade(output *Output, d *journal.TradeDetail, dateFormat string) {
	t := &d.Trade
	output.Bold("%s  %s %s", t.TradeCode, t.Direction, t.Pair)
	output.KV("Date", FormatDate(t.Date, dateFormat))
	output.KV("Status", t.Status)
	output.KV("Account", t.AccountID)
	output.Println()

	output.Bold("Execution")
	output.KV("Entry", FormatPrice(t.EntryPrice))
	output.KV("Stop loss", FormatPrice(t.StopLoss))
	output.KV("Take profit", FormatPrice(t.TakeProfit))
	output.KV("Exit", FormatOptPrice(t.ExitPrice))
	output.KV("Lot size", fmt.Sprintf("%.2f", t.LotSize))
	output.KV("Risk", fmt.Sprintf("%s (%.2f%% of %s)", utils.FormatMoney(t.RiskAmount, ""), t.RiskPercent, utils.FormatMoney(t.AccountSize, "")))
	output.KV("Planned R:R", FormatRiskReward(d.PlannedRR))
	if o := d.Outcome; o != nil {
		output.KV("Pips", utils.FormatPips(o.Pips))
		output.KV("R multiple", output.R(o.RMultiple))
		output.KV("P&L", output.PnL(o.PnL, "")+"  "+utils.FormatPercent(o.PnLPercent))
		output.KV("Pip value P&L", output.PnL(o.DisplayPnL, ""))
	}
	output.Println()

	output.Bold("Setup")
	output.KV("Session", orDash(t.Session))
	output.KV("Strategy", orDash(t.Strategy))
	output.KV("Condition", orDash(t.MarketCondition))
	output.KV("Timeframes", orDash(strings.Trim(t.HTFTimeframe+" / "+t.EntryTimeframe, " /")))
	output.KV("Confluences", FormatList(t.Confluences))
	output.KV("Dealing range", fmt.Sprintf("%s - %s", FormatOptPrice(t.DealingRangeLow), FormatOptPrice(t.DealingRangeHigh)))
	output.KV("Equilibrium", FormatOptPrice(t.Equilibrium))
	output.KV("Location", orDash(string(t.TradeLocation)))
	output.KV("Liquidity sweep", orDash(t.LiquiditySweepType))
	output.KV("Key levels", FormatList(t.KeyLevels))
	output.KV("Entry type", orDash(t.EntryType))
	if t.EntryQuality != nil {
		output.KV("Entry quality", fmt.Sprintf("%d/5", *t.EntryQuality))
	}
	output.KV("HTF bias", t.HTFBiasRespected)
	output.KV("LTF BOS", t.LTFBOSConfirmed)
	output.KV("MSS", t.MSSPresent)
	if t.Notes != "" {
		output.Println()
		output.Bold("Notes")
		output.Println(t.Notes)
	}
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <trade>",
		Aliases: []string{"rm"},
		Short:   "Delete a trade",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			if err := svc.DeleteTrade(ctx, args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Trade deleted: %s", args[0])
			return nil
		},
	}
}

func newClosedSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "closed",
		Short: "Summarise closed trades in chronological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
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
			closed, err := svc.ClosedTrades(ctx, accountID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list(closed))
			}
			if len(closed) == 0 {
				output.Info("No closed trades.")
				return nil
			}
			table := NewTable(output, "TRADE", "DATE", "PAIR", "R", "P&L")
			for _, c := range closed {
				table.AddRow(c.TradeCode, FormatDate(c.Date, app.Config.Display.DateFormat), c.Pair, output.R(c.RMultiple), output.PnL(c.PnL, ""))
			}
			table.Render()
			return nil
		},
	}
}
