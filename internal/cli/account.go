package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradevault/internal/analytics"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/journal"
	"tradevault/internal/models"
	"tradevault/pkg/utils"
)

const commandTimeout = 30 * time.Second

// commandContext bounds a command's store work.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, commandTimeout)
}

// resolveAccount finds an account by ID or, case-insensitively, by name.
func resolveAccount(ctx context.Context, svc *journal.Service, ref string) (*models.Account, error) {
	a, err := svc.GetAccount(ctx, ref)
	if err == nil {
		return a, nil
	}
	if !tverrors.Is(err, tverrors.ErrNotFound) {
		return nil, err
	}

	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, ref) {
			return &accounts[i], nil
		}
	}
	return nil, tverrors.NewNotFoundError("account", ref)
}

// accountRef returns the --account flag or the configured default.
func (a *App) accountRef(cmd *cobra.Command) string {
	if cmd.Flags().Lookup("account") != nil {
		if ref, _ := cmd.Flags().GetString("account"); ref != "" {
			return ref
		}
	}
	return a.Config.Journal.DefaultAccount
}

// scopeAccount resolves the account a command works on. An empty result
// means all accounts.
func (a *App) scopeAccount(ctx context.Context, cmd *cobra.Command, svc *journal.Service) (*models.Account, error) {
	ref := a.accountRef(cmd)
	if ref == "" {
		return nil, nil
	}
	return resolveAccount(ctx, svc, ref)
}

// requireAccount resolves the target account, picking the only account when
// none is named.
func (a *App) requireAccount(ctx context.Context, cmd *cobra.Command, svc *journal.Service) (*models.Account, error) {
	if ref := a.accountRef(cmd); ref != "" {
		return resolveAccount(ctx, svc, ref)
	}
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	switch len(accounts) {
	case 0:
		return nil, fmt.Errorf("no accounts yet, create one with 'tradevault account create'")
	case 1:
		return &accounts[0], nil
	}
	return nil, fmt.Errorf("%d accounts found, choose one with --account", len(accounts))
}

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts", "acc"},
		Short:   "Manage trading accounts",
		Long:    "Create accounts, record deposits and withdrawals, and reconcile balances.",
	}

	cmd.AddCommand(newAccountListCmd(app))
	cmd.AddCommand(newAccountCreateCmd(app))
	cmd.AddCommand(newAccountShowCmd(app))
	cmd.AddCommand(newAccountUpdateCmd(app))
	cmd.AddCommand(newAccountDeleteCmd(app))
	cmd.AddCommand(newTransactionCmd(app, models.TxDeposit))
	cmd.AddCommand(newTransactionCmd(app, models.TxWithdrawal))
	cmd.AddCommand(newTransactionsListCmd(app))
	cmd.AddCommand(newAccountRefreshCmd(app))

	return cmd
}

func newAccountListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts with reconciled balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			accounts, err := svc.ListAccounts(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(list(accounts))
			}
			if len(accounts) == 0 {
				output.Info("No accounts yet. Create one with 'tradevault account create <name>'.")
				return nil
			}

			table := NewTable(output, "ID", "NAME", "TYPE", "BROKER", "INITIAL", "BALANCE", "CHANGE", "ACTIVE")
			for _, a := range accounts {
				active := "yes"
				if !a.IsActive {
					active = "no"
				}
				table.AddRow(
					a.ID,
					a.Name,
					a.Type,
					orDash(a.Broker),
					utils.FormatMoney(a.InitialBalance, a.Currency),
					utils.FormatMoney(a.CurrentBalance, a.Currency),
					output.PnL(a.CurrentBalance-a.InitialBalance, a.Currency),
					active,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAccountCreateCmd(app *App) *cobra.Command {
	var in journal.AccountInput

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an account",
		Example: `  tradevault account create "FTMO 100k" --type Funded --broker FTMO --balance 100000
  tradevault account create Personal --balance 5000 --currency EUR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			in.Name = args[0]
			a, err := svc.CreateAccount(ctx, in)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(a)
			}
			output.Success("✓ Account created: %s (%s)", a.Name, a.ID)
			output.KV("Balance", utils.FormatMoney(a.CurrentBalance, a.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Type, "type", "", "account type (default from config)")
	cmd.Flags().StringVar(&in.Broker, "broker", "", "broker name")
	cmd.Flags().Float64Var(&in.InitialBalance, "balance", 0, "initial balance")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "ISO currency code (default from config)")

	return cmd
}

func newAccountShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show an account and its balance breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			a, err := resolveAccount(ctx, svc, args[0])
			if err != nil {
				return err
			}
			bal, err := svc.Balance(ctx, a.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(struct {
					*models.Account
					Balance analytics.AccountBalance `json:"balance"`
				}{a, bal})
			}
			showAccount(output, a, bal)
			return nil
		},
	}
}

func showAccount(output *Output, a *models.Account, bal analytics.AccountBalance) {
	output.Bold("%s", a.Name)
	output.KV("ID", a.ID)
	output.KV("Type", a.Type)
	output.KV("Broker", orDash(a.Broker))
	output.KV("Currency", a.Currency)
	output.KV("Active", a.IsActive)
	output.Println()
	output.Bold("Balance")
	output.KV("Initial", utils.FormatMoney(bal.InitialBalance, a.Currency))
	output.KV("Deposits", utils.FormatMoney(bal.Deposits, a.Currency))
	output.KV("Withdrawals", utils.FormatMoney(bal.Withdrawals, a.Currency))
	output.KV("Trading P&L", output.PnL(bal.TradingPnL, a.Currency))
	output.KV("Closed trades", bal.ClosedTrades)
	output.KV("Current", utils.FormatMoney(bal.CurrentBalance, a.Currency))
}

func newAccountUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update account details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			a, err := resolveAccount(ctx, svc, args[0])
			if err != nil {
				return err
			}

			var in journal.AccountUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				in.Name = &v
			}
			if flags.Changed("type") {
				v, _ := flags.GetString("type")
				in.Type = &v
			}
			if flags.Changed("broker") {
				v, _ := flags.GetString("broker")
				in.Broker = &v
			}
			if flags.Changed("balance") {
				v, _ := flags.GetFloat64("balance")
				in.InitialBalance = &v
			}
			if flags.Changed("currency") {
				v, _ := flags.GetString("currency")
				in.Currency = &v
			}
			if flags.Changed("active") {
				v, _ := flags.GetBool("active")
				in.IsActive = &v
			}

			updated, err := svc.UpdateAccount(ctx, a.ID, in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(updated)
			}
			output.Success("✓ Account updated: %s", updated.Name)
			output.KV("Balance", utils.FormatMoney(updated.CurrentBalance, updated.Currency))
			return nil
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("type", "", "account type")
	cmd.Flags().String("broker", "", "broker name")
	cmd.Flags().Float64("balance", 0, "initial balance")
	cmd.Flags().String("currency", "", "ISO currency code")
	cmd.Flags().Bool("active", true, "whether the account is active")

	return cmd
}

func newAccountDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete an account with its trades and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			a, err := resolveAccount(ctx, svc, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("deleting %q removes all of its trades and transactions; pass --yes to confirm", a.Name)
			}
			if err := svc.DeleteAccount(ctx, a.ID); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": a.ID})
			}
			output.Success("✓ Account deleted: %s", a.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newTransactionCmd(app *App, txType models.TxType) *cobra.Command {
	var note string

	use, label := "deposit", "Deposit"
	if txType == models.TxWithdrawal {
		use, label = "withdraw", "Withdrawal"
	}

	cmd := &cobra.Command{
		Use:   use + " <id|name> <amount>",
		Short: "Record a " + strings.ToLower(label),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			svc, err := app.service()
			if err != nil {
				return err
			}
			a, err := resolveAccount(ctx, svc, args[0])
			if err != nil {
				return err
			}
			tx, err := svc.AddTransaction(ctx, journal.TransactionInput{
				AccountID: a.ID,
				Type:      txType,
				Amount:    amount,
				Note:      note,
			})
			if err != nil {
				return err
			}
			bal, err := svc.Balance(ctx, a.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(tx)
			}
			output.Success("✓ %s of %s recorded", label, utils.FormatMoney(tx.Amount, a.Currency))
			output.KV("Balance", utils.FormatMoney(bal.CurrentBalance, a.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "transaction note")
	return cmd
}

func newTransactionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "transactions [id|name]",
		Aliases: []string{"tx"},
		Short:   "List deposits and withdrawals",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			var accountID, currency string
			if len(args) == 1 {
				a, err := resolveAccount(ctx, svc, args[0])
				if err != nil {
					return err
				}
				accountID, currency = a.ID, a.Currency
			}
			txs, err := svc.ListTransactions(ctx, accountID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(list(txs))
			}
			if len(txs) == 0 {
				output.Info("No transactions recorded.")
				return nil
			}
			table := NewTable(output, "DATE", "ACCOUNT", "TYPE", "AMOUNT", "NOTE")
			for _, tx := range txs {
				amount := tx.Amount
				if tx.Type == models.TxWithdrawal {
					amount = -amount
				}
				table.AddRow(
					tx.CreatedAt.Local().Format(app.Config.Display.DateFormat),
					tx.AccountID,
					string(tx.Type),
					output.PnL(amount, currency),
					TruncateString(orDash(tx.Note), 40),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAccountRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute and store every account balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			output := app.output(cmd)
			svc, err := app.service()
			if err != nil {
				return err
			}
			balances, err := svc.RefreshBalances(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(list(balances))
			}
			output.Success("✓ Reconciled %d account(s)", len(balances))
			table := NewTable(output, "ACCOUNT", "INITIAL", "DEPOSITS", "WITHDRAWALS", "TRADING P&L", "CURRENT")
			for _, b := range balances {
				table.AddRow(
					b.AccountID,
					fmt.Sprintf("%.2f", b.InitialBalance),
					fmt.Sprintf("%.2f", b.Deposits),
					fmt.Sprintf("%.2f", b.Withdrawals),
					output.PnL(b.TradingPnL, ""),
					fmt.Sprintf("%.2f", b.CurrentBalance),
				)
			}
			table.Render()
			return nil
		},
	}
}

// list keeps empty JSON arrays from rendering as null.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
