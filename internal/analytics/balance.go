package analytics

import (
	"github.com/shopspring/decimal"

	"tradevault/internal/models"
)

// AccountBalance is the reconciled balance of one account.
type AccountBalance struct {
	AccountID      string  `json:"account_id"`
	InitialBalance float64 `json:"initial_balance"`
	Deposits       float64 `json:"deposits"`
	Withdrawals    float64 `json:"withdrawals"`
	TradingPnL     float64 `json:"trading_pnl"`
	ClosedTrades   int     `json:"closed_trades"`
	CurrentBalance float64 `json:"current_balance"`
}

// Reconcile derives the balance of account from its ledger and the dollar
// P&L of its closed trades. Records of other accounts are ignored.
func Reconcile(account models.Account, txs []models.Transaction, trades []models.Trade) AccountBalance {
	var deposits, withdrawals, pnl decimal.Decimal
	for _, tx := range txs {
		if tx.AccountID != account.ID || !finite(tx.Amount) {
			continue
		}
		switch tx.Type {
		case models.TxDeposit:
			deposits = deposits.Add(decimal.NewFromFloat(tx.Amount))
		case models.TxWithdrawal:
			withdrawals = withdrawals.Add(decimal.NewFromFloat(tx.Amount))
		}
	}

	closed := 0
	for _, r := range closedOutcomes(trades) {
		if r.trade.AccountID != account.ID {
			continue
		}
		closed++
		pnl = pnl.Add(decimal.NewFromFloat(r.PnL))
	}

	initial := decimal.Zero
	if finite(account.InitialBalance) {
		initial = decimal.NewFromFloat(account.InitialBalance)
	}
	current := initial.Add(deposits).Sub(withdrawals).Add(pnl).Round(2)

	return AccountBalance{
		AccountID:      account.ID,
		InitialBalance: account.InitialBalance,
		Deposits:       deposits.Round(2).InexactFloat64(),
		Withdrawals:    withdrawals.Round(2).InexactFloat64(),
		TradingPnL:     pnl.Round(2).InexactFloat64(),
		ClosedTrades:   closed,
		CurrentBalance: current.InexactFloat64(),
	}
}

// CurrentBalance is Reconcile reduced to the balance figure.
func CurrentBalance(account models.Account, txs []models.Transaction, trades []models.Trade) float64 {
	return Reconcile(account, txs, trades).CurrentBalance
}

// ReconcileAll reconciles every account against the full record set.
func ReconcileAll(accounts []models.Account, txs []models.Transaction, trades []models.Trade) []AccountBalance {
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, Reconcile(a, txs, trades))
	}
	return out
}
