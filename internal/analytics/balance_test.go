package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevault/internal/models"
)

func TestReconcile(t *testing.T) {
	t.Parallel()

	acc := models.Account{ID: "acc-1", InitialBalance: 10000}
	txs := []models.Transaction{
		{AccountID: "acc-1", Type: models.TxDeposit, Amount: 500},
		{AccountID: "acc-1", Type: models.TxWithdrawal, Amount: 200},
		{AccountID: "acc-2", Type: models.TxDeposit, Amount: 9999},
	}
	trades := closedTrades(2.5, -1)
	other := closedTrade(3)
	other.AccountID = "acc-2"
	trades = append(trades, other, openTrade())

	b := Reconcile(acc, txs, trades)
	assert.Equal(t, 10450.0, b.CurrentBalance)
	assert.Equal(t, 500.0, b.Deposits)
	assert.Equal(t, 200.0, b.Withdrawals)
	assert.Equal(t, 150.0, b.TradingPnL)
	assert.Equal(t, 2, b.ClosedTrades)
	assert.Equal(t, 10450.0, CurrentBalance(acc, txs, trades))
}

func TestReconcile_CentsDoNotDrift(t *testing.T) {
	t.Parallel()

	acc := models.Account{ID: "a", InitialBalance: 0.1}
	var txs []models.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, models.Transaction{AccountID: "a", Type: models.TxDeposit, Amount: 0.1})
	}
	assert.Equal(t, 1.1, CurrentBalance(acc, txs, nil))
}

func TestReconcileAll(t *testing.T) {
	t.Parallel()

	accounts := []models.Account{{ID: "acc-1", InitialBalance: 1000}, {ID: "acc-2", InitialBalance: 50}}
	trades := closedTrades(1)
	balances := ReconcileAll(accounts, nil, trades)
	require.Len(t, balances, 2)
	assert.Equal(t, 1100.0, balances[0].CurrentBalance)
	assert.Equal(t, 50.0, balances[1].CurrentBalance)
}
