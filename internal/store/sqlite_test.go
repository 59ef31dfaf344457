package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccount(t *testing.T, s *SQLiteStore, id string) *models.Account {
	t.Helper()
	now := time.Now().UTC()
	a := &models.Account{
		ID: id, Name: "Main " + id, Type: models.DefaultAccountType, InitialBalance: 10000,
		Currency: models.DefaultCurrency, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}

func sampleTrade(id, accountID string, date models.Date) models.Trade {
	now := time.Now().UTC()
	return models.Trade{
		ID:               id,
		TradeCode:        "T250115-" + id,
		AccountID:        accountID,
		Pair:             "EURUSD",
		Direction:        models.DirectionBuy,
		EntryPrice:       1.085,
		StopLoss:         1.083,
		TakeProfit:       1.09,
		LotSize:          0.5,
		RiskAmount:       100,
		RiskPercent:      1,
		AccountSize:      10000,
		Session:          "London",
		Strategy:         "Breakout",
		Confluences:      []string{"FVG", "VWAP"},
		DealingRangeHigh: models.Float(1.09),
		DealingRangeLow:  models.Float(1.08),
		Equilibrium:      models.Float(1.085),
		TradeLocation:    models.LocationEQ,
		KeyLevels:        []string{"OB"},
		EntryQuality:     models.Int(4),
		HTFBiasRespected: models.TriYes,
		LTFBOSConfirmed:  models.TriNo,
		Status:           models.StatusOpen,
		Date:             date,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestAccountCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := seedAccount(t, s, "acc-1")
	got, err := s.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, "", got.Broker)
	assert.True(t, got.IsActive)

	got.Broker = "IC Markets"
	got.Name = "Prop"
	require.NoError(t, s.UpdateAccount(ctx, got))
	require.NoError(t, s.SetCachedBalance(ctx, "acc-1", 10450))

	got, err = s.GetAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "IC Markets", got.Broker)
	assert.Equal(t, "Prop", got.Name)
	assert.Equal(t, 10450.0, got.CurrentBalance)

	seedAccount(t, s, "acc-2")
	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.GetAccount(ctx, "missing")
	assert.True(t, tverrors.Is(err, tverrors.ErrAccountNotFound))
	assert.True(t, tverrors.Is(s.SetCachedBalance(ctx, "missing", 1), tverrors.ErrNotFound))
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "acc-1")
	seedAccount(t, s, "acc-2")

	base := time.Now().UTC()
	require.NoError(t, s.AddTransaction(ctx, &models.Transaction{ID: "tx-1", AccountID: "acc-1", Type: models.TxDeposit, Amount: 500, CreatedAt: base}))
	require.NoError(t, s.AddTransaction(ctx, &models.Transaction{ID: "tx-2", AccountID: "acc-1", Type: models.TxWithdrawal, Amount: 200, Note: "payout", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, s.AddTransaction(ctx, &models.Transaction{ID: "tx-3", AccountID: "acc-2", Type: models.TxDeposit, Amount: 1, CreatedAt: base}))

	txs, err := s.ListTransactions(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "tx-2", txs[0].ID)
	assert.Equal(t, "payout", txs[0].Note)
	assert.Equal(t, models.TxWithdrawal, txs[0].Type)

	all, err := s.ListTransactions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// amount must be positive
	err = s.AddTransaction(ctx, &models.Transaction{ID: "tx-4", AccountID: "acc-1", Type: models.TxDeposit, Amount: 0, CreatedAt: base})
	assert.Error(t, err)
}

func TestTradeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "acc-1")

	in := sampleTrade("a1", "acc-1", models.NewDate(2025, 1, 15))
	require.NoError(t, s.SaveTrade(ctx, &in))

	got, err := s.GetTrade(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, in.TradeCode, got.TradeCode)
	assert.Equal(t, in.Confluences, got.Confluences)
	assert.Equal(t, in.KeyLevels, got.KeyLevels)
	assert.Nil(t, got.ExitPrice)
	require.NotNil(t, got.DealingRangeHigh)
	assert.Equal(t, 1.09, *got.DealingRangeHigh)
	require.NotNil(t, got.EntryQuality)
	assert.Equal(t, 4, *got.EntryQuality)
	assert.Equal(t, models.TriYes, got.HTFBiasRespected)
	assert.Equal(t, models.TriNo, got.LTFBOSConfirmed)
	assert.Equal(t, models.TriUnknown, got.MSSPresent)
	assert.Equal(t, models.LocationEQ, got.TradeLocation)
	assert.Equal(t, "2025-01-15", got.Date.String())
	assert.Equal(t, "", got.LiquiditySweepType)

	byCode, err := s.GetTrade(ctx, in.TradeCode)
	require.NoError(t, err)
	assert.Equal(t, "a1", byCode.ID)

	got.ExitPrice = models.Float(1.09)
	got.Status = models.StatusClosed
	got.KeyLevels = nil
	require.NoError(t, s.UpdateTrade(ctx, got))

	got, err = s.GetTrade(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.IsEligible())
	assert.Nil(t, got.KeyLevels)

	require.NoError(t, s.DeleteTrade(ctx, "a1"))
	_, err = s.GetTrade(ctx, "a1")
	assert.True(t, tverrors.Is(err, tverrors.ErrTradeNotFound))
	assert.True(t, tverrors.Is(s.DeleteTrade(ctx, "a1"), tverrors.ErrTradeNotFound))
}

func TestListTradesAndClosedOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "acc-1")
	seedAccount(t, s, "acc-2")

	closed := func(id, account string, day int) models.Trade {
		tr := sampleTrade(id, account, models.NewDate(2025, 1, day))
		tr.Status = models.StatusClosed
		tr.ExitPrice = models.Float(1.09)
		return tr
	}
	trades := []models.Trade{
		closed("c3", "acc-1", 20),
		closed("c1", "acc-1", 10),
		closed("c2", "acc-1", 15),
		closed("x1", "acc-2", 12),
		sampleTrade("o1", "acc-1", models.NewDate(2025, 1, 25)),
	}
	require.NoError(t, s.SaveTrades(ctx, trades))

	got, err := s.ListClosedTrades(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{got[0].ID, got[1].ID, got[2].ID})

	all, err := s.ListTrades(ctx, TradeFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "o1", all[0].ID)

	ranged, err := s.ListTrades(ctx, TradeFilter{StartDate: models.NewDate(2025, 1, 12), EndDate: models.NewDate(2025, 1, 20), Limit: 2})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
	assert.Equal(t, "c3", ranged[0].ID)

	open, err := s.ListTrades(ctx, TradeFilter{Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestSaveTradesIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "acc-1")

	a := sampleTrade("a", "acc-1", models.NewDate(2025, 1, 1))
	b := sampleTrade("b", "acc-1", models.NewDate(2025, 1, 2))
	b.TradeCode = a.TradeCode // unique violation

	require.Error(t, s.SaveTrades(ctx, []models.Trade{a, b}))
	all, err := s.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedAccount(t, s, "acc-1")

	tr := sampleTrade("a", "acc-1", models.NewDate(2025, 1, 1))
	require.NoError(t, s.SaveTrade(ctx, &tr))
	require.NoError(t, s.AddTransaction(ctx, &models.Transaction{ID: "tx", AccountID: "acc-1", Type: models.TxDeposit, Amount: 5, CreatedAt: time.Now().UTC()}))

	require.NoError(t, s.DeleteAccount(ctx, "acc-1"))

	trades, err := s.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Empty(t, trades)
	txs, err := s.ListTransactions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.True(t, tverrors.Is(s.DeleteAccount(ctx, "acc-1"), tverrors.ErrAccountNotFound))
}

func TestForeignKeyRejectsUnknownAccount(t *testing.T) {
	s := newTestStore(t)
	tr := sampleTrade("a", "ghost", models.NewDate(2025, 1, 1))
	assert.Error(t, s.SaveTrade(context.Background(), &tr))
	assert.NoError(t, s.Ping(context.Background()))
}
