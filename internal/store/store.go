// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"tradevault/internal/models"
)

// Ledger is the read side analytics is fed from. Closed trades come back
// in chronological order.
type Ledger interface {
	ListClosedTrades(ctx context.Context, accountID string) ([]models.Trade, error)
	ListTransactions(ctx context.Context, accountID string) ([]models.Transaction, error)
}

// DataStore defines the interface for data persistence.
type DataStore interface {
	Ledger

	// Accounts
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id string) error
	SetCachedBalance(ctx context.Context, id string, balance float64) error

	// Transactions
	AddTransaction(ctx context.Context, tx *models.Transaction) error

	// Trades
	SaveTrade(ctx context.Context, trade *models.Trade) error
	SaveTrades(ctx context.Context, trades []models.Trade) error
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, idOrCode string) (*models.Trade, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	DeleteTrade(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	AccountID string
	Pair      string
	Direction models.Direction
	Status    models.Status
	StartDate models.Date
	EndDate   models.Date
	Limit     int
	// Ascending lists oldest first; the default is newest first.
	Ascending bool
}
