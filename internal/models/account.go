package models

import "time"

// Account is a trading account that trades and transactions belong to.
type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"account_type"`
	Broker         string    `json:"broker"`
	InitialBalance float64   `json:"initial_balance"`
	CurrentBalance float64   `json:"current_balance"` // cache, recomputed on read
	Currency       string    `json:"currency"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Transaction is a deposit to or withdrawal from an account.
type Transaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Type      TxType    `json:"type"`
	Amount    float64   `json:"amount"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	DefaultAccountType = "Personal"
	DefaultCurrency    = "USD"
)
