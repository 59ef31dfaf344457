// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/models"
	"tradevault/pkg/utils"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry utils.RetryConfig
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		dsn = "file::memory:?cache=shared&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	retry := utils.DefaultRetryConfig()
	retry.Retryable = isBusy

	store := &SQLiteStore{db: db, retry: retry}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// isBusy reports whether err is a transient lock conflict.
func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// exec runs a write, retrying while another process holds the lock.
func (s *SQLiteStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return utils.RetryWithResult(ctx, s.retry, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Trading accounts; current_balance is a cache of the reconciled balance
	CREATE TABLE IF NOT EXISTS trading_accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL DEFAULT 'Personal',
		broker TEXT,
		initial_balance REAL NOT NULL DEFAULT 0,
		current_balance REAL NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Deposits and withdrawals
	CREATE TABLE IF NOT EXISTS account_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES trading_accounts(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
		amount REAL NOT NULL CHECK (amount > 0),
		note TEXT,
		created_at DATETIME NOT NULL
	);

	-- Journaled trades
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		trade_code TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL REFERENCES trading_accounts(id) ON DELETE CASCADE,
		pair TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('Buy', 'Sell')),
		entry_price REAL NOT NULL DEFAULT 0,
		stop_loss REAL NOT NULL DEFAULT 0,
		take_profit REAL NOT NULL DEFAULT 0,
		exit_price REAL,
		lot_size REAL NOT NULL DEFAULT 0,
		risk_amount REAL NOT NULL DEFAULT 0,
		risk_percent REAL NOT NULL DEFAULT 0,
		account_size REAL NOT NULL DEFAULT 0,
		session TEXT,
		strategy TEXT,
		market_condition TEXT,
		confluences TEXT NOT NULL DEFAULT '[]',
		htf_timeframe TEXT,
		entry_timeframe TEXT,
		dealing_range_high REAL,
		dealing_range_low REAL,
		equilibrium REAL,
		trade_location TEXT,
		liquidity_sweep_type TEXT,
		key_levels TEXT NOT NULL DEFAULT '[]',
		entry_type TEXT,
		entry_quality INTEGER CHECK (entry_quality BETWEEN 1 AND 5),
		htf_bias_respected INTEGER,
		ltf_bos_confirmed INTEGER,
		mss_present INTEGER,
		status TEXT NOT NULL DEFAULT 'Open' CHECK (status IN ('Open', 'Closed')),
		trade_date TEXT NOT NULL,
		notes TEXT,
		screenshot_before TEXT,
		screenshot_after TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account ON account_transactions(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_trades_account_date ON trades(account_id, trade_date);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullString stores empty optional text as NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || len(tags) == 0 {
		return nil
	}
	return tags
}

func rowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return tverrors.NewNotFoundError(entity, id)
	}
	return nil
}

// ============================================================================
// Account Methods
// ============================================================================

const accountColumns = `id, name, account_type, COALESCE(broker, ''), initial_balance, current_balance, currency, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Broker, &a.InitialBalance, &a.CurrentBalance, &a.Currency, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a *models.Account) error {
	_, err := s.exec(ctx, `
		INSERT INTO trading_accounts (id, name, account_type, broker, initial_balance, current_balance, currency, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Type, nullString(a.Broker), a.InitialBalance, a.CurrentBalance, a.Currency, a.IsActive, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount retrieves one account.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM trading_accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, tverrors.NewNotFoundError("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns all accounts, oldest first.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM trading_accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccount updates the editable account fields.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	res, err := s.exec(ctx, `
		UPDATE trading_accounts
		SET name = ?, account_type = ?, broker = ?, initial_balance = ?, currency = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, a.Name, a.Type, nullString(a.Broker), a.InitialBalance, a.Currency, a.IsActive, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return rowsAffected(res, "account", a.ID)
}

// DeleteAccount removes an account with its trades and transactions.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete account trades: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM account_transactions WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete account transactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM trading_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := rowsAffected(res, "account", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetCachedBalance stores a reconciled balance on the account row.
func (s *SQLiteStore) SetCachedBalance(ctx context.Context, id string, balance float64) error {
	res, err := s.exec(ctx, `UPDATE trading_accounts SET current_balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return rowsAffected(res, "account", id)
}

// ============================================================================
// Transaction Methods
// ============================================================================

// AddTransaction records a deposit or withdrawal.
func (s *SQLiteStore) AddTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := s.exec(ctx, `
		INSERT INTO account_transactions (id, account_id, type, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.AccountID, t.Type, t.Amount, nullString(t.Note), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the ledger of one account, or of every account
// when accountID is empty, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	query := `SELECT id, account_id, type, amount, COALESCE(note, ''), created_at FROM account_transactions WHERE 1=1`
	args := []interface{}{}
	if accountID != "" {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ============================================================================
// Trade Methods
// ============================================================================

const tradeColumns = `id, trade_code, account_id, pair, direction, entry_price, stop_loss, take_profit, exit_price,
	lot_size, risk_amount, risk_percent, account_size,
	COALESCE(session, ''), COALESCE(strategy, ''), COALESCE(market_condition, ''), confluences,
	COALESCE(htf_timeframe, ''), COALESCE(entry_timeframe, ''),
	dealing_range_high, dealing_range_low, equilibrium, COALESCE(trade_location, ''),
	COALESCE(liquidity_sweep_type, ''), key_levels, COALESCE(entry_type, ''), entry_quality,
	htf_bias_respected, ltf_bos_confirmed, mss_present,
	status, trade_date, COALESCE(notes, ''), COALESCE(screenshot_before, ''), COALESCE(screenshot_after, ''),
	created_at, updated_at`

func scanTrade(row scanner) (*models.Trade, error) {
	var t models.Trade
	var confluences, keyLevels string
	err := row.Scan(
		&t.ID, &t.TradeCode, &t.AccountID, &t.Pair, &t.Direction, &t.EntryPrice, &t.StopLoss, &t.TakeProfit, &t.ExitPrice,
		&t.LotSize, &t.RiskAmount, &t.RiskPercent, &t.AccountSize,
		&t.Session, &t.Strategy, &t.MarketCondition, &confluences,
		&t.HTFTimeframe, &t.EntryTimeframe,
		&t.DealingRangeHigh, &t.DealingRangeLow, &t.Equilibrium, &t.TradeLocation,
		&t.LiquiditySweepType, &keyLevels, &t.EntryType, &t.EntryQuality,
		&t.HTFBiasRespected, &t.LTFBOSConfirmed, &t.MSSPresent,
		&t.Status, &t.Date, &t.Notes, &t.ScreenshotBefore, &t.ScreenshotAfter,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Confluences = decodeTags(confluences)
	t.KeyLevels = decodeTags(keyLevels)
	return &t, nil
}

func tradeArgs(t *models.Trade) []interface{} {
	return []interface{}{
		t.TradeCode, t.AccountID, t.Pair, t.Direction, t.EntryPrice, t.StopLoss, t.TakeProfit, t.ExitPrice,
		t.LotSize, t.RiskAmount, t.RiskPercent, t.AccountSize,
		nullString(t.Session), nullString(t.Strategy), nullString(t.MarketCondition), encodeTags(t.Confluences),
		nullString(t.HTFTimeframe), nullString(t.EntryTimeframe),
		t.DealingRangeHigh, t.DealingRangeLow, t.Equilibrium, nullString(string(t.TradeLocation)),
		nullString(t.LiquiditySweepType), encodeTags(t.KeyLevels), nullString(t.EntryType), t.EntryQuality,
		t.HTFBiasRespected, t.LTFBOSConfirmed, t.MSSPresent,
		t.Status, t.Date, nullString(t.Notes), nullString(t.ScreenshotBefore), nullString(t.ScreenshotAfter),
		t.UpdatedAt,
	}
}

const insertTrade = `
	INSERT INTO trades (trade_code, account_id, pair, direction, entry_price, stop_loss, take_profit, exit_price,
		lot_size, risk_amount, risk_percent, account_size,
		session, strategy, market_condition, confluences, htf_timeframe, entry_timeframe,
		dealing_range_high, dealing_range_low, equilibrium, trade_location,
		liquidity_sweep_type, key_levels, entry_type, entry_quality,
		htf_bias_respected, ltf_bos_confirmed, mss_present,
		status, trade_date, notes, screenshot_before, screenshot_after,
		updated_at, id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SaveTrade inserts a new trade.
func (s *SQLiteStore) SaveTrade(ctx context.Context, t *models.Trade) error {
	args := append(tradeArgs(t), t.ID, t.CreatedAt)
	if _, err := s.exec(ctx, insertTrade, args...); err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// SaveTrades inserts a batch of trades atomically.
func (s *SQLiteStore) SaveTrades(ctx context.Context, trades []models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTrade)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range trades {
		t := &trades[i]
		args := append(tradeArgs(t), t.ID, t.CreatedAt)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to save trade %s: %w", t.TradeCode, err)
		}
	}

	return tx.Commit()
}

// UpdateTrade replaces every mutable field of a trade.
func (s *SQLiteStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	args := append(tradeArgs(t), t.ID)
	res, err := s.exec(ctx, `
		UPDATE trades SET trade_code = ?, account_id = ?, pair = ?, direction = ?, entry_price = ?, stop_loss = ?, take_profit = ?, exit_price = ?,
			lot_size = ?, risk_amount = ?, risk_percent = ?, account_size = ?,
			session = ?, strategy = ?, market_condition = ?, confluences = ?, htf_timeframe = ?, entry_timeframe = ?,
			dealing_range_high = ?, dealing_range_low = ?, equilibrium = ?, trade_location = ?,
			liquidity_sweep_type = ?, key_levels = ?, entry_type = ?, entry_quality = ?,
			htf_bias_respected = ?, ltf_bos_confirmed = ?, mss_present = ?,
			status = ?, trade_date = ?, notes = ?, screenshot_before = ?, screenshot_after = ?,
			updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	return rowsAffected(res, "trade", t.ID)
}

// GetTrade retrieves a trade by ID or trade code.
func (s *SQLiteStore) GetTrade(ctx context.Context, idOrCode string) (*models.Trade, error) {
	t, err := scanTrade(s.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ? OR trade_code = ?`, idOrCode, idOrCode))
	if err == sql.ErrNoRows {
		return nil, tverrors.NewNotFoundError("trade", idOrCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// ListTrades retrieves trades matching filter.
func (s *SQLiteStore) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE 1=1`
	args := []interface{}{}

	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.Pair != "" {
		query += " AND pair = ?"
		args = append(args, filter.Pair)
	}
	if filter.Direction != "" {
		query += " AND direction = ?"
		args = append(args, filter.Direction)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.StartDate.IsZero() {
		query += " AND trade_date >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND trade_date <= ?"
		args = append(args, filter.EndDate)
	}

	if filter.Ascending {
		query += " ORDER BY trade_date ASC, created_at ASC, id ASC"
	} else {
		query += " ORDER BY trade_date DESC, created_at DESC, id DESC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

// ListClosedTrades returns the closed trades with an exit price of one
// account (all accounts when accountID is empty), oldest first.
func (s *SQLiteStore) ListClosedTrades(ctx context.Context, accountID string) ([]models.Trade, error) {
	trades, err := s.ListTrades(ctx, TradeFilter{AccountID: accountID, Status: models.StatusClosed, Ascending: true})
	if err != nil {
		return nil, err
	}
	out := trades[:0]
	for i := range trades {
		if trades[i].IsEligible() {
			out = append(out, trades[i])
		}
	}
	return out, nil
}

// DeleteTrade removes a trade.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return rowsAffected(res, "trade", id)
}
