package journal

import (
	"context"
	"strings"

	"tradevault/internal/analytics"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/logging"
	"tradevault/internal/models"
)

// AccountInput holds the fields of a new account.
type AccountInput struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Type           string  `json:"account_type" validate:"max=50"`
	Broker         string  `json:"broker" validate:"max=100"`
	InitialBalance float64 `json:"initial_balance" validate:"gte=0"`
	Currency       string  `json:"currency" validate:"omitempty,len=3,alpha"`
}

// AccountUpdate holds the account fields to change; nil leaves a field as is.
type AccountUpdate struct {
	Name           *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Type           *string  `json:"account_type" validate:"omitempty,max=50"`
	Broker         *string  `json:"broker" validate:"omitempty,max=100"`
	InitialBalance *float64 `json:"initial_balance" validate:"omitempty,gte=0"`
	Currency       *string  `json:"currency" validate:"omitempty,len=3,alpha"`
	IsActive       *bool    `json:"is_active"`
}

// TransactionInput is a deposit or withdrawal request.
type TransactionInput struct {
	AccountID string        `json:"account_id" validate:"required"`
	Type      models.TxType `json:"type" validate:"required,oneof=deposit withdrawal"`
	Amount    float64       `json:"amount" validate:"gt=0"`
	Note      string        `json:"note" validate:"max=500"`
}

// CreateAccount validates in and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := check(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	a := &models.Account{
		ID:             newID(),
		Name:           in.Name,
		Type:           in.Type,
		Broker:         strings.TrimSpace(in.Broker),
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		Currency:       in.Currency,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if a.Type == "" {
		a.Type = s.defaults.AccountType
	}
	if a.Currency == "" {
		a.Currency = s.defaults.Currency
	}

	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, tverrors.NewDataError("account", a.ID, "create failed", err)
	}
	logger := s.log("create_account")
	logger.Info().Str("account_id", a.ID).Str("name", a.Name).Msg("Account created")
	return a, nil
}

// GetAccount returns an account with its balance recomputed.
func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	bal, err := s.reconcile(ctx, *a)
	if err != nil {
		return nil, err
	}
	a.CurrentBalance = bal.CurrentBalance
	return a, nil
}

// ListAccounts returns every account with its balance recomputed.
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, balances, err := s.reconcileAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		accounts[i].CurrentBalance = balances[i].CurrentBalance
	}
	return accounts, nil
}

// UpdateAccount applies the non-nil fields of in.
func (s *Service) UpdateAccount(ctx context.Context, id string, in AccountUpdate) (*models.Account, error) {
	if in.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*in.Currency))
		in.Currency = &c
	}
	if err := check(in); err != nil {
		return nil, err
	}

	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Broker != nil {
		a.Broker = strings.TrimSpace(*in.Broker)
	}
	if in.InitialBalance != nil {
		a.InitialBalance = *in.InitialBalance
	}
	if in.Currency != nil {
		a.Currency = *in.Currency
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = s.timestamp()

	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return nil, err
	}
	s.refreshBalance(ctx, a.ID)
	return s.GetAccount(ctx, a.ID)
}

// DeleteAccount removes an account together with its trades and ledger.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	logger := s.log("delete_account")
	logger.Info().Str("account_id", id).Msg("Account deleted")
	return nil
}

// Balance reconciles one account from its ledger and closed trades.
func (s *Service) Balance(ctx context.Context, accountID string) (analytics.AccountBalance, error) {
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return analytics.AccountBalance{}, err
	}
	return s.reconcile(ctx, *a)
}

// RefreshBalances recomputes every account and stores the result in the
// cached balance column.
func (s *Service) RefreshBalances(ctx context.Context) ([]analytics.AccountBalance, error) {
	accounts, balances, err := s.reconcileAll(ctx)
	if err != nil {
		return nil, err
	}
	logger := s.log("refresh_balances")
	for i, a := range accounts {
		cur := balances[i].CurrentBalance
		logging.LogBalance(logger, a.ID, a.CurrentBalance, cur)
		if cur == a.CurrentBalance {
			continue
		}
		if err := s.store.SetCachedBalance(ctx, a.ID, cur); err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// Deposit adds funds to an account.
func (s *Service) Deposit(ctx context.Context, accountID string, amount float64, note string) (*models.Transaction, error) {
	return s.AddTransaction(ctx, TransactionInput{AccountID: accountID, Type: models.TxDeposit, Amount: amount, Note: note})
}

// Withdraw removes funds from an account. The balance may go negative;
// the ledger records what happened at the broker.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount float64, note string) (*models.Transaction, error) {
	return s.AddTransaction(ctx, TransactionInput{AccountID: accountID, Type: models.TxWithdrawal, Amount: amount, Note: note})
}

// AddTransaction records a deposit or withdrawal and refreshes the cached
// balance of the account.
func (s *Service) AddTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	in.Type = models.TxType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if err := check(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		ID:        newID(),
		AccountID: in.AccountID,
		Type:      in.Type,
		Amount:    in.Amount,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: s.timestamp(),
	}
	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return nil, tverrors.NewDataError("transaction", tx.ID, "insert failed", err)
	}

	logging.LogTransaction(s.log("add_transaction"), tx.AccountID, string(tx.Type), tx.Amount)
	s.refreshBalance(ctx, tx.AccountID)
	return tx, nil
}

// ListTransactions returns the ledger of an account, or of all accounts
// when accountID is empty, newest first.
func (s *Service) ListTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if accountID != "" {
		if _, err := s.store.GetAccount(ctx, accountID); err != nil {
			return nil, err
		}
	}
	return s.store.ListTransactions(ctx, accountID)
}

func (s *Service) reconcile(ctx context.Context, a models.Account) (analytics.AccountBalance, error) {
	txs, err := s.store.ListTransactions(ctx, a.ID)
	if err != nil {
		return analytics.AccountBalance{}, err
	}
	trades, err := s.store.ListClosedTrades(ctx, a.ID)
	if err != nil {
		return analytics.AccountBalance{}, err
	}
	return analytics.Reconcile(a, txs, trades), nil
}

func (s *Service) reconcileAll(ctx context.Context) ([]models.Account, []analytics.AccountBalance, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.store.ListTransactions(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	trades, err := s.store.ListClosedTrades(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	return accounts, analytics.ReconcileAll(accounts, txs, trades), nil
}

// refreshBalance updates the cached balance after a write. The write has
// already succeeded, so failures are logged rather than returned.
func (s *Service) refreshBalance(ctx context.Context, accountID string) {
	logger := logging.WithAccount(s.log("refresh_balance"), accountID)
	a, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		logger.Warn().Err(err).Msg("Balance refresh skipped")
		return
	}
	bal, err := s.reconcile(ctx, *a)
	if err != nil {
		logger.Warn().Err(err).Msg("Balance refresh failed")
		return
	}
	logging.LogBalance(logger, a.ID, a.CurrentBalance, bal.CurrentBalance)
	if bal.CurrentBalance == a.CurrentBalance {
		return
	}
	if err := s.store.SetCachedBalance(ctx, a.ID, bal.CurrentBalance); err != nil {
		logger.Warn().Err(err).Msg("Balance cache write failed")
	}
}
