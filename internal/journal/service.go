// Package journal is the application layer between the outer surfaces (CLI,
// HTTP API) and the analytics core. It validates input, owns record
// identity, keeps cached balances fresh and feeds stored records to the
// analytics functions.
package journal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tradevault/internal/logging"
	"tradevault/internal/models"
	"tradevault/internal/store"
)

// Defaults are applied to new accounts when the input leaves them empty.
type Defaults struct {
	AccountType string
	Currency    string
}

// Service implements the journal operations on top of a DataStore.
type Service struct {
	store    store.DataStore
	logger   zerolog.Logger
	defaults Defaults
	now      func() time.Time
}

// NewService creates a journal service.
func NewService(ds store.DataStore, logger zerolog.Logger, defaults Defaults) *Service {
	if defaults.AccountType == "" {
		defaults.AccountType = models.DefaultAccountType
	}
	if defaults.Currency == "" {
		defaults.Currency = models.DefaultCurrency
	}
	return &Service{
		store:    ds,
		logger:   logger.With().Str("component", "journal").Logger(),
		defaults: defaults,
		now:      time.Now,
	}
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) today() models.Date {
	return models.DateOf(s.now())
}

func (s *Service) log(op string) zerolog.Logger {
	return logging.WithOperation(s.logger, op)
}
