package journal

import (
	"context"

	"github.com/oklog/ulid/v2"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

const codeAttempts = 5

func newID() string {
	return ulid.Make().String()
}

// tradeCode builds a short human-facing code such as T250115-7QXK. The
// suffix is the random tail of a fresh ULID.
func tradeCode(date models.Date) string {
	id := newID()
	return "T" + date.Time().Format("060102") + "-" + id[len(id)-4:]
}

// uniqueTradeCode returns a trade code not yet present in the store or in
// taken.
func (s *Service) uniqueTradeCode(ctx context.Context, date models.Date, taken map[string]bool) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := tradeCode(date)
		if taken[code] {
			continue
		}
		exists, err := s.tradeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", tverrors.Wrapf(tverrors.ErrDatabaseError, "no free trade code for %s", date)
}

func (s *Service) tradeExists(ctx context.Context, idOrCode string) (bool, error) {
	_, err := s.store.GetTrade(ctx, idOrCode)
	if err == nil {
		return true, nil
	}
	if tverrors.Is(err, tverrors.ErrNotFound) {
		return false, nil
	}
	return false, err
}
