package journal

import (
	"context"
	"io"

	"tradevault/internal/csvio"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/logging"
	"tradevault/internal/models"
	"tradevault/internal/store"
)

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int                     `json:"imported"`
	Warnings []string                `json:"warnings"`
	Trades   []models.Trade          `json:"-"`
	Skipped  []*tverrors.ImportError `json:"-"`
}

// ExportCSV writes the trades of an account (every account when accountID
// is empty) oldest first.
func (s *Service) ExportCSV(ctx context.Context, accountID string, w io.Writer) (int, error) {
	if accountID != "" {
		if _, err := s.store.GetAccount(ctx, accountID); err != nil {
			return 0, err
		}
	}
	trades, err := s.store.ListTrades(ctx, store.TradeFilter{AccountID: accountID, Ascending: true})
	if err != nil {
		return 0, err
	}
	if err := csvio.Write(w, trades); err != nil {
		return 0, tverrors.Wrap(err, "writing csv")
	}
	return len(trades), nil
}

// ImportCSV parses r and stores every valid row on accountID in one
// transaction. Rows that fail validation or repeat an existing trade code
// are skipped and reported.
func (s *Service) ImportCSV(ctx context.Context, accountID string, r io.Reader) (*ImportResult, error) {
	bal, err := s.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	parsed, err := csvio.Parse(r, s.today())
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Skipped: parsed.Skipped}
	taken := make(map[string]bool)
	now := s.timestamp()

	for _, row := range parsed.Rows {
		in := InputOf(&row.Trade)
		in.AccountID = accountID
		in.normalize()
		if err := check(in); err != nil {
			res.Skipped = append(res.Skipped, tverrors.NewImportError(row.Line, "invalid row", err))
			continue
		}

		t := models.Trade{ID: newID(), Date: s.today(), CreatedAt: now, UpdatedAt: now}
		in.apply(&t)

		if t.TradeCode != "" {
			exists, err := s.tradeExists(ctx, t.TradeCode)
			if err != nil {
				return nil, err
			}
			if exists || taken[t.TradeCode] {
				res.Skipped = append(res.Skipped, tverrors.NewImportError(row.Line, "duplicate trade id "+t.TradeCode, nil))
				continue
			}
		} else {
			code, err := s.uniqueTradeCode(ctx, t.Date, taken)
			if err != nil {
				return nil, err
			}
			t.TradeCode = code
		}
		fillRisk(&t, bal.CurrentBalance)

		taken[t.TradeCode] = true
		res.Trades = append(res.Trades, t)
	}

	if len(res.Trades) > 0 {
		if err := s.store.SaveTrades(ctx, res.Trades); err != nil {
			return nil, tverrors.NewDataError("trade", accountID, "saving imported trades", err)
		}
		s.refreshBalance(ctx, accountID)
	}

	res.Imported = len(res.Trades)
	for _, sk := range res.Skipped {
		res.Warnings = append(res.Warnings, sk.Error())
	}
	logging.LogImport(logging.WithAccount(s.log("import_csv"), accountID), accountID, res.Imported, len(res.Skipped))
	return res, nil
}
