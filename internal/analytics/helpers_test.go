package analytics

import "tradevault/internal/models"

// closedTrade builds an eligible EURUSD trade risking 100 with the given R.
func closedTrade(r float64) models.Trade {
	entry, stop := 1.10000, 1.09000
	exit := entry + r*0.01
	return models.Trade{
		AccountID:   "acc-1",
		Pair:        "EURUSD",
		Direction:   models.DirectionBuy,
		EntryPrice:  entry,
		StopLoss:    stop,
		ExitPrice:   models.Float(exit),
		RiskAmount:  100,
		AccountSize: 10000,
		Status:      models.StatusClosed,
		Date:        models.NewDate(2025, 1, 15),
	}
}

func closedTrades(rs ...float64) []models.Trade {
	out := make([]models.Trade, 0, len(rs))
	for _, r := range rs {
		out = append(out, closedTrade(r))
	}
	return out
}

func openTrade() models.Trade {
	t := closedTrade(1)
	t.Status = models.StatusOpen
	t.ExitPrice = nil
	return t
}
