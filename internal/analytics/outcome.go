package analytics

import "tradevault/internal/models"

// directional returns the favourable price move of a position. Anything
// other than Buy is treated as a short.
func directional(entry, exit float64, dir models.Direction) float64 {
	if dir == models.DirectionBuy {
		return exit - entry
	}
	return entry - exit
}

// Pips returns the directional pip result of a trade.
func Pips(pair string, entry, exit float64, dir models.Direction) float64 {
	if !finite(entry, exit) {
		return 0
	}
	return round(directional(entry, exit, dir)*PipMultiplier(pair), 1)
}

// RMultiple expresses the result as a multiple of the initial risk
// |entry-stop|. Zero risk yields 0.
func RMultiple(entry, exit, stop float64, dir models.Direction) float64 {
	if !finite(entry, exit, stop) {
		return 0
	}
	risk := abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return round(directional(entry, exit, dir)/risk, 2)
}

// DollarPnL is the canonical dollar outcome: risk amount times R.
func DollarPnL(riskAmount, r float64) float64 {
	return round(riskAmount*r, 2)
}

// PercentPnL is pnl relative to the account size at entry.
func PercentPnL(pnl, accountSize float64) float64 {
	if accountSize == 0 {
		return 0
	}
	return round(pnl/accountSize*10000, 0) / 100
}

// Equilibrium is the midpoint of a dealing range, rounded to 5 decimals.
func Equilibrium(high, low float64) float64 {
	return round((high+low)/2, 5)
}

// TradeLocationOf classifies price against a dealing range. Prices within
// 5% of the range width around the equilibrium are EQ.
func TradeLocationOf(price, high, low float64) models.Location {
	if !finite(price, high, low) {
		return models.LocationNone
	}
	eq := Equilibrium(high, low)
	zone := abs(high-low) * 0.05
	if abs(price-eq) <= zone {
		return models.LocationEQ
	}
	if price > eq {
		return models.LocationPremium
	}
	return models.LocationDiscount
}

// PlannedRiskReward is |tp-entry| / |entry-stop|, 0 when the stop sits on
// the entry.
func PlannedRiskReward(entry, stop, takeProfit float64) float64 {
	if !finite(entry, stop, takeProfit) {
		return 0
	}
	risk := abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return round(abs(takeProfit-entry)/risk, 2)
}

// DealingRange derives the equilibrium and entry location of a trade. Both
// range bounds must be set and non-zero.
func DealingRange(t *models.Trade) (*float64, models.Location) {
	if t.DealingRangeHigh == nil || t.DealingRangeLow == nil {
		return nil, models.LocationNone
	}
	high, low := *t.DealingRangeHigh, *t.DealingRangeLow
	if high == 0 || low == 0 || !finite(high, low) {
		return nil, models.LocationNone
	}
	eq := Equilibrium(high, low)
	return &eq, TradeLocationOf(t.EntryPrice, high, low)
}

// Outcome holds the derived result of one closed trade.
type Outcome struct {
	Pips       float64 `json:"pips"`
	RMultiple  float64 `json:"r_multiple"`
	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnl_percent"`
	// DisplayPnL is the pip-value estimate shown next to a trade. It is
	// never used for balances or statistics.
	DisplayPnL float64 `json:"display_pnl"`
}

// Evaluate computes the outcome of t. The second result is false when t is
// not closed with an exit price.
func Evaluate(t *models.Trade) (Outcome, bool) {
	if !t.IsEligible() {
		return Outcome{}, false
	}
	exit := *t.ExitPrice
	pips := Pips(t.Pair, t.EntryPrice, exit, t.Direction)
	r := RMultiple(t.EntryPrice, exit, t.StopLoss, t.Direction)
	pnl := DollarPnL(t.RiskAmount, r)
	return Outcome{
		Pips:       pips,
		RMultiple:  r,
		PnL:        pnl,
		PnLPercent: PercentPnL(pnl, t.AccountSize),
		DisplayPnL: PipsToDollarValue(t.Pair, abs(pips), t.LotSize) * sign(pips),
	}, true
}

// evaluated pairs an eligible trade with its outcome.
type evaluated struct {
	trade *models.Trade
	Outcome
}

// closedOutcomes evaluates the eligible trades in input order.
func closedOutcomes(trades []models.Trade) []evaluated {
	out := make([]evaluated, 0, len(trades))
	for i := range trades {
		if o, ok := Evaluate(&trades[i]); ok {
			out = append(out, evaluated{trade: &trades[i], Outcome: o})
		}
	}
	return out
}
