package analytics

import "tradevault/internal/models"

// Filter narrows a trade set for analytics. Empty fields do not constrain.
type Filter struct {
	Pair            string `query:"pair" json:"pair,omitempty"`
	Session         string `query:"session" json:"session,omitempty"`
	Strategy        string `query:"strategy" json:"strategy,omitempty"`
	MarketCondition string `query:"condition" json:"condition,omitempty"`
	KeyLevel        string `query:"key_level" json:"key_level,omitempty"`
	LiquiditySweep  string `query:"sweep" json:"sweep,omitempty"`
	Location        string `query:"location" json:"location,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether t passes every set constraint.
func (f Filter) Match(t *models.Trade) bool {
	switch {
	case f.Pair != "" && t.Pair != f.Pair:
		return false
	case f.Session != "" && t.Session != f.Session:
		return false
	case f.Strategy != "" && t.Strategy != f.Strategy:
		return false
	case f.MarketCondition != "" && t.MarketCondition != f.MarketCondition:
		return false
	case f.KeyLevel != "" && !t.HasKeyLevel(f.KeyLevel):
		return false
	case f.LiquiditySweep != "" && t.LiquiditySweepType != f.LiquiditySweep:
		return false
	case f.Location != "" && string(t.TradeLocation) != f.Location:
		return false
	}
	return true
}

// Apply returns the matching trades in their original order.
func (f Filter) Apply(trades []models.Trade) []models.Trade {
	if f.IsZero() {
		return trades
	}
	out := make([]models.Trade, 0, len(trades))
	for i := range trades {
		if f.Match(&trades[i]) {
			out = append(out, trades[i])
		}
	}
	return out
}
