package models

import "time"

// Trade is one journaled trade.
type Trade struct {
	ID        string `json:"id"`
	TradeCode string `json:"trade_id"`
	AccountID string `json:"account_id"`

	Pair        string    `json:"pair"`
	Direction   Direction `json:"direction"`
	EntryPrice  float64   `json:"entry_price"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit  float64   `json:"take_profit"`
	ExitPrice   *float64  `json:"exit_price"`
	LotSize     float64   `json:"lot_size"`
	RiskAmount  float64   `json:"risk_amount"`
	RiskPercent float64   `json:"risk_percent"`
	AccountSize float64   `json:"account_size"`

	Session         string   `json:"session"`
	Strategy        string   `json:"strategy"`
	MarketCondition string   `json:"market_condition"`
	Confluences     []string `json:"confluences"`
	HTFTimeframe    string   `json:"htf_timeframe"`
	EntryTimeframe  string   `json:"entry_timeframe"`

	DealingRangeHigh   *float64 `json:"dealing_range_high"`
	DealingRangeLow    *float64 `json:"dealing_range_low"`
	Equilibrium        *float64 `json:"equilibrium"`
	TradeLocation      Location `json:"trade_location"`
	LiquiditySweepType string   `json:"liquidity_sweep_type"`
	KeyLevels          []string `json:"key_levels"`

	EntryType        string   `json:"entry_type"`
	EntryQuality     *int     `json:"entry_quality"`
	HTFBiasRespected TriState `json:"htf_bias_respected"`
	LTFBOSConfirmed  TriState `json:"ltf_bos_confirmed"`
	MSSPresent       TriState `json:"mss_present"`

	Status           Status `json:"status"`
	Date             Date   `json:"date"`
	Notes            string `json:"notes"`
	ScreenshotBefore string `json:"screenshot_before"`
	ScreenshotAfter  string `json:"screenshot_after"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEligible reports whether the trade is closed with a usable exit price.
// Only eligible trades contribute to outcomes, statistics and balances.
func (t *Trade) IsEligible() bool {
	return t.Status == StatusClosed && t.ExitPrice != nil && *t.ExitPrice != 0
}

// Exit returns the exit price or 0 when the trade is still open.
func (t *Trade) Exit() float64 {
	if t.ExitPrice == nil {
		return 0
	}
	return *t.ExitPrice
}

// HasKeyLevel reports whether level is among the trade's key levels.
func (t *Trade) HasKeyLevel(level string) bool {
	for _, k := range t.KeyLevels {
		if k == level {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for optional price fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
