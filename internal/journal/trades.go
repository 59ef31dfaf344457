package journal

import (
	"context"
	"strings"

	"tradevault/internal/analytics"
	tverrors "tradevault/internal/errors"
	"tradevault/internal/logging"
	"tradevault/internal/models"
	"tradevault/internal/store"
)

// TradeInput holds the writable fields of a trade. Equilibrium and trade
// location are derived from the dealing range and cannot be set.
type TradeInput struct {
	AccountID string           `json:"account_id" validate:"required"`
	TradeCode string           `json:"trade_id" validate:"max=32"`
	Date      models.Date      `json:"date"`
	Pair      string           `json:"pair" validate:"required,max=20"`
	Direction models.Direction `json:"direction" validate:"required,oneof=Buy Sell"`
	Status    models.Status    `json:"status" validate:"omitempty,oneof=Open Closed"`

	EntryPrice  float64  `json:"entry_price" validate:"gt=0"`
	StopLoss    float64  `json:"stop_loss" validate:"gte=0"`
	TakeProfit  float64  `json:"take_profit" validate:"gte=0"`
	ExitPrice   *float64 `json:"exit_price" validate:"omitempty,gt=0"`
	LotSize     float64  `json:"lot_size" validate:"gte=0"`
	RiskAmount  float64  `json:"risk_amount" validate:"gte=0"`
	RiskPercent float64  `json:"risk_percent" validate:"gte=0,lte=100"`
	AccountSize float64  `json:"account_size" validate:"gte=0"`

	Session         string   `json:"session" validate:"max=50"`
	Strategy        string   `json:"strategy" validate:"max=100"`
	MarketCondition string   `json:"market_condition" validate:"max=50"`
	Confluences     []string `json:"confluences" validate:"max=30,dive,max=100"`
	HTFTimeframe    string   `json:"htf_timeframe" validate:"max=10"`
	EntryTimeframe  string   `json:"entry_timeframe" validate:"max=10"`

	DealingRangeHigh   *float64 `json:"dealing_range_high" validate:"omitempty,gt=0"`
	DealingRangeLow    *float64 `json:"dealing_range_low" validate:"omitempty,gt=0"`
	LiquiditySweepType string   `json:"liquidity_sweep_type" validate:"max=50"`
	KeyLevels          []string `json:"key_levels" validate:"max=30,dive,max=100"`

	EntryType        string          `json:"entry_type" validate:"max=50"`
	EntryQuality     *int            `json:"entry_quality" validate:"omitempty,min=1,max=5"`
	HTFBiasRespected models.TriState `json:"htf_bias_respected"`
	LTFBOSConfirmed  models.TriState `json:"ltf_bos_confirmed"`
	MSSPresent       models.TriState `json:"mss_present"`

	Notes            string `json:"notes" validate:"max=10000"`
	ScreenshotBefore string `json:"screenshot_before" validate:"max=2048"`
	ScreenshotAfter  string `json:"screenshot_after" validate:"max=2048"`
}

// normalize canonicalises free-form input before validation.
func (in *TradeInput) normalize() {
	in.AccountID = strings.TrimSpace(in.AccountID)
	in.TradeCode = strings.TrimSpace(in.TradeCode)
	in.Pair = strings.ToUpper(strings.TrimSpace(in.Pair))
	switch strings.ToLower(strings.TrimSpace(string(in.Direction))) {
	case "buy":
		in.Direction = models.DirectionBuy
	case "sell":
		in.Direction = models.DirectionSell
	}
	switch strings.ToLower(strings.TrimSpace(string(in.Status))) {
	case "open":
		in.Status = models.StatusOpen
	case "closed":
		in.Status = models.StatusClosed
	case "":
		in.Status = models.StatusOpen
		if in.ExitPrice != nil {
			in.Status = models.StatusClosed
		}
	}
}

// apply copies the input onto t and derives the dealing range fields.
func (in *TradeInput) apply(t *models.Trade) {
	t.AccountID = in.AccountID
	if in.TradeCode != "" {
		t.TradeCode = in.TradeCode
	}
	if !in.Date.IsZero() {
		t.Date = in.Date
	}
	t.Pair = in.Pair
	t.Direction = in.Direction
	t.Status = in.Status
	t.EntryPrice = in.EntryPrice
	t.StopLoss = in.StopLoss
	t.TakeProfit = in.TakeProfit
	t.ExitPrice = in.ExitPrice
	t.LotSize = in.LotSize
	t.RiskAmount = in.RiskAmount
	t.RiskPercent = in.RiskPercent
	t.AccountSize = in.AccountSize
	t.Session = in.Session
	t.Strategy = in.Strategy
	t.MarketCondition = in.MarketCondition
	t.Confluences = in.Confluences
	t.HTFTimeframe = in.HTFTimeframe
	t.EntryTimeframe = in.EntryTimeframe
	t.DealingRangeHigh = in.DealingRangeHigh
	t.DealingRangeLow = in.DealingRangeLow
	t.LiquiditySweepType = in.LiquiditySweepType
	t.KeyLevels = in.KeyLevels
	t.EntryType = in.EntryType
	t.EntryQuality = in.EntryQuality
	t.HTFBiasRespected = in.HTFBiasRespected
	t.LTFBOSConfirmed = in.LTFBOSConfirmed
	t.MSSPresent = in.MSSPresent
	t.Notes = in.Notes
	t.ScreenshotBefore = in.ScreenshotBefore
	t.ScreenshotAfter = in.ScreenshotAfter

	t.Equilibrium, t.TradeLocation = analytics.DealingRange(t)
}

// InputOf returns the writable fields of t, for edits that start from a
// stored trade.
func InputOf(t *models.Trade) TradeInput {
	return TradeInput{
		AccountID:          t.AccountID,
		TradeCode:          t.TradeCode,
		Date:               t.Date,
		Pair:               t.Pair,
		Direction:          t.Direction,
		Status:             t.Status,
		EntryPrice:         t.EntryPrice,
		StopLoss:           t.StopLoss,
		TakeProfit:         t.TakeProfit,
		ExitPrice:          t.ExitPrice,
		LotSize:            t.LotSize,
		RiskAmount:         t.RiskAmount,
		RiskPercent:        t.RiskPercent,
		AccountSize:        t.AccountSize,
		Session:            t.Session,
		Strategy:           t.Strategy,
		MarketCondition:    t.MarketCondition,
		Confluences:        t.Confluences,
		HTFTimeframe:       t.HTFTimeframe,
		EntryTimeframe:     t.EntryTimeframe,
		DealingRangeHigh:   t.DealingRangeHigh,
		DealingRangeLow:    t.DealingRangeLow,
		LiquiditySweepType: t.LiquiditySweepType,
		KeyLevels:          t.KeyLevels,
		EntryType:          t.EntryType,
		EntryQuality:       t.EntryQuality,
		HTFBiasRespected:   t.HTFBiasRespected,
		LTFBOSConfirmed:    t.LTFBOSConfirmed,
		MSSPresent:         t.MSSPresent,
		Notes:              t.Notes,
		ScreenshotBefore:   t.ScreenshotBefore,
		ScreenshotAfter:    t.ScreenshotAfter,
	}
}

// fillRisk defaults the account size to balance and derives the risk
// amount from the risk percent when they were left at zero.
func fillRisk(t *models.Trade, balance float64) {
	if t.AccountSize == 0 && balance > 0 {
		t.AccountSize = balance
	}
	if t.RiskAmount == 0 && t.RiskPercent > 0 && t.AccountSize > 0 {
		t.RiskAmount = analytics.Round2(t.AccountSize * t.RiskPercent / 100)
	}
}

func (s *Service) sizeRisk(ctx context.Context, t *models.Trade) error {
	var balance float64
	if t.AccountSize == 0 {
		bal, err := s.Balance(ctx, t.AccountID)
		if err != nil {
			return err
		}
		balance = bal.CurrentBalance
	}
	fillRisk(t, balance)
	return nil
}

// LogTrade validates and stores a new trade.
func (s *Service) LogTrade(ctx context.Context, in TradeInput) (*models.Trade, error) {
	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	t := &models.Trade{ID: newID(), Date: s.today(), CreatedAt: now, UpdatedAt: now}
	in.apply(t)

	if t.TradeCode == "" {
		code, err := s.uniqueTradeCode(ctx, t.Date, nil)
		if err != nil {
			return nil, err
		}
		t.TradeCode = code
	} else if exists, err := s.tradeExists(ctx, t.TradeCode); err != nil {
		return nil, err
	} else if exists {
		return nil, tverrors.NewValidationError("trade_id", t.TradeCode, "already exists")
	}

	if err := s.sizeRisk(ctx, t); err != nil {
		return nil, err
	}
	if err := s.store.SaveTrade(ctx, t); err != nil {
		return nil, tverrors.NewDataError("trade", t.TradeCode, "insert failed", err)
	}

	logging.LogTrade(s.log("log_trade"), "logged", t.TradeCode, t.Pair, string(t.Direction))
	if t.IsEligible() {
		s.refreshBalance(ctx, t.AccountID)
	}
	return t, nil
}

// UpdateTrade replaces the writable fields of a stored trade.
func (s *Service) UpdateTrade(ctx context.Context, idOrCode string, in TradeInput) (*models.Trade, error) {
	t, err := s.store.GetTrade(ctx, idOrCode)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}
	if in.AccountID != t.AccountID {
		if _, err := s.store.GetAccount(ctx, in.AccountID); err != nil {
			return nil, err
		}
	}
	if in.TradeCode != "" && in.TradeCode != t.TradeCode {
		exists, err := s.tradeExists(ctx, in.TradeCode)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, tverrors.NewValidationError("trade_id", in.TradeCode, "already exists")
		}
	}

	prevAccount := t.AccountID
	in.apply(t)
	t.UpdatedAt = s.timestamp()
	if err := s.sizeRisk(ctx, t); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTrade(ctx, t); err != nil {
		return nil, err
	}

	logging.LogTrade(s.log("update_trade"), "updated", t.TradeCode, t.Pair, string(t.Direction))
	s.refreshBalance(ctx, t.AccountID)
	if prevAccount != t.AccountID {
		s.refreshBalance(ctx, prevAccount)
	}
	return t, nil
}

// CloseTrade records the exit of an open trade.
func (s *Service) CloseTrade(ctx context.Context, idOrCode string, exitPrice float64) (*models.Trade, error) {
	if !(exitPrice > 0) {
		return nil, tverrors.NewValidationError("exit_price", exitPrice, "must be greater than 0")
	}
	t, err := s.store.GetTrade(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusOpen {
		return nil, tverrors.Wrapf(tverrors.ErrTradeNotOpen, "trade %s", t.TradeCode)
	}

	t.ExitPrice = &exitPrice
	t.Status = models.StatusClosed
	t.UpdatedAt = s.timestamp()
	if err := s.store.UpdateTrade(ctx, t); err != nil {
		return nil, err
	}

	logging.LogTrade(s.log("close_trade"), "closed", t.TradeCode, t.Pair, string(t.Direction))
	s.refreshBalance(ctx, t.AccountID)
	return t, nil
}

// GetTrade returns a trade by ID or trade code.
func (s *Service) GetTrade(ctx context.Context, idOrCode string) (*models.Trade, error) {
	return s.store.GetTrade(ctx, idOrCode)
}

// TradeDetail is a trade with its derived figures.
type TradeDetail struct {
	models.Trade
	Outcome   *analytics.Outcome `json:"outcome"`
	PlannedRR float64            `json:"planned_rr"`
}

// TradeDetail returns a trade with its outcome (nil while the trade is not
// eligible) and planned risk:reward.
func (s *Service) TradeDetail(ctx context.Context, idOrCode string) (*TradeDetail, error) {
	t, err := s.store.GetTrade(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	d := &TradeDetail{
		Trade:     *t,
		PlannedRR: analytics.PlannedRiskReward(t.EntryPrice, t.StopLoss, t.TakeProfit),
	}
	if o, ok := analytics.Evaluate(t); ok {
		d.Outcome = &o
	}
	return d, nil
}

// ListTrades returns the trades matching filter.
func (s *Service) ListTrades(ctx context.Context, filter store.TradeFilter) ([]models.Trade, error) {
	return s.store.ListTrades(ctx, filter)
}

// DeleteTrade removes a trade.
func (s *Service) DeleteTrade(ctx context.Context, idOrCode string) error {
	t, err := s.store.GetTrade(ctx, idOrCode)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTrade(ctx, t.ID); err != nil {
		return err
	}
	logging.LogTrade(s.log("delete_trade"), "deleted", t.TradeCode, t.Pair, string(t.Direction))
	if t.IsEligible() {
		s.refreshBalance(ctx, t.AccountID)
	}
	return nil
}

// ClosedTrade is the per-trade line of the closed-trade summary.
type ClosedTrade struct {
	ID        string      `json:"id"`
	TradeCode string      `json:"trade_id"`
	AccountID string      `json:"account_id"`
	Pair      string      `json:"pair"`
	Date      models.Date `json:"date"`
	RMultiple float64     `json:"r_multiple"`
	PnL       float64     `json:"pnl"`
}

// ClosedTrades summarises the eligible trades of an account (all accounts
// when accountID is empty), oldest first.
func (s *Service) ClosedTrades(ctx context.Context, accountID string) ([]ClosedTrade, error) {
	trades, err := s.store.ListClosedTrades(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]ClosedTrade, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		o, ok := analytics.Evaluate(t)
		if !ok {
			continue
		}
		out = append(out, ClosedTrade{
			ID: t.ID, TradeCode: t.TradeCode, AccountID: t.AccountID, Pair: t.Pair,
			Date: t.Date, RMultiple: o.RMultiple, PnL: o.PnL,
		})
	}
	return out, nil
}
