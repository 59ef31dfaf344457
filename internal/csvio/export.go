// Package csvio reads and writes trade journals as CSV. Import accepts the
// native export layout as well as MetaTrader 5 history exports.
package csvio

import (
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"tradevault/internal/models"
)

// TagSeparator joins multi-valued fields inside one CSV cell.
const TagSeparator = ";"

// row is the native export layout.
type row struct {
	TradeID            string  `csv:"trade_id"`
	Date               string  `csv:"date"`
	Session            string  `csv:"session"`
	Pair               string  `csv:"pair"`
	Direction          string  `csv:"direction"`
	LotSize            float64 `csv:"lot_size"`
	EntryPrice         float64 `csv:"entry_price"`
	StopLoss           float64 `csv:"stop_loss"`
	TakeProfit         float64 `csv:"take_profit"`
	ExitPrice          string  `csv:"exit_price"`
	RiskAmount         float64 `csv:"risk_amount"`
	RiskPercent        float64 `csv:"risk_percent"`
	AccountSize        float64 `csv:"account_size"`
	Strategy           string  `csv:"strategy"`
	HTFTimeframe       string  `csv:"htf_timeframe"`
	EntryTimeframe     string  `csv:"entry_timeframe"`
	MarketCondition    string  `csv:"market_condition"`
	Confluences        string  `csv:"confluences"`
	Notes              string  `csv:"notes"`
	Status             string  `csv:"status"`
	DealingRangeHigh   string  `csv:"dealing_range_high"`
	DealingRangeLow    string  `csv:"dealing_range_low"`
	Equilibrium        string  `csv:"equilibrium"`
	TradeLocation      string  `csv:"trade_location"`
	LiquiditySweepType string  `csv:"liquidity_sweep_type"`
	KeyLevels          string  `csv:"key_levels"`
	EntryType          string  `csv:"entry_type"`
	EntryQuality       string  `csv:"entry_quality"`
	HTFBiasRespected   string  `csv:"htf_bias_respected"`
	LTFBOSConfirmed    string  `csv:"ltf_bos_confirmed"`
	MSSPresent         string  `csv:"mss_present"`
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optBool(t models.TriState) string {
	if b := t.Bool(); b != nil {
		return strconv.FormatBool(*b)
	}
	return ""
}

func toRow(t *models.Trade) *row {
	r := &row{
		TradeID:            t.TradeCode,
		Date:               t.Date.String(),
		Session:            t.Session,
		Pair:               t.Pair,
		Direction:          string(t.Direction),
		LotSize:            t.LotSize,
		EntryPrice:         t.EntryPrice,
		StopLoss:           t.StopLoss,
		TakeProfit:         t.TakeProfit,
		ExitPrice:          optFloat(t.ExitPrice),
		RiskAmount:         t.RiskAmount,
		RiskPercent:        t.RiskPercent,
		AccountSize:        t.AccountSize,
		Strategy:           t.Strategy,
		HTFTimeframe:       t.HTFTimeframe,
		EntryTimeframe:     t.EntryTimeframe,
		MarketCondition:    t.MarketCondition,
		Confluences:        strings.Join(t.Confluences, TagSeparator),
		Notes:              t.Notes,
		Status:             string(t.Status),
		DealingRangeHigh:   optFloat(t.DealingRangeHigh),
		DealingRangeLow:    optFloat(t.DealingRangeLow),
		Equilibrium:        optFloat(t.Equilibrium),
		TradeLocation:      string(t.TradeLocation),
		LiquiditySweepType: t.LiquiditySweepType,
		KeyLevels:          strings.Join(t.KeyLevels, TagSeparator),
		EntryType:          t.EntryType,
		HTFBiasRespected:   optBool(t.HTFBiasRespected),
		LTFBOSConfirmed:    optBool(t.LTFBOSConfirmed),
		MSSPresent:         optBool(t.MSSPresent),
	}
	if t.EntryQuality != nil {
		r.EntryQuality = strconv.Itoa(*t.EntryQuality)
	}
	return r
}

// Write exports trades in the native layout, header first.
func Write(w io.Writer, trades []models.Trade) error {
	rows := make([]*row, 0, len(trades))
	for i := range trades {
		rows = append(rows, toRow(&trades[i]))
	}
	return gocsv.Marshal(rows, w)
}
