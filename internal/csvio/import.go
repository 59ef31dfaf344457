package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	tverrors "tradevault/internal/errors"
	"tradevault/internal/models"
)

// columnAliases maps lower-cased header names to native fields.
var columnAliases = map[string]string{
	// MetaTrader 5
	"ticket":      "trade_id",
	"order":       "trade_id",
	"open time":   "date",
	"time":        "date",
	"close time":  "date",
	"type":        "direction",
	"symbol":      "pair",
	"volume":      "lot_size",
	"price":       "entry_price",
	"open price":  "entry_price",
	"s / l":       "stop_loss",
	"sl":          "stop_loss",
	"stop loss":   "stop_loss",
	"t / p":       "take_profit",
	"tp":          "take_profit",
	"take profit": "take_profit",
	"close price": "exit_price",
	"profit":      "notes",
	"comment":     "notes",
}

var nativeColumns = map[string]bool{
	"trade_id": true, "date": true, "session": true, "pair": true, "direction": true,
	"lot_size": true, "entry_price": true, "stop_loss": true, "take_profit": true,
	"exit_price": true, "risk_amount": true, "risk_percent": true, "account_size": true,
	"strategy": true, "htf_timeframe": true, "entry_timeframe": true, "market_condition": true,
	"confluences": true, "notes": true, "status": true, "dealing_range_high": true,
	"dealing_range_low": true, "equilibrium": true, "trade_location": true,
	"liquidity_sweep_type": true, "key_levels": true, "entry_type": true,
	"entry_quality": true, "htf_bias_respected": true, "ltf_bos_confirmed": true,
	"mss_present": true,
}

func fieldFor(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if nativeColumns[h] {
		return h
	}
	return columnAliases[h]
}

var (
	dateRe    = regexp.MustCompile(`(\d{4})[./-](\d{2})[./-](\d{2})`)
	timeRe    = regexp.MustCompile(`(\d{2}):(\d{2})`)
	nonSymbol = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Row is one parsed trade with the file line it came from.
type Row struct {
	Line  int
	Trade models.Trade
}

// Result is the outcome of parsing an import file.
type Result struct {
	Rows []Row
	// Skipped lists rows that could not be imported.
	Skipped []*tverrors.ImportError
}

// Parse reads a native or MT5 CSV. Tab separated files are detected from
// the header. Rows without a symbol are skipped; rows without a date use
// today. Returned trades carry no ID or account.
func Parse(r io.Reader, today models.Date) (*Result, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, tverrors.Wrap(err, "reading import")
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if detectTabs(head) {
		cr.Comma = '\t'
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, tverrors.NewImportError(0, "malformed csv", err)
	}

	res := &Result{}
	if len(records) < 2 {
		res.Skipped = append(res.Skipped, tverrors.NewImportError(1, "file is empty or has no data rows", nil))
		return res, nil
	}

	fields := make([]string, len(records[0]))
	for i, h := range records[0] {
		fields[i] = fieldFor(strings.TrimPrefix(h, "\ufeff"))
	}

	for i, rec := range records[1:] {
		line := i + 2
		raw := make(map[string]string)
		empty := true
		for idx, v := range rec {
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			if idx < len(fields) && fields[idx] != "" && v != "" {
				if _, seen := raw[fields[idx]]; !seen {
					raw[fields[idx]] = v
				}
			}
		}
		if empty {
			continue
		}
		if raw["pair"] == "" {
			res.Skipped = append(res.Skipped, tverrors.NewImportError(line, "no pair/symbol found, skipped", nil))
			continue
		}
		res.Rows = append(res.Rows, Row{Line: line, Trade: buildTrade(raw, today)})
	}

	return res, nil
}

func detectTabs(head []byte) bool {
	first := string(head)
	if i := strings.IndexAny(first, "\r\n"); i >= 0 {
		first = first[:i]
	}
	return strings.Count(first, "\t") > strings.Count(first, ",")
}

func buildTrade(raw map[string]string, today models.Date) models.Trade {
	dateRaw := raw["date"]
	date := extractDate(dateRaw, today)
	session := raw["session"]
	if session == "" {
		session = GuessSession(dateRaw)
	}
	direction := models.DirectionBuy
	if raw["direction"] != "" {
		direction = NormalizeDirection(raw["direction"])
	}
	lot := number(raw["lot_size"])
	if lot == 0 {
		lot = 0.01
	}

	t := models.Trade{
		TradeCode:          raw["trade_id"],
		Date:               date,
		Session:            session,
		Pair:               strings.ToUpper(nonSymbol.ReplaceAllString(raw["pair"], "")),
		Direction:          direction,
		LotSize:            lot,
		EntryPrice:         number(raw["entry_price"]),
		StopLoss:           number(raw["stop_loss"]),
		TakeProfit:         number(raw["take_profit"]),
		ExitPrice:          optNumber(raw["exit_price"]),
		RiskAmount:         number(raw["risk_amount"]),
		RiskPercent:        number(raw["risk_percent"]),
		AccountSize:        number(raw["account_size"]),
		Strategy:           raw["strategy"],
		HTFTimeframe:       raw["htf_timeframe"],
		EntryTimeframe:     raw["entry_timeframe"],
		MarketCondition:    raw["market_condition"],
		Confluences:        splitTags(raw["confluences"]),
		Notes:              raw["notes"],
		DealingRangeHigh:   optNumber(raw["dealing_range_high"]),
		DealingRangeLow:    optNumber(raw["dealing_range_low"]),
		LiquiditySweepType: raw["liquidity_sweep_type"],
		KeyLevels:          splitTags(raw["key_levels"]),
		EntryType:          raw["entry_type"],
		HTFBiasRespected:   triState(raw["htf_bias_respected"]),
		LTFBOSConfirmed:    triState(raw["ltf_bos_confirmed"]),
		MSSPresent:         triState(raw["mss_present"]),
	}
	if q, err := cast.ToIntE(raw["entry_quality"]); err == nil && q >= 1 && q <= 5 {
		t.EntryQuality = &q
	}

	switch {
	case t.ExitPrice != nil:
		t.Status = models.StatusClosed
	case strings.EqualFold(raw["status"], string(models.StatusClosed)):
		t.Status = models.StatusClosed
	default:
		t.Status = models.StatusOpen
	}
	return t
}

// NormalizeDirection maps broker order types onto Buy or Sell.
func NormalizeDirection(v string) models.Direction {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "buy", "buy limit", "buy stop", "long":
		return models.DirectionBuy
	}
	return models.DirectionSell
}

// GuessSession infers the trading session from an HH:MM time in s.
func GuessSession(s string) string {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return "London"
	}
	hour, _ := strconv.Atoi(m[1])
	switch {
	case hour < 7:
		return "Asia"
	case hour < 12:
		return "London"
	case hour < 21:
		return "New York"
	}
	return "Sydney"
}

func extractDate(s string, today models.Date) models.Date {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return today
	}
	d, err := models.ParseDate(fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
	if err != nil {
		return today
	}
	return d
}

func number(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	return f
}

func optNumber(s string) *float64 {
	if f := number(s); f != 0 {
		return &f
	}
	return nil
}

func splitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, TagSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func triState(s string) models.TriState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return models.TriUnknown
	case "yes", "y":
		return models.TriYes
	case "no", "n":
		return models.TriNo
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return models.TriUnknown
	}
	return models.TriStateOf(&b)
}
