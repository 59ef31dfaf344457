package analytics

import (
	"sort"
	"strconv"
	"strings"

	"tradevault/internal/models"
)

// KeyFunc extracts a grouping key from a trade. An empty key excludes the
// trade from the breakdown.
type KeyFunc func(t *models.Trade) string

// TagsFunc extracts a set of tags; a trade is counted once per tag.
type TagsFunc func(t *models.Trade) []string

// GroupWinRate is the win rate of one breakdown group. A win is a
// positive R-multiple.
type GroupWinRate struct {
	Name     string  `json:"name"`
	Total    int     `json:"total"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
}

func BySession(t *models.Trade) string         { return t.Session }
func ByStrategy(t *models.Trade) string        { return t.Strategy }
func ByPair(t *models.Trade) string            { return t.Pair }
func ByMarketCondition(t *models.Trade) string { return t.MarketCondition }
func ByLocation(t *models.Trade) string        { return string(t.TradeLocation) }
func ByLiquiditySweep(t *models.Trade) string  { return t.LiquiditySweepType }
func ByEntryType(t *models.Trade) string       { return t.EntryType }

// ByKeyLevelCombo groups by the full key-level combination, e.g. "OB+FVG".
func ByKeyLevelCombo(t *models.Trade) string { return strings.Join(t.KeyLevels, "+") }

// ByEntryQuality groups by the 1-5 entry rating.
func ByEntryQuality(t *models.Trade) string {
	if t.EntryQuality == nil {
		return ""
	}
	return strconv.Itoa(*t.EntryQuality)
}

func KeyLevels(t *models.Trade) []string   { return t.KeyLevels }
func Confluences(t *models.Trade) []string { return t.Confluences }

// Dimension names a stock breakdown.
type Dimension string

const (
	DimSession        Dimension = "session"
	DimStrategy       Dimension = "strategy"
	DimPair           Dimension = "pair"
	DimCondition      Dimension = "condition"
	DimLocation       Dimension = "location"
	DimLiquiditySweep Dimension = "sweep"
	DimEntryType      Dimension = "entry-type"
	DimEntryQuality   Dimension = "quality"
	DimKeyLevelCombo  Dimension = "key-levels"
	DimKeyLevel       Dimension = "key-level"
	DimConfluence     Dimension = "confluence"
)

// Dimensions lists the stock breakdowns in display order.
var Dimensions = []Dimension{
	DimSession, DimStrategy, DimPair, DimCondition, DimLocation,
	DimLiquiditySweep, DimEntryType, DimEntryQuality,
	DimKeyLevelCombo, DimKeyLevel, DimConfluence,
}

var keyFuncs = map[Dimension]KeyFunc{
	DimSession:        BySession,
	DimStrategy:       ByStrategy,
	DimPair:           ByPair,
	DimCondition:      ByMarketCondition,
	DimLocation:       ByLocation,
	DimLiquiditySweep: ByLiquiditySweep,
	DimEntryType:      ByEntryType,
	DimEntryQuality:   ByEntryQuality,
	DimKeyLevelCombo:  ByKeyLevelCombo,
}

var tagFuncs = map[Dimension]TagsFunc{
	DimKeyLevel:   KeyLevels,
	DimConfluence: Confluences,
}

// BreakdownBy runs the stock breakdown named by dim. ok is false for an
// unknown dimension.
func BreakdownBy(trades []models.Trade, dim Dimension) (groups []GroupWinRate, ok bool) {
	if fn, found := keyFuncs[dim]; found {
		return Breakdown(trades, fn), true
	}
	if fn, found := tagFuncs[dim]; found {
		return BreakdownTags(trades, fn), true
	}
	return nil, false
}

// Breakdown groups eligible trades by key and ranks the groups by win rate.
func Breakdown(trades []models.Trade, key KeyFunc) []GroupWinRate {
	return BreakdownTags(trades, func(t *models.Trade) []string {
		return []string{key(t)}
	})
}

// BreakdownTags is Breakdown for multi-valued keys.
func BreakdownTags(trades []models.Trade, tags TagsFunc) []GroupWinRate {
	var order []string
	groups := make(map[string]*GroupWinRate)
	for _, r := range closedOutcomes(trades) {
		for _, name := range tags(r.trade) {
			if name == "" {
				continue
			}
			g, ok := groups[name]
			if !ok {
				g = &GroupWinRate{Name: name}
				groups[name] = g
				order = append(order, name)
			}
			g.Total++
			g.TotalPnL += r.PnL
			if r.RMultiple > 0 {
				g.Wins++
			}
		}
	}

	out := make([]GroupWinRate, 0, len(order))
	for _, name := range order {
		g := groups[name]
		g.WinRate = round(float64(g.Wins)/float64(g.Total)*100, 0)
		g.TotalPnL = round(g.TotalPnL, 2)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WinRate > out[j].WinRate })
	return out
}

// EquityPoint is the cumulative P&L after the Nth closed trade.
type EquityPoint struct {
	Trade  int     `json:"trade"`
	Equity float64 `json:"equity"`
}

// EquityCurve accumulates P&L over the eligible trades in input order.
func EquityCurve(trades []models.Trade) []EquityPoint {
	results := closedOutcomes(trades)
	out := make([]EquityPoint, 0, len(results))
	var cum float64
	for i, r := range results {
		cum += r.PnL
		out = append(out, EquityPoint{Trade: i + 1, Equity: round(cum, 2)})
	}
	return out
}

// Band is one bucket of the R-multiple histogram.
type Band struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RBandNames lists the histogram bands in their fixed order.
var RBandNames = []string{"<-2R", "-2R to -1R", "-1R to 0", "0 to 1R", "1R to 2R", "2R to 3R", "3R+"}

func rBand(r float64) int {
	switch {
	case r < -2:
		return 0
	case r < -1:
		return 1
	case r < 0:
		return 2
	case r < 1:
		return 3
	case r < 2:
		return 4
	case r < 3:
		return 5
	}
	return 6
}

// RDistribution counts eligible trades per R band. Empty bands are
// omitted; the band order never changes.
func RDistribution(trades []models.Trade) []Band {
	counts := make([]int, len(RBandNames))
	for _, r := range closedOutcomes(trades) {
		counts[rBand(r.RMultiple)]++
	}
	var out []Band
	for i, n := range counts {
		if n > 0 {
			out = append(out, Band{Name: RBandNames[i], Count: n})
		}
	}
	return out
}

// UnknownStrategy labels trades without a strategy in the ranking.
const UnknownStrategy = "Unknown"

// StrategyRanking holds the total P&L of each strategy and the extremes.
type StrategyRanking struct {
	Totals []GroupPnL `json:"totals"`
	Best   string     `json:"best"`
	Worst  string     `json:"worst"`
}

// GroupPnL is the summed dollar P&L of a group.
type GroupPnL struct {
	Name     string  `json:"name"`
	Trades   int     `json:"trades"`
	TotalPnL float64 `json:"total_pnl"`
}

// RankStrategies orders strategies by total P&L, best first. Best and
// Worst are NoValue when there are no closed trades.
func RankStrategies(trades []models.Trade) StrategyRanking {
	var order []string
	groups := make(map[string]*GroupPnL)
	for _, r := range closedOutcomes(trades) {
		name := r.trade.Strategy
		if name == "" {
			name = UnknownStrategy
		}
		g, ok := groups[name]
		if !ok {
			g = &GroupPnL{Name: name}
			groups[name] = g
			order = append(order, name)
		}
		g.Trades++
		g.TotalPnL += r.PnL
	}

	ranking := StrategyRanking{Best: NoValue, Worst: NoValue}
	for _, name := range order {
		g := groups[name]
		g.TotalPnL = round(g.TotalPnL, 2)
		ranking.Totals = append(ranking.Totals, *g)
	}
	sort.SliceStable(ranking.Totals, func(i, j int) bool {
		return ranking.Totals[i].TotalPnL > ranking.Totals[j].TotalPnL
	})
	if n := len(ranking.Totals); n > 0 {
		ranking.Best = ranking.Totals[0].Name
		// ties resolve to the first strategy in ranked order
		worst := ranking.Totals[n-1].TotalPnL
		for _, g := range ranking.Totals {
			if g.TotalPnL == worst {
				ranking.Worst = g.Name
				break
			}
		}
	}
	return ranking
}
