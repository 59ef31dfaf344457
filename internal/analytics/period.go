package analytics

import (
	"sort"
	"time"

	"tradevault/internal/models"
)

// Granularity selects the calendar bucket of a period summary.
type Granularity string

const (
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

// ParseGranularity accepts week/weekly and month/monthly.
func ParseGranularity(s string) (Granularity, bool) {
	switch s {
	case "week", "weekly":
		return Weekly, true
	case "month", "monthly":
		return Monthly, true
	}
	return "", false
}

// PeriodSummary aggregates the closed trades of one week or month.
type PeriodSummary struct {
	Period      string  `json:"period"`
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	AvgR        float64 `json:"avg_r"`
	BestTrade   float64 `json:"best_trade"`
	WorstTrade  float64 `json:"worst_trade"`
}

// WeekStart returns the Monday of d's ISO week.
func WeekStart(d models.Date) models.Date {
	t := d.Time()
	offset := (int(t.Weekday()) + 6) % 7
	return models.DateOf(t.AddDate(0, 0, -offset))
}

// PeriodKey returns the bucket key of d: the week's Monday as yyyy-mm-dd,
// or yyyy-mm.
func PeriodKey(d models.Date, g Granularity) string {
	if g == Monthly {
		return d.Time().Format("2006-01")
	}
	return WeekStart(d).Time().Format(models.DateLayout)
}

// PeriodRange returns the first and last calendar day of a bucket.
func PeriodRange(key string, g Granularity) (models.Date, models.Date, bool) {
	if g == Monthly {
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return models.Date{}, models.Date{}, false
		}
		return models.DateOf(t), models.DateOf(t.AddDate(0, 1, -1)), true
	}
	start, err := models.ParseDate(key)
	if err != nil {
		return models.Date{}, models.Date{}, false
	}
	return start, models.DateOf(start.Time().AddDate(0, 0, 6)), true
}

// SummarizePeriods groups the eligible trades by week or month, most
// recent period first. Trades without a date are skipped.
func SummarizePeriods(trades []models.Trade, g Granularity) []PeriodSummary {
	groups := make(map[string]*tally)
	for _, r := range closedOutcomes(trades) {
		if r.trade.Date.IsZero() {
			continue
		}
		key := PeriodKey(r.trade.Date, g)
		t, ok := groups[key]
		if !ok {
			t = &tally{}
			groups[key] = t
		}
		t.add(r.Outcome)
	}

	out := make([]PeriodSummary, 0, len(groups))
	for key, t := range groups {
		out = append(out, PeriodSummary{
			Period:      key,
			TotalTrades: t.total,
			Wins:        t.wins,
			Losses:      t.losses,
			WinRate:     t.winRate(),
			TotalPnL:    round(t.sumPnL, 2),
			AvgR:        t.avgR(),
			BestTrade:   round(t.best, 2),
			WorstTrade:  round(t.worst, 2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out
}
