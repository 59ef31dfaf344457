package analytics

import "tradevault/internal/models"

// NoValue stands in for values that are not available, such as holding
// time which the journal does not track.
const NoValue = "—"

// Stats summarises a set of closed trades.
type Stats struct {
	TotalTrades       int     `json:"total_trades"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	WinRate           float64 `json:"win_rate"`
	AvgRMultiple      float64 `json:"avg_r_multiple"`
	TotalPnL          float64 `json:"total_pnl"`
	BestTrade         float64 `json:"best_trade"`
	WorstTrade        float64 `json:"worst_trade"`
	AvgWin            float64 `json:"avg_win"`
	AvgLoss           float64 `json:"avg_loss"`
	ProfitFactor      float64 `json:"profit_factor"`
	Expectancy        float64 `json:"expectancy"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	ConsecutiveWins   int     `json:"consecutive_wins"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	AvgHoldingTime    string  `json:"avg_holding_time"`
}

// tally is the reducer shared by statistics and period summaries.
type tally struct {
	total   int
	wins    int
	losses  int
	sumR    float64
	sumPnL  float64
	winSum  float64
	lossSum float64
	best    float64
	worst   float64
}

func (t *tally) add(o Outcome) {
	if t.total == 0 || o.PnL > t.best {
		t.best = o.PnL
	}
	if t.total == 0 || o.PnL < t.worst {
		t.worst = o.PnL
	}
	t.total++
	t.sumR += o.RMultiple
	t.sumPnL += o.PnL
	switch {
	case o.PnL > 0:
		t.wins++
		t.winSum += o.PnL
	case o.PnL < 0:
		t.losses++
		t.lossSum += o.PnL
	}
}

func (t *tally) winRate() float64 {
	if t.total == 0 {
		return 0
	}
	return round(float64(t.wins)/float64(t.total)*100, 0)
}

func (t *tally) avgR() float64 {
	if t.total == 0 {
		return 0
	}
	return round(t.sumR/float64(t.total), 2)
}

func (t *tally) avgWin() float64 {
	if t.wins == 0 {
		return 0
	}
	return t.winSum / float64(t.wins)
}

func (t *tally) avgLoss() float64 {
	if t.losses == 0 {
		return 0
	}
	return abs(t.lossSum) / float64(t.losses)
}

// profitFactor reports the raw win total when there are no losses.
func (t *tally) profitFactor() float64 {
	if t.lossSum == 0 {
		return round(t.winSum, 2)
	}
	return round(t.winSum/abs(t.lossSum), 2)
}

// ComputeStats reduces the eligible trades, in the given order, into a
// Stats record. Open trades and trades without an exit are ignored.
func ComputeStats(trades []models.Trade) Stats {
	return statsOf(closedOutcomes(trades))
}

func statsOf(results []evaluated) Stats {
	s := Stats{AvgHoldingTime: NoValue}
	if len(results) == 0 {
		return s
	}

	var (
		t          tally
		curW, curL int
		cum, peak  float64
		maxDD      float64
	)
	for _, r := range results {
		t.add(r.Outcome)

		switch {
		case r.PnL > 0:
			curW++
			curL = 0
		case r.PnL < 0:
			curL++
			curW = 0
		default:
			curW, curL = 0, 0
		}
		s.ConsecutiveWins = max(s.ConsecutiveWins, curW)
		s.ConsecutiveLosses = max(s.ConsecutiveLosses, curL)

		cum += r.PnL
		peak = max(peak, cum)
		maxDD = max(maxDD, peak-cum)
	}

	winRate := t.winRate()
	s.TotalTrades = t.total
	s.Wins = t.wins
	s.Losses = t.losses
	s.WinRate = winRate
	s.AvgRMultiple = t.avgR()
	s.TotalPnL = round(t.sumPnL, 2)
	s.BestTrade = round(t.best, 2)
	s.WorstTrade = round(t.worst, 2)
	s.AvgWin = round(t.avgWin(), 2)
	s.AvgLoss = round(t.avgLoss(), 2)
	s.ProfitFactor = t.profitFactor()
	s.Expectancy = round(winRate/100*t.avgWin()-(1-winRate/100)*t.avgLoss(), 2)
	s.MaxDrawdown = round(maxDD, 2)
	return s
}
