package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradevault/internal/models"
)

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

var directionGen = gen.OneConstOf(models.DirectionBuy, models.DirectionSell)

// Property: closing at the entry price is a 0R trade in either direction,
// and a stop placed on the entry never divides by zero.
func TestProperty_RMultipleDegenerateCases(t *testing.T) {
	properties := newProperties()

	properties.Property("exit at entry yields zero R", prop.ForAll(
		func(entry, stop float64, dir models.Direction) bool {
			return RMultiple(entry, entry, stop, dir) == 0
		},
		gen.Float64Range(0.5, 5000), gen.Float64Range(0.5, 5000), directionGen,
	))

	properties.Property("stop at entry yields zero R", prop.ForAll(
		func(entry, exit float64, dir models.Direction) bool {
			return RMultiple(entry, exit, entry, dir) == 0
		},
		gen.Float64Range(0.5, 5000), gen.Float64Range(0.5, 5000), directionGen,
	))

	properties.TestingRun(t)
}

// Property: dollar P&L is risk times R up to cent rounding.
func TestProperty_DollarPnLIsRiskTimesR(t *testing.T) {
	properties := newProperties()

	properties.Property("dollar pnl within half a cent of risk x R", prop.ForAll(
		func(risk, r float64) bool {
			return math.Abs(DollarPnL(risk, r)-risk*r) <= 0.005+1e-9
		},
		gen.Float64Range(0, 10000), gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

// Property: the equilibrium is symmetric and always classified EQ.
func TestProperty_EquilibriumClassification(t *testing.T) {
	properties := newProperties()

	properties.Property("equilibrium(h,l) == equilibrium(l,h)", prop.ForAll(
		func(h, l float64) bool {
			return Equilibrium(h, l) == Equilibrium(l, h)
		},
		gen.Float64Range(0.5, 5000), gen.Float64Range(0.5, 5000),
	))

	properties.Property("price at equilibrium is EQ", prop.ForAll(
		func(h, l float64) bool {
			return TradeLocationOf(Equilibrium(h, l), h, l) == models.LocationEQ
		},
		gen.Float64Range(0.5, 5000), gen.Float64Range(0.5, 5000),
	))

	properties.TestingRun(t)
}

// Property: pip value grows with pips and lot size and vanishes at zero.
func TestProperty_PipsToDollarValueMonotonic(t *testing.T) {
	properties := newProperties()
	pairs := gen.OneConstOf("EURUSD", "USDJPY", "XAUUSD", "US30", "")

	properties.Property("monotonic in pips and lots", prop.ForAll(
		func(pair string, pips, extra, lots float64) bool {
			lo := PipsToDollarValue(pair, pips, lots)
			return PipsToDollarValue(pair, pips+extra, lots) >= lo &&
				PipsToDollarValue(pair, pips, lots+extra/100) >= lo &&
				PipsToDollarValue(pair, 0, lots) == 0 &&
				PipsToDollarValue(pair, pips, 0) == 0
		},
		pairs, gen.Float64Range(0, 500), gen.Float64Range(0, 100), gen.Float64Range(0, 10),
	))

	properties.TestingRun(t)
}

// Property: drawdown is never negative, is zero for a rising equity curve,
// and streak counters match a brute-force longest run.
func TestProperty_DrawdownAndStreaks(t *testing.T) {
	properties := newProperties()
	rGen := gen.SliceOf(gen.IntRange(-3, 3))

	properties.Property("drawdown non-negative", prop.ForAll(
		func(rs []int) bool {
			return ComputeStats(closedTrades(toFloats(rs)...)).MaxDrawdown >= 0
		},
		rGen,
	))

	properties.Property("rising equity has no drawdown", prop.ForAll(
		func(rs []int) bool {
			for i := range rs {
				rs[i] = abs1(rs[i])
			}
			return ComputeStats(closedTrades(toFloats(rs)...)).MaxDrawdown == 0
		},
		rGen,
	))

	properties.Property("streaks equal longest same-sign run", prop.ForAll(
		func(rs []int) bool {
			s := ComputeStats(closedTrades(toFloats(rs)...))
			return s.ConsecutiveWins == longestRun(rs, 1) && s.ConsecutiveLosses == longestRun(rs, -1)
		},
		rGen,
	))

	properties.TestingRun(t)
}

// Property: reconciled balance equals initial plus ledger plus trade P&L.
func TestProperty_ReconcileSums(t *testing.T) {
	properties := newProperties()

	properties.Property("balance identity", prop.ForAll(
		func(initial, dep, wd float64, rs []int) bool {
			acc := models.Account{ID: "acc-1", InitialBalance: Round2(initial)}
			txs := []models.Transaction{
				{AccountID: "acc-1", Type: models.TxDeposit, Amount: Round2(dep)},
				{AccountID: "acc-1", Type: models.TxWithdrawal, Amount: Round2(wd)},
			}
			trades := closedTrades(toFloats(rs)...)
			want := Round2(Round2(initial) + Round2(dep) - Round2(wd) + ComputeStats(trades).TotalPnL)
			return math.Abs(CurrentBalance(acc, txs, trades)-want) < 0.0051
		},
		gen.Float64Range(0, 100000), gen.Float64Range(0, 5000), gen.Float64Range(0, 5000),
		gen.SliceOf(gen.IntRange(-3, 3)),
	))

	properties.TestingRun(t)
}

func toFloats(rs []int) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = float64(r)
	}
	return out
}

func abs1(v int) int {
	if v < 0 {
		return -v + 1
	}
	return v + 1
}

func longestRun(rs []int, sign int) int {
	best, cur := 0, 0
	for _, r := range rs {
		if r*sign > 0 {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}
