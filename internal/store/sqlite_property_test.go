package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tradevault/internal/models"
)

// Property: For any trade, saving it and reading it back returns the same
// prices, nullable fields and tri-state flags.
func TestProperty_TradeRoundTripConsistency(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()
	seedAccount(t, store, "acc-1")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	pairGen := gen.OneConstOf("EURUSD", "USDJPY", "XAUUSD", "US30")
	flagGen := gen.OneConstOf(models.TriUnknown, models.TriYes, models.TriNo)
	seq := 0

	properties.Property("trade round-trip: save then get returns equivalent data", prop.ForAll(
		func(pair string, entry, exit float64, hasExit bool, flag models.TriState, day int) bool {
			ctx := context.Background()
			seq++
			id := fmt.Sprintf("p%d", seq)

			tr := sampleTrade(id, "acc-1", models.DateOf(models.NewDate(2024, 1, 1).Time().AddDate(0, 0, day)))
			tr.Pair = pair
			tr.EntryPrice = roundToDecimal(entry, 5)
			tr.MSSPresent = flag
			if hasExit {
				tr.ExitPrice = models.Float(roundToDecimal(exit, 5))
				tr.Status = models.StatusClosed
			}

			if err := store.SaveTrade(ctx, &tr); err != nil {
				t.Logf("Failed to save trade: %v", err)
				return false
			}
			got, err := store.GetTrade(ctx, id)
			if err != nil {
				t.Logf("Failed to get trade: %v", err)
				return false
			}

			if got.Pair != tr.Pair || got.EntryPrice != tr.EntryPrice || got.MSSPresent != flag {
				return false
			}
			if got.Date != tr.Date {
				return false
			}
			if hasExit {
				return got.ExitPrice != nil && math.Abs(*got.ExitPrice-*tr.ExitPrice) < 1e-12
			}
			return got.ExitPrice == nil
		},
		pairGen,
		gen.Float64Range(0.5, 50000),
		gen.Float64Range(0.5, 50000),
		gen.Bool(),
		flagGen,
		gen.IntRange(0, 730),
	))

	properties.TestingRun(t)
}

func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}
