package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pair string
		want float64
	}{
		{"EURUSD", 10000},
		{"USDJPY", 100},
		{"gbpjpy", 100},
		{"XAUUSD", 10},
		{"US30", 10000},
		{"", 10000},
		{"???", 10000},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PipMultiplier(tc.pair), tc.pair)
	}
}

func TestClassOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ClassFX, ClassOf("EURUSD"))
	assert.Equal(t, ClassJPY, ClassOf("EURJPY"))
	assert.Equal(t, ClassMetal, ClassOf("XAUUSD"))
	assert.Equal(t, ClassIndex, ClassOf("NAS100"))
	assert.Equal(t, ClassIndex, ClassOf("spx500"))
	assert.Equal(t, "index", ClassIndex.String())
}

func TestPriceDistanceToPips(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 50.0, PriceDistanceToPips("EURUSD", 1.09000, 1.08500), 1e-9)
	assert.InDelta(t, -50.0, PriceDistanceToPips("EURUSD", 1.08500, 1.09000), 1e-9)
	assert.InDelta(t, 25.0, PriceDistanceToPips("USDJPY", 150.25, 150.00), 1e-9)
	assert.InDelta(t, 50.0, PriceDistanceToPips("XAUUSD", 2030, 2025), 1e-9)
	assert.Equal(t, 0.0, PriceDistanceToPips("EURUSD", math.NaN(), 1))
}

func TestPipsToDollarValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pair string
		pips float64
		lots float64
		want float64
	}{
		{"fx standard lot", "EURUSD", 50, 1, 500},
		{"fx mini lot", "GBPUSD", 20, 0.1, 20},
		{"jpy", "USDJPY", 10, 0.5, 50},
		{"gold", "XAUUSD", 50, 0.2, 100},
		{"index points", "US30", 1000000, 2, 200},
		{"zero pips", "EURUSD", 0, 1, 0},
		{"zero lots", "EURUSD", 10, 0, 0},
		{"non-finite", "EURUSD", math.Inf(1), 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PipsToDollarValue(tc.pair, tc.pips, tc.lots), 1e-9)
		})
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.3, round(1.25, 1))
	assert.Equal(t, -2.0, round(-2.5, 0))
	assert.Equal(t, 3.0, round(2.5, 0))
	assert.Equal(t, 0.0, round(math.NaN(), 2))
	assert.False(t, math.Signbit(round(-0.001, 2)))
	assert.Equal(t, 1e305, round(1e305, 5))
	assert.Equal(t, -1e305, round(-1e305, 5))
	assert.Equal(t, 1e305, Equilibrium(1e305, 1e305))
}
