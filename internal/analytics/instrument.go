// Package analytics derives trade outcomes and performance statistics from
// journal records. Every function is pure: inputs are never mutated and
// degenerate numeric input yields a neutral value instead of an error.
package analytics

import (
	"math"
	"strings"
)

// InstrumentClass groups symbols that share a pip scale and pip value.
type InstrumentClass int

const (
	ClassFX InstrumentClass = iota
	ClassJPY
	ClassMetal
	ClassIndex
)

func (c InstrumentClass) String() string {
	switch c {
	case ClassJPY:
		return "jpy"
	case ClassMetal:
		return "metal"
	case ClassIndex:
		return "index"
	}
	return "fx"
}

var indexSymbols = []string{"US30", "NAS100", "SPX500", "US100", "US500", "GER40", "UK100"}

// ClassOf classifies a symbol by substring match. Unknown symbols are FX.
func ClassOf(pair string) InstrumentClass {
	sym := strings.ToUpper(strings.TrimSpace(pair))
	switch {
	case strings.Contains(sym, "JPY"):
		return ClassJPY
	case strings.Contains(sym, "XAU"):
		return ClassMetal
	}
	for _, idx := range indexSymbols {
		if strings.Contains(sym, idx) {
			return ClassIndex
		}
	}
	return ClassFX
}

// PipMultiplier is the factor that turns a price distance into pips.
func PipMultiplier(pair string) float64 {
	switch ClassOf(pair) {
	case ClassJPY:
		return 100
	case ClassMetal:
		return 10
	}
	return 10000
}

// PipValuePerLot is the account-currency value of one pip on one
// standard lot. Indices are quoted lot-size-direct, so it is not used for
// them.
func PipValuePerLot(pair string) float64 {
	switch ClassOf(pair) {
	case ClassIndex:
		return 0
	}
	return 10
}

// PriceDistanceToPips converts a-b into pips, rounded to one decimal.
func PriceDistanceToPips(pair string, a, b float64) float64 {
	return round((a-b)*PipMultiplier(pair), 1)
}

// PipsToDollarValue converts a pip count on lotSize lots into dollars.
// For indices the pips are taken back to price points and valued at one
// dollar per point per lot.
func PipsToDollarValue(pair string, pips, lotSize float64) float64 {
	if !finite(pips, lotSize) || pips == 0 || lotSize == 0 {
		return 0
	}
	if ClassOf(pair) == ClassIndex {
		return round(pips/PipMultiplier(pair)*lotSize, 2)
	}
	return round(pips*lotSize*PipValuePerLot(pair), 2)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func abs(x float64) float64 { return math.Abs(x) }
