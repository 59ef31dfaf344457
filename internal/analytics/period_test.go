package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevault/internal/models"
)

func dated(r float64, y, m, d int) models.Trade {
	t := closedTrade(r)
	t.Date = models.NewDate(y, time.Month(m), d)
	return t
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	monday := models.NewDate(2025, 1, 13)
	assert.Equal(t, monday, WeekStart(models.NewDate(2025, 1, 13)))
	assert.Equal(t, monday, WeekStart(models.NewDate(2025, 1, 16)))
	assert.Equal(t, monday, WeekStart(models.NewDate(2025, 1, 19)))
	assert.Equal(t, models.NewDate(2024, 12, 30), WeekStart(models.NewDate(2025, 1, 1)))
}

func TestSummarizePeriods_SameWeek(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		dated(2, 2025, 1, 13),
		dated(-1, 2025, 1, 19),
		dated(1, 2025, 1, 20),
	}

	weeks := SummarizePeriods(trades, Weekly)
	require.Len(t, weeks, 2)
	assert.Equal(t, "2025-01-20", weeks[0].Period)
	assert.Equal(t, "2025-01-13", weeks[1].Period)
	assert.Equal(t, 2, weeks[1].TotalTrades)
	assert.Equal(t, 100.0, weeks[1].TotalPnL)
	assert.Equal(t, 50.0, weeks[1].WinRate)
	assert.Equal(t, 0.5, weeks[1].AvgR)
	assert.Equal(t, 200.0, weeks[1].BestTrade)
	assert.Equal(t, -100.0, weeks[1].WorstTrade)
}

func TestSummarizePeriods_Monthly(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		dated(1, 2024, 12, 31),
		dated(1, 2025, 2, 3),
		dated(-1, 2025, 2, 27),
		openTrade(),
	}

	months := SummarizePeriods(trades, Monthly)
	require.Len(t, months, 2)
	assert.Equal(t, "2025-02", months[0].Period)
	assert.Equal(t, 2, months[0].TotalTrades)
	assert.Equal(t, 0.0, months[0].TotalPnL)
	assert.Equal(t, "2024-12", months[1].Period)
}

func TestSummarizePeriods_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, SummarizePeriods(nil, Weekly))
}

func TestPeriodRange(t *testing.T) {
	t.Parallel()

	from, to, ok := PeriodRange("2025-02", Monthly)
	require.True(t, ok)
	assert.Equal(t, "2025-02-01", from.String())
	assert.Equal(t, "2025-02-28", to.String())

	from, to, ok = PeriodRange("2025-01-13", Weekly)
	require.True(t, ok)
	assert.Equal(t, "2025-01-13", from.String())
	assert.Equal(t, "2025-01-19", to.String())

	_, _, ok = PeriodRange("nope", Weekly)
	assert.False(t, ok)
}

func TestParseGranularity(t *testing.T) {
	t.Parallel()

	g, ok := ParseGranularity("weekly")
	assert.True(t, ok)
	assert.Equal(t, Weekly, g)
	_, ok = ParseGranularity("year")
	assert.False(t, ok)
}
