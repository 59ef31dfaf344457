package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{0, "USD", "$0.00"},
		{999.5, "USD", "$999.50"},
		{1234.5, "USD", "$1,234.50"},
		{-1234567.891, "EUR", "-€1,234,567.89"},
		{100, "CHF", "CHF 100.00"},
		{12, "", "$12.00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatMoney(tc.amount, tc.currency))
	}
}

func TestSignedFormats(t *testing.T) {
	assert.Equal(t, "+$250.00", FormatPnL(250, "USD"))
	assert.Equal(t, "-$50.00", FormatPnL(-50, "USD"))
	assert.Equal(t, "+2.50R", FormatR(2.5))
	assert.Equal(t, "-1.00R", FormatR(-1))
	assert.Equal(t, "+50.0", FormatPips(50))
	assert.Equal(t, "+2.50%", FormatPercent(2.5))
	assert.Equal(t, "12.3K", FormatCompact(12345))
}

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("constraint failed")
	cfg := DefaultRetryConfig()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 1}

	_, err := RetryWithResult(ctx, cfg, func() (int, error) { return 0, errors.New("busy") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, CalculateBackoff(2, 100*time.Millisecond, time.Second, 2))
	assert.Equal(t, time.Second, CalculateBackoff(5, 100*time.Millisecond, time.Second, 2))
}
