package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"tradevault/internal/models"
)

// FormatPrice formats a price with enough decimals for FX quotes.
func FormatPrice(price float64) string {
	if price == 0 {
		return "-"
	}
	if price >= 100 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.5f", price)
}

// FormatOptPrice formats an optional price.
func FormatOptPrice(price *float64) string {
	if price == nil {
		return "-"
	}
	return FormatPrice(*price)
}

// FormatDate formats a calendar date using layout, "-" when unset.
func FormatDate(d models.Date, layout string) string {
	if d.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = models.DateLayout
	}
	return d.Time().Format(layout)
}

// FormatWinRate formats a whole-number win rate.
func FormatWinRate(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate)
}

// FormatRiskReward formats a risk-reward ratio.
func FormatRiskReward(rr float64) string {
	return fmt.Sprintf("1:%.2f", rr)
}

// FormatList joins tags for display.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// orDash renders empty strings as "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// ParseTriState reads yes/no style flag values; "" is unknown.
func ParseTriState(s string) (models.TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return models.TriUnknown, nil
	case "y", "yes":
		return models.TriYes, nil
	case "n", "no":
		return models.TriNo, nil
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return models.TriUnknown, fmt.Errorf("expected yes or no, got %q", s)
	}
	return models.TriStateOf(&b), nil
}

// parseAmount reads a money amount, tolerating "$" and thousands separators.
func parseAmount(s string) (float64, error) {
	clean := strings.NewReplacer(",", "", "$", "", "_", "").Replace(strings.TrimSpace(s))
	v, err := cast.ToFloat64E(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
