// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"AUD": "A$",
	"CAD": "C$",
}

// CurrencySymbol returns the display prefix of an ISO currency code.
// Unknown codes are rendered as "CODE ".
func CurrencySymbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	if code == "" {
		return "$"
	}
	return code + " "
}

// FormatMoney formats an amount with thousands separators and the
// currency symbol, e.g. -$1,234.50.
func FormatMoney(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := CurrencySymbol(currency) + groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats a P&L amount with an explicit sign.
func FormatPnL(pnl float64, currency string) string {
	if pnl > 0 {
		return "+" + FormatMoney(pnl, currency)
	}
	return FormatMoney(pnl, currency)
}

// FormatR formats an R-multiple, e.g. +2.50R.
func FormatR(r float64) string {
	if r > 0 {
		return fmt.Sprintf("+%.2fR", r)
	}
	return fmt.Sprintf("%.2fR", r)
}

// FormatPips formats a pip count with one decimal and a sign.
func FormatPips(pips float64) string {
	if pips > 0 {
		return fmt.Sprintf("+%.1f", pips)
	}
	return fmt.Sprintf("%.1f", pips)
}

// FormatCompact formats large amounts as 1.2K / 3.4M.
func FormatCompact(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", amount/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", amount/1e3)
	}
	return fmt.Sprintf("%.2f", amount)
}
