// Package report renders assessments for people: formatted figures, a
// plain-text summary, XLSX export and batch input parsing.
package report

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency formats amount as whole US dollars with digit grouping,
// e.g. "$1,250,000" or "-$40,000".
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0"
	}
	if math.Abs(amount) >= math.MaxInt64 {
		sign := ""
		if amount < 0 {
			sign = "-"
		}
		return sign + "$" + printer.Sprint(number.Decimal(math.Abs(amount), number.MaxFractionDigits(0)))
	}
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return printer.Sprintf("-$%d", -rounded)
	}
	return printer.Sprintf("$%d", rounded)
}

// FormatCompact formats amount for narrow table columns, e.g. "$1.3M".
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1_000_000_000:
		return fmt.Sprintf("%s$%.1fB", sign, amount/1_000_000_000)
	case amount >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%s$%.0fK", sign, amount/1_000)
	default:
		return fmt.Sprintf("%s$%.0f", sign, amount)
	}
}

// FormatMultiple formats an EBITDA multiple, e.g. "4.2x".
func FormatMultiple(m float64) string {
	return fmt.Sprintf("%.1fx", m)
}

// FormatScore formats an overall score out of 100.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.0f/100", score)
}
