package money

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MoneyRegex matches a dollar amount and the whole word following it,
// ex. "$1.5B", "$ 950M", "$12,345.67", "$2.1Bn". Keeping the full word means
// a suffix Parse does not know ("Bn", "Billion") fails to parse instead of
// being read as units.
var MoneyRegex = regexp.MustCompile(`\$\s?\d[\d,.]*(?:\s?[A-Za-z]+)?`)

// PercentRegex matches a signed percentage, ex. "-1.25%", "+3 %".
var PercentRegex = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?\s?%`)

var multipliers = map[byte]float64{
	'T': 1e12,
	'B': 1e9,
	'M': 1e6,
	'K': 1e3,
}

// Parse converts a monetary string ("$1.23B") into a number.
// ok is false when the input is empty or does not form a number once the
// currency symbol, thousands separators and magnitude suffix are removed.
func Parse(raw string) (value float64, ok bool) {
	if raw == "" {
		return 0, false
	}

	clean := strings.ReplaceAll(raw, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ToUpper(strings.TrimSpace(clean))
	if clean == "" {
		return 0, false
	}

	multiplier := 1.0
	if m, isSuffix := multipliers[clean[len(clean)-1]]; isSuffix {
		multiplier = m
		clean = strings.TrimSpace(clean[:len(clean)-1])
	}

	parsed, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	value = parsed * multiplier
	if math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// FindMoney returns the first monetary substring in text, or "" if there is none.
func FindMoney(text string) string {
	return strings.TrimRight(MoneyRegex.FindString(text), ".,")
}

// FindPercent returns the first percentage substring in text, or "" if there is none.
// Percentages are kept as display text.
func FindPercent(text string) string {
	return PercentRegex.FindString(text)
}
