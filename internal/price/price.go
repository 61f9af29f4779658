// Package price normalizes the price and discount texts shown on listing pages.
package price

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice returns the numeric value of a listing price such as "EGP 1,299.00".
// For a range "EGP 450 - EGP 600" only the low bound is used. Text that does
// not hold a number yields 0.
func ParsePrice(text string) float64 {
	if low, _, found := strings.Cut(text, "-"); found {
		text = low
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r), r == '.':
			return r
		default:
			// currency markers, thousands separators and whitespace
			return -1
		}
	}, text)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParsePercentage returns the integer of a discount badge such as "35%" or "-35%".
// Unparsable text yields 0.
func ParsePercentage(text string) int {
	text = strings.TrimSpace(strings.ReplaceAll(text, "%", ""))
	text = strings.TrimSpace(strings.TrimPrefix(text, "-"))

	v, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return v
}
