// Package amount converts between the shop's comma-decimal notation ("12,50")
// and exact decimal values.
package amount

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned by ParseAmount for malformed input.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	// digits, optionally followed by a single comma and more digits
	quantityPattern = regexp.MustCompile(`^[0-9]+(,[0-9]+)?$`)
	// catalog prices: comma or dot, at most two fractional digits
	pricePattern = regexp.MustCompile(`^[0-9]+([,.][0-9]{1,2})?$`)
)

// ParseQuantity parses a customer supplied quantity. Surrounding whitespace is
// ignored; anything other than "digits[,digits]" is rejected.
func ParseQuantity(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if !quantityPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders d with exactly two fractional digits and a comma
// separator, rounding half away from zero (12.5 -> "12,50").
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// ParseAmount parses a trusted catalog price such as "4,50" or "4.50".
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if !pricePattern.MatchString(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatInteger renders the integer part of d without a fractional portion.
func FormatInteger(d decimal.Decimal) string {
	return d.Truncate(0).StringFixed(0)
}
