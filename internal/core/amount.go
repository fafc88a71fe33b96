// Package core provides the snapshot data model shared by the scraper
// pipeline, together with the monetary amount and currency normalizers.
//
// This file contains the amount parser. Scraped balances arrive as free-form
// strings ("$ 1.234,56", "US$ 100,00", "1,234.56") whose thousands/decimal
// separators depend on the locale of the originating site.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount pairs the scraped string with its parsed numeric value.
// Raw is preserved verbatim; Number is nil when parsing failed.
// Values are never mutated after construction.
type Amount struct {
	Raw    *string  `json:"raw"`
	Number *float64 `json:"number"`
}

var digitRun = regexp.MustCompile(`[\d.,]+`)

// ParseAmount parses a monetary string into an Amount.
//
// The first contiguous run of digits, dots and commas is extracted, ignoring
// surrounding currency symbols or words. When both separators are present,
// whichever appears last is the decimal separator and the other is stripped
// as a thousands separator. A lone comma is treated as the decimal separator
// (the Uruguayan convention); a lone dot is used as-is.
//
// Parsing never fails hard: unparsable input yields a nil Number with Raw
// preserved unchanged.
func ParseAmount(raw string) Amount {
	out := Amount{Raw: &raw}

	s := strings.TrimSpace(raw)
	if s == "" {
		return out
	}

	num := digitRun.FindString(s)
	if num == "" {
		return out
	}

	hasComma := strings.Contains(num, ",")
	hasDot := strings.Contains(num, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(num, ",") > strings.LastIndex(num, ".") {
			// 1.234,56 style: dot groups thousands
			num = strings.ReplaceAll(num, ".", "")
			num = strings.ReplaceAll(num, ",", ".")
		} else {
			// 1,234.56 style: comma groups thousands
			num = strings.ReplaceAll(num, ",", "")
		}
	case hasComma:
		num = strings.ReplaceAll(num, ",", ".")
	}

	d, err := decimal.NewFromString(num)
	if err != nil {
		return out
	}
	f, _ := d.Float64()
	out.Number = &f
	return out
}

// NoAmount returns the empty amount used when a value does not apply, for
// example the available balance of a consumption entry in a currency that
// does not match the card's overall available currency.
func NoAmount() Amount {
	return Amount{}
}
