package core

import "strings"

// CurrencyFormat selects the output convention of NormalizeCurrency.
type CurrencyFormat string

const (
	// CurrencySymbol yields display symbols: $, U$S, €.
	CurrencySymbol CurrencyFormat = "symbol"
	// CurrencyCode yields lower-case ISO-style codes: uyu, usd, eur.
	CurrencyCode CurrencyFormat = "code"
)

// currencyTokens maps each supported currency to the label fragments the
// banks use for it. Order matters: "$" alone means pesos, but it also occurs
// inside the dollar tokens, so the dollar set must be checked first.
var currencyTokens = []struct {
	tokens []string
	symbol string
	code   string
}{
	{[]string{"USD", "U$S", "US$", "DÓLARES", "DOLARES"}, "U$S", "usd"},
	{[]string{"UYU", "$", "PESOS"}, "$", "uyu"},
	{[]string{"EUR", "€", "EUROS"}, "€", "eur"},
}

// NormalizeCurrency maps a free-form currency label to a canonical symbol or
// code. Matching is case-insensitive substring matching against the known
// token sets. Empty input defaults to Uruguayan pesos, the most common
// currency across the supported banks; unmatched non-empty input is returned
// unchanged (lower-cased for the code format). Already-canonical values map
// to themselves.
func NormalizeCurrency(raw string, format CurrencyFormat) string {
	s := strings.ToUpper(strings.TrimSpace(raw))

	for _, c := range currencyTokens {
		for _, tok := range c.tokens {
			if strings.Contains(s, tok) {
				if format == CurrencyCode {
					return c.code
				}
				return c.symbol
			}
		}
	}

	if s == "" {
		if format == CurrencyCode {
			return "uyu"
		}
		return "$"
	}

	if format == CurrencyCode {
		return strings.ToLower(raw)
	}
	return raw
}
