package core

import "testing"

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		in     string
		format CurrencyFormat
		want   string
	}{
		{"USD", CurrencyCode, "usd"},
		{"USD", CurrencySymbol, "U$S"},
		{"U$S", CurrencyCode, "usd"},
		{"US$", CurrencySymbol, "U$S"},
		{"Dólares", CurrencySymbol, "U$S"},
		{"dolares", CurrencyCode, "usd"},
		{"UYU", CurrencyCode, "uyu"},
		{"$", CurrencySymbol, "$"},
		{"Pesos", CurrencyCode, "uyu"},
		{"EUR", CurrencyCode, "eur"},
		{"€", CurrencySymbol, "€"},
		{"Euros", CurrencyCode, "eur"},
		{"", CurrencyCode, "uyu"},
		{"", CurrencySymbol, "$"},
		{"GBP", CurrencyCode, "gbp"},
		{"GBP", CurrencySymbol, "GBP"},
	}
	for _, tc := range cases {
		if got := NormalizeCurrency(tc.in, tc.format); got != tc.want {
			t.Fatalf("NormalizeCurrency(%q, %s) = %q, want %q", tc.in, tc.format, got, tc.want)
		}
	}
}

// Normalizing an already-canonical code must return the same code.
func TestNormalizeCurrencyIdempotent(t *testing.T) {
	for _, code := range []string{"usd", "uyu", "eur"} {
		once := NormalizeCurrency(code, CurrencyCode)
		if once != code {
			t.Fatalf("NormalizeCurrency(%q) = %q, want %q", code, once, code)
		}
		if twice := NormalizeCurrency(once, CurrencyCode); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", code, once, twice)
		}
	}
	for _, sym := range []string{"$", "U$S", "€"} {
		if got := NormalizeCurrency(sym, CurrencySymbol); got != sym {
			t.Fatalf("NormalizeCurrency(%q) = %q, want %q", sym, got, sym)
		}
	}
}
