package mqtt

import (
	"regexp"
	"strings"

	"github.com/rodrigocabraln/bank-scraper/internal/core"
)

// discoveryDomain is the Home Assistant discovery topic root.
const discoveryDomain = "homeassistant"

// nullPlaceholder stands in for null attribute values; Home Assistant
// attribute consumers do not handle nulls or nested objects well.
const nullPlaceholder = "---"

var nonTopicChars = regexp.MustCompile(`[^a-z0-9_]`)

// DeriveEntityID builds the stable entity identifier for an account:
// source_id, account number and normalized currency code joined and
// sanitized into MQTT-topic-legal form. Re-deriving for the same logical
// account always yields the same id, so no mapping table is needed.
func DeriveEntityID(sourceID, accountNumber, currency string) string {
	code := core.NormalizeCurrency(currency, core.CurrencyCode)
	id := strings.ToLower(sourceID + "_" + accountNumber + "_" + code)
	id = strings.NewReplacer(" ", "_", "(", "", ")", "", "-", "_").Replace(id)
	id = nonTopicChars.ReplaceAllString(id, "")
	return collapseDuplicateTokens(id)
}

// collapseDuplicateTokens removes consecutive repeated "_"-separated tokens:
// a source whose name already embeds the account-group name must not repeat
// it in the final id ("oca_oca_blue" -> "oca_blue").
func collapseDuplicateTokens(s string) string {
	if s == "" {
		return s
	}
	parts := strings.Split(s, "_")
	out := parts[:1]
	for _, p := range parts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return strings.Join(out, "_")
}

// displayName turns a snake_case id into a human-readable title
// ("brou_personas" -> "Brou Personas").
func displayName(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// stateValue selects the number an account entity reports: consumption
// (balance) for credit cards, available balance for accounts. A nil number
// reports as 0.
func stateValue(acc core.AccountRecord) float64 {
	var n *float64
	if acc.Kind == core.KindCreditCard {
		n = acc.Balance.Number
	} else {
		n = acc.Available.Number
	}
	if n == nil {
		return 0
	}
	return *n
}

// flattenAccount expands the nested balance/available objects into sibling
// <field>_raw / <field>_number keys and replaces nulls with defaults.
func flattenAccount(acc core.AccountRecord) map[string]any {
	out := map[string]any{
		"type":           string(acc.Kind),
		"currency":       acc.Currency,
		"account_number": acc.AccountNumber,
	}
	if acc.Currency == "" {
		out["currency"] = nullPlaceholder
	}
	if acc.AccountNumber == "" {
		out["account_number"] = nullPlaceholder
	}
	if acc.Logo == "" {
		out["logo"] = nullPlaceholder
	} else {
		out["logo"] = acc.Logo
	}
	flattenAmount(out, "balance", acc.Balance)
	flattenAmount(out, "available", acc.Available)
	return out
}

func flattenAmount(out map[string]any, field string, a core.Amount) {
	if a.Raw == nil {
		out[field+"_raw"] = nullPlaceholder
	} else {
		out[field+"_raw"] = *a.Raw
	}
	if a.Number == nil {
		out[field+"_number"] = 0
	} else {
		out[field+"_number"] = *a.Number
	}
}

// deviceInfo is the discovery device block linking all of a bank's entities
// under one device in the hub UI.
func deviceInfo(sourceID string) map[string]any {
	return map[string]any{
		"identifiers":  []string{"bank_" + sourceID},
		"name":         displayName(sourceID),
		"manufacturer": "Bank Scraper",
	}
}
