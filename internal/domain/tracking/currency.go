package tracking

import (
	"strings"

	"golang.org/x/text/currency"
)

// DefaultCurrency is used when the caller supplies no currency token at all
const DefaultCurrency = "USD"

// currencySymbols maps free-form currency tokens (symbols and common
// locale spellings) to canonical ISO-4217 codes. Codes themselves are
// resolved through x/text/currency, so only non-code tokens live here.
var currencySymbols = map[string]string{
	"$":      "USD",
	"us$":    "USD",
	"€":      "EUR",
	"£":      "GBP",
	"¥":      "JPY",
	"元":      "CNY",
	"￥":      "CNY",
	"₹":      "INR",
	"₩":      "KRW",
	"₺":      "TRY",
	"₽":      "RUB",
	"r$":     "BRL",
	"a$":     "AUD",
	"ca$":    "CAD",
	"nz$":    "NZD",
	"hk$":    "HKD",
	"kr":     "SEK",
	"zł":     "PLN",
	"kč":     "CZK",
	"fr":     "CHF",
	"dollar": "USD",
	"euro":   "EUR",
	"pound":  "GBP",
	"yen":    "JPY",
	"yuan":   "CNY",
	"rmb":    "CNY",
}

// NormalizeCurrency maps a free-form currency token to a canonical
// 3-letter ISO-4217 code. Unrecognized tokens are upper-cased and
// truncated to 3 characters as a last resort; this never fails, because
// a dropped conversion is worse for attribution than a mislabeled one.
func NormalizeCurrency(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return DefaultCurrency
	}

	if code, ok := currencySymbols[strings.ToLower(token)]; ok {
		return code
	}

	// Real ISO codes in any case pass through x/text untouched
	if unit, err := currency.ParseISO(token); err == nil {
		return unit.String()
	}

	upper := strings.ToUpper(token)
	runes := []rune(upper)
	if len(runes) > 3 {
		return string(runes[:3])
	}
	return upper
}
