package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Field limits enforced by the gateway.
const (
	LimitCity         = 100
	LimitPostcode     = 10
	LimitStreet       = 100
	LimitName         = 50
	LimitMerchantName = 40
)

// Safe trims value and cuts it to at most limit runes. A limit of 0 disables truncation.
// Values are never rejected; the gateway sees whatever fits.
func Safe(value string, limit int) string {
	value = strings.TrimSpace(value)
	if value == "" || limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}

// Numeric formats an amount with exactly two decimals, half-away-from-zero.
func Numeric(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// CountryISO3 maps an ISO 3166-1 alpha-2 code to alpha-3. Unknown codes map to "".
func CountryISO3(iso2 string) string {
	iso2 = strings.TrimSpace(iso2)
	if len(iso2) != 2 {
		return ""
	}
	region, err := language.ParseRegion(strings.ToUpper(iso2))
	if err != nil || !region.IsCountry() {
		return ""
	}
	return region.ISO3()
}
