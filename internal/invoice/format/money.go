package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money renders an amount with two decimals, rounding half away from zero.
// Amounts are kept exact everywhere else; this is the only place they are rounded.
func Money(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// MoneyWithCurrency prefixes the ISO currency code, e.g. "USD 216.00".
func MoneyWithCurrency(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Money(amount)
	}
	return currency + " " + Money(amount)
}
