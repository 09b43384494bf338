package utils

import "github.com/shopspring/decimal"

// Round2 rounds an amount to 2 decimal places (half away from zero).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
