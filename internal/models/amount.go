package models

import "github.com/shopspring/decimal"

// Money columns are decimal(20,8).
const (
	AmountScale     = 8
	AmountIntDigits = 12
)

var amountLimit = decimal.New(1, AmountIntDigits)

// ValidAmount reports whether d is positive and can be stored in a money
// column without rounding or overflow.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() &&
		d.LessThan(amountLimit) &&
		d.Equal(d.Truncate(AmountScale))
}
