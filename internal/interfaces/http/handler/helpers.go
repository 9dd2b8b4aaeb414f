package handler

import "github.com/shopspring/decimal"

// toDecimal converts a bound float64 request field to a decimal.Decimal.
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// toDecimalPtr converts an optional float64 request field to a *decimal.Decimal.
func toDecimalPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
