package provider

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyExponent is the number of minor-unit digits per currency. CLP has none.
var currencyExponent = map[string]int32{
	"CLP": 0,
	"ARS": 2,
	"USD": 2,
	"UYU": 2,
}

// MajorUnits renders an amount held in minor units as the decimal number the
// gateways expect on the wire.
func MajorUnits(minor int64, currency string) json.Number {
	exp, ok := currencyExponent[strings.ToUpper(currency)]
	if !ok {
		exp = 0
	}
	return json.Number(decimal.New(minor, -exp).StringFixed(exp))
}

// MajorUnitsFloat is MajorUnits for SDKs that take float64 prices.
func MajorUnitsFloat(minor int64, currency string) float64 {
	exp := currencyExponent[strings.ToUpper(currency)]
	f, _ := decimal.New(minor, -exp).Float64()
	return f
}

// MinorUnits converts a gateway amount in major units back to minor units,
// rounding half away from zero.
func MinorUnits(major float64, currency string) int64 {
	exp := currencyExponent[strings.ToUpper(currency)]
	return decimal.NewFromFloat(major).Shift(exp).Round(0).IntPart()
}

// DecimalText renders a float amount without binary noise ("27500", "12.5").
func DecimalText(v float64) string {
	return decimal.NewFromFloat(v).String()
}
