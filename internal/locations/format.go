package locations

import (
	"fmt"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

const (
	milesToKm = 1.60934
	kmToMiles = 0.621371
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"DKK": "kr",
	"GBP": "£",
	"CAD": "$",
	"AUD": "$",
	"NZD": "$",
	"SEK": "kr",
	"NOK": "kr",
	"CHF": "CHF",
	"PLN": "zł",
	"CZK": "Kč",
	"HUF": "Ft",
	"RON": "lei",
	"BGN": "лв",
	"HRK": "kn",
	"RSD": "дин",
	"BAM": "KM",
}

// KmToMiles converts kilometres to miles.
func KmToMiles(km float64) float64 {
	return km * kmToMiles
}

// MilesToKm converts miles to kilometres.
func MilesToKm(miles float64) float64 {
	return miles * milesToKm
}

// CurrencySymbol returns the display symbol for a currency code, or the code
// itself when no symbol is known.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}

// FormatCurrency renders a whole-unit amount with its symbol. Nordic
// currencies place the symbol after the amount.
func FormatCurrency(amount float64, code string) string {
	symbol := CurrencySymbol(code)
	formatted := fmt.Sprintf("%.0f", amount)

	switch code {
	case "DKK", "SEK", "NOK":
		return formatted + " " + symbol
	default:
		return symbol + formatted
	}
}

// DistanceUnit is the label used for weekly distances.
func DistanceUnit(system models.UnitSystem) string {
	if system == models.UnitMetric {
		return "km"
	}
	return "miles"
}

// DistancePlaceholder is the suggested weekly driving distance.
func DistancePlaceholder(system models.UnitSystem) float64 {
	if system == models.UnitMetric {
		return 200
	}
	return 300
}
