package rates

// fallbackRates is the static rate table used when no live refresh has
// succeeded. Values are units of the currency per 1 CHF, matching the
// provider contract. The table is intentionally coarse: it keeps conversions
// plausible while the live provider is unreachable.
var fallbackRates = map[string]float64{
	"CHF": 1.0,
	"EUR": 1.06,
	"USD": 1.13,
	"GBP": 0.89,
	"JPY": 170.0,
	"CNY": 8.10,
	"SEK": 11.85,
	"NOK": 12.10,
	"DKK": 7.90,
	"PLN": 4.55,
	"CZK": 26.30,
	"HUF": 415.0,
	"AUD": 1.72,
	"CAD": 1.55,
	"SGD": 1.51,
	"HKD": 8.80,
	"NZD": 1.88,
	"INR": 95.0,
	"ZAR": 20.40,
	"TRY": 36.50,
}

// FallbackRates returns a copy of the static rate table.
func FallbackRates() map[string]float64 {
	cp := make(map[string]float64, len(fallbackRates))
	for code, rate := range fallbackRates {
		cp[code] = rate
	}
	return cp
}
