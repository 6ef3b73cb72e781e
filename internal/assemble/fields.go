package assemble

import (
	"fmt"
	"regexp"
	"strings"
)

// TimeframePattern matches indicator field names carrying a timeframe
// suffix, e.g. "RSI|15" or "ADX+DI[1]|60". The timeframe codes are the
// fixed set the scanner supports for suffixed fields.
const TimeframePattern = `^[A-Z0-9_+\[\]]+\|(1|5|15|30|60|120|240|1D|1W)$`

// fieldSuffixRe splits any field name into base indicator and suffix code,
// regardless of whether the code is in the supported set.
var fieldSuffixRe = regexp.MustCompile(`^([A-Za-z0-9_.+\[\]]+)\|([A-Za-z0-9]+)$`)

// timeframeNames maps suffix codes to human-readable candle intervals.
var timeframeNames = map[string]string{
	"1":   "1 minute",
	"3":   "3 minutes",
	"5":   "5 minutes",
	"15":  "15 minutes",
	"30":  "30 minutes",
	"45":  "45 minutes",
	"60":  "1 hour",
	"120": "2 hours",
	"180": "3 hours",
	"240": "4 hours",
	"360": "6 hours",
	"480": "8 hours",
	"720": "12 hours",
	"1D":  "1 day",
	"1W":  "1 week",
	"1M":  "1 month",
}

// indicatorNames maps common indicator bases to their display names.
var indicatorNames = map[string]string{
	"RSI":         "Relative Strength Index (RSI)",
	"MACD.macd":   "MACD (macd line)",
	"MACD.signal": "MACD (signal line)",
	"MACD.hist":   "MACD (histogram)",
	"SMA":         "Simple Moving Average (SMA)",
	"EMA":         "Exponential Moving Average (EMA)",
	"Stoch.K":     "Stochastic Oscillator %K",
	"Stoch.D":     "Stochastic Oscillator %D",
}

// splitTimeframe splits a field name into its indicator base and timeframe
// suffix. The suffix is "" for plain (daily) fields.
func splitTimeframe(name string) (base, code string) {
	if m := fieldSuffixRe.FindStringSubmatch(name); m != nil {
		return m[1], m[2]
	}
	return name, ""
}

// describeTimeframe renders a timeframe code for field descriptions.
func describeTimeframe(code string) string {
	if code == "" {
		return "daily timeframe (1D, default)"
	}
	if name, ok := timeframeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("%s-minute timeframe", code)
}

// displayName returns the human name for an indicator base.
func displayName(base string) string {
	if name, ok := indicatorNames[base]; ok {
		return name
	}
	return base
}

// categoryPrefixes maps schema grouping categories to field-name prefixes.
var categoryPrefixes = []struct {
	category string
	prefixes []string
}{
	{"Price/Volume", []string{"close", "open", "high", "low", "volume", "value", "VWAP"}},
	{"Oscillators", []string{"RSI", "Stoch", "CCI", "UO", "W.R", "AO", "Mom", "StochRSI"}},
	{"Trend", []string{"MACD", "EMA", "SMA", "WMA", "HullMA", "Ichimoku", "DMI", "ADX"}},
	{"Pivots", []string{"Pivot"}},
	{"Fundamentals", []string{"earnings_", "dividend", "revenue_", "profit_", "price_earnings", "beta", "market_cap"}},
	{"Patterns", []string{"Candle.", "Pattern."}},
}

// categorize assigns a grouping category to a field base name, used for
// the x-category annotation.
func categorize(base string) string {
	for _, group := range categoryPrefixes {
		for _, prefix := range group.prefixes {
			if strings.HasPrefix(base, prefix) {
				return group.category
			}
		}
	}
	if strings.Contains(base, "earnings") || strings.Contains(base, "dividend") {
		return "Fundamentals"
	}
	return "Other"
}
