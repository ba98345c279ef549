package advisor

import (
	"strings"
)

var knownAssets = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "BNB": true, "XRP": true,
	"ADA": true, "DOGE": true, "AVAX": true, "LINK": true, "DOT": true,
	"MATIC": true, "ARB": true, "OP": true, "LTC": true,
}

// ExtractSymbols scans text for mentions of known crypto assets, both bare
// ("sol") and as pairs ("SOL/USDT"). Returns deduplicated uppercase symbols
// in order of first mention.
func ExtractSymbols(text string) []string {
	upper := strings.ToUpper(text)
	words := strings.FieldsFunc(upper, func(r rune) bool {
		return !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})

	seen := make(map[string]bool)
	var result []string
	for _, w := range words {
		if knownAssets[w] && !seen[w] {
			seen[w] = true
			result = append(result, w)
		}
	}
	return result
}

// BaseAsset returns the base symbol of a pair such as "ETH/USDT".
func BaseAsset(pair string) string {
	base, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(pair)), "/")
	return base
}
