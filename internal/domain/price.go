package domain

import "github.com/shopspring/decimal"

var (
	// DefaultFallbackPrice usd price shown when the price feed is unavailable.
	DefaultFallbackPrice = decimal.NewFromInt(195)
	// DefaultFallbackChange 24h change percent shown when the price feed is unavailable.
	DefaultFallbackChange = decimal.NewFromFloat(2.5)
)

// PriceQuote market quote of the native asset.
type PriceQuote struct {
	PriceUSD     decimal.Decimal `json:"price_usd"`
	Change24hPct decimal.Decimal `json:"change_24h_pct"`
	// Fallback marks quotes that did not come from the price feed.
	Fallback bool `json:"fallback"`
}

// FallbackQuote returns the degraded quote for the given constants.
func FallbackQuote(price, change decimal.Decimal) PriceQuote {
	return PriceQuote{PriceUSD: price, Change24hPct: change, Fallback: true}
}

// Change24hUSD usd delta implied by the 24h percent change of a holding worth total.
func Change24hUSD(total, changePct decimal.Decimal) decimal.Decimal {
	return total.Mul(changePct).Div(decimal.NewFromInt(100))
}
