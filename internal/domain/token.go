package domain

import "github.com/shopspring/decimal"

const (
	// NativeSymbol ticker of the native asset.
	NativeSymbol = "SOL"
	// NativeName display name of the native asset.
	NativeName = "Solana"
	// NativeMint wrapped SOL mint used as the asset id of the native balance.
	NativeMint = "So11111111111111111111111111111111111111112"
	// NativeDecimals lamports per SOL exponent.
	NativeDecimals int32 = 9
	// NativeLogoURL token list logo for the native asset.
	NativeLogoURL = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png"
)

// TokenSnapshot balance and valuation of one tracked asset.
type TokenSnapshot struct {
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	Mint              string          `json:"mint"`
	Decimals          int32           `json:"decimals"`
	Balance           decimal.Decimal `json:"balance"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	USDValue          decimal.Decimal `json:"usd_value"`
	PriceChange24hPct decimal.Decimal `json:"price_change_24h_pct"`
	LogoURL           string          `json:"logo_url"`
}

// NewNativeSnapshot composes the native asset snapshot from a balance and a quote.
// Negative balances and prices are clamped to zero.
func NewNativeSnapshot(balance decimal.Decimal, quote PriceQuote) TokenSnapshot {
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	price := quote.PriceUSD
	if price.IsNegative() {
		price = decimal.Zero
	}

	return TokenSnapshot{
		Symbol:            NativeSymbol,
		Name:              NativeName,
		Mint:              NativeMint,
		Decimals:          NativeDecimals,
		Balance:           balance,
		PriceUSD:          price,
		USDValue:          balance.Mul(price),
		PriceChange24hPct: quote.Change24hPct,
		LogoURL:           NativeLogoURL,
	}
}

// TotalUSDValue sums usd value across tokens.
func TotalUSDValue(tokens []TokenSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(t.USDValue)
	}
	return total
}
