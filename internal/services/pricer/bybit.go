package pricer

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Bybit reads the V5 spot ticker.
type Bybit struct {
	client *bybit.Client
	symbol string
}

// NewBybit creates a Bybit source for symbol, e.g. SOLUSDT.
func NewBybit(client *bybit.Client, symbol string) *Bybit {
	return &Bybit{client: client, symbol: symbol}
}

// Name identifies the feed.
func (p *Bybit) Name() string { return "bybit" }

// Quote returns the last price and 24h change percent. The SDK call does not take
// a context; the Oracle enforces the deadline.
func (p *Bybit) Quote(_ context.Context) (domain.PriceQuote, error) {
	symbol := bybit.SymbolV5(p.symbol)

	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(err, "bybit ticker")
	}
	if result.Result.Spot == nil || len(result.Result.Spot.List) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("bybit API returned empty ticker for %s", p.symbol)
	}

	item := result.Result.Spot.List[0]
	price, err := decimal.NewFromString(item.LastPrice)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(errMalformedQuote, err.Error())
	}
	// bybit reports the change as a ratio
	ratio, err := decimal.NewFromString(item.Price24HPcnt)
	if err != nil {
		ratio = decimal.Zero
	}

	return domain.PriceQuote{PriceUSD: price, Change24hPct: ratio.Mul(hundred)}, nil
}
