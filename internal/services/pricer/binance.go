package pricer

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

// Binance reads the 24h rolling ticker from the Binance public API.
type Binance struct {
	client *binance.Client
	symbol string
}

// NewBinance creates a Binance source for symbol, e.g. SOLUSDT.
func NewBinance(client *binance.Client, symbol string) *Binance {
	return &Binance{client: client, symbol: symbol}
}

// Name identifies the feed.
func (p *Binance) Name() string { return "binance" }

// Quote returns the last price and 24h change percent of the symbol.
func (p *Binance) Quote(ctx context.Context) (domain.PriceQuote, error) {
	stats, err := p.client.NewListPriceChangeStatsService().Symbol(p.symbol).Do(ctx)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(err, "binance ticker")
	}
	if len(stats) == 0 {
		return domain.PriceQuote{}, fmt.Errorf("binance API returned empty ticker for %s", p.symbol)
	}

	price, err := decimal.NewFromString(stats[0].LastPrice)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(errMalformedQuote, err.Error())
	}
	change, err := decimal.NewFromString(stats[0].PriceChangePercent)
	if err != nil {
		change = decimal.Zero
	}

	return domain.PriceQuote{PriceUSD: price, Change24hPct: change}, nil
}
