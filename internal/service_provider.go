package internal

import (
	"fmt"
	"net/http"

	"github.com/vadiminshakov/passkeywallet/config"
	"github.com/vadiminshakov/passkeywallet/internal/clients"
	"github.com/vadiminshakov/passkeywallet/internal/services/ledger"
	"github.com/vadiminshakov/passkeywallet/internal/services/pricer"
)

// newPriceSource is the single point of dispatch from the configured source name
// to a price feed implementation.
func newPriceSource(cfg config.PriceConfig, httpClient *http.Client) (pricer.Source, error) {
	switch cfg.Source {
	case config.PriceSourceCoinGecko, "":
		return pricer.NewCoinGecko(cfg.URL, cfg.AssetID, httpClient), nil
	case config.PriceSourceBinance:
		return pricer.NewBinance(clients.NewBinanceClient(), cfg.Symbol), nil
	case config.PriceSourceBybit:
		return pricer.NewBybit(clients.NewBybitClient(), cfg.Symbol), nil
	default:
		return nil, fmt.Errorf("unsupported price source: %s", cfg.Source)
	}
}

func newLedgerClient(rpcURL, commitment string) ledger.Client {
	return ledger.NewRPC(clients.NewSolanaRPC(rpcURL), commitment)
}
