package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient returns a client for the public market endpoints. No keys are
// needed to read tickers.
func NewBinanceClient() *binance.Client {
	client := binance.NewClient("", "")
	return client
}
