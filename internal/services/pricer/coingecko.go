package pricer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

const (
	// DefaultCoinGeckoURL simple price endpoint.
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"
	// DefaultAssetID coingecko id of the native asset.
	DefaultAssetID = "solana"

	maxPayloadBytes = 1 << 20
)

// CoinGecko reads the simple price endpoint:
// { "<asset>": { "usd": n, "usd_24h_change": n } }.
type CoinGecko struct {
	endpoint   string
	assetID    string
	httpClient *http.Client
}

type coinGeckoQuote struct {
	USD    *decimal.Decimal `json:"usd"`
	Change *decimal.Decimal `json:"usd_24h_change"`
}

// NewCoinGecko creates a CoinGecko source. Timeouts are left to the Oracle.
func NewCoinGecko(endpoint, assetID string, httpClient *http.Client) *CoinGecko {
	if endpoint == "" {
		endpoint = DefaultCoinGeckoURL
	}
	if assetID == "" {
		assetID = DefaultAssetID
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CoinGecko{endpoint: endpoint, assetID: assetID, httpClient: httpClient}
}

// Name identifies the feed.
func (c *CoinGecko) Name() string { return "coingecko" }

// Quote fetches the usd price and 24h change. A missing change is reported as zero.
func (c *CoinGecko) Quote(ctx context.Context) (domain.PriceQuote, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(err, "parse price url")
	}
	q := u.Query()
	q.Set("ids", c.assetID)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(err, "create price request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PriceQuote{}, errors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.PriceQuote{}, fmt.Errorf("price service returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload map[string]coinGeckoQuote
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		return domain.PriceQuote{}, errors.Wrap(errMalformedQuote, err.Error())
	}

	entry, ok := payload[c.assetID]
	if !ok || entry.USD == nil {
		return domain.PriceQuote{}, errors.Wrapf(errMalformedQuote, "no usd price for %s", c.assetID)
	}

	change := decimal.Zero
	if entry.Change != nil {
		change = *entry.Change
	}
	return domain.PriceQuote{PriceUSD: *entry.USD, Change24hPct: change}, nil
}
