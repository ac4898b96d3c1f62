package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

// Price sources understood by the wallet.
const (
	PriceSourceCoinGecko = "coingecko"
	PriceSourceBinance   = "binance"
	PriceSourceBybit     = "bybit"
)

// Environment overrides applied on top of the file.
const (
	EnvRPCURL        = "WALLET_RPC_URL"
	EnvPriceURL      = "WALLET_PRICE_URL"
	EnvFallbackPrice = "WALLET_FALLBACK_PRICE"
	EnvNetwork       = "WALLET_NETWORK"
)

const (
	defaultPriceTimeout        = 5 * time.Second
	defaultLedgerRetries       = 2
	defaultLedgerRetryInterval = 250 * time.Millisecond
	defaultHTTPAddr            = ":8080"
	defaultRefreshRPS          = 1.0
	defaultRefreshBurst        = 3
	defaultCertCache           = "certs"
	defaultPriceSymbol         = "SOLUSDT"
	defaultAssetID             = "solana"
	defaultCoinGeckoURL        = "https://api.coingecko.com/api/v3/simple/price"
)

type Config struct {
	Network  domain.Network
	RPCURL   string
	Links    domain.Links
	Price    PriceConfig
	Ledger   LedgerConfig
	Transfer TransferConfig
	Provider ProviderConfig
	HTTP     HTTPConfig
	LogLevel string
}

type PriceConfig struct {
	Source   string
	URL      string
	AssetID  string
	Symbol   string
	Timeout  time.Duration
	Fallback domain.PriceQuote
}

type LedgerConfig struct {
	Commitment    string
	Retries       int
	RetryInterval time.Duration
}

type TransferConfig struct {
	ComputeUnitLimit uint32
	FeeToken         domain.FeeToken
	MaxSendBuffer    decimal.Decimal
}

type ProviderConfig struct {
	KeypairPath string
}

type HTTPConfig struct {
	Addr         string
	RefreshRPS   float64
	RefreshBurst int
	TLSDomains   []string
	CertCache    string
}

// ConfigTmp file representation. Numbers are kept as strings and parsed into
// decimals so the file never goes through float64.
type ConfigTmp struct {
	Network             string        `yaml:"network"`
	RPCURL              string        `yaml:"rpc_url,omitempty"`
	ExplorerURL         string        `yaml:"explorer_url,omitempty"`
	FaucetURL           string        `yaml:"faucet_url,omitempty"`
	PriceSource         string        `yaml:"price_source,omitempty"`
	PriceURL            string        `yaml:"price_url,omitempty"`
	PriceAssetID        string        `yaml:"price_asset_id,omitempty"`
	PriceSymbol         string        `yaml:"price_symbol,omitempty"`
	PriceTimeout        time.Duration `yaml:"price_timeout,omitempty"`
	FallbackPriceStr    string        `yaml:"fallback_price,omitempty"`
	FallbackChangeStr   string        `yaml:"fallback_change,omitempty"`
	LedgerCommitment    string        `yaml:"ledger_commitment,omitempty"`
	LedgerRetriesStr    string        `yaml:"ledger_retries,omitempty"`
	LedgerRetryInterval time.Duration `yaml:"ledger_retry_interval,omitempty"`
	ComputeUnitLimitStr string        `yaml:"compute_unit_limit,omitempty"`
	FeeToken            string        `yaml:"fee_token,omitempty"`
	MaxSendBufferStr    string        `yaml:"max_send_buffer,omitempty"`
	KeypairPath         string        `yaml:"keypair_path,omitempty"`
	HTTPAddr            string        `yaml:"http_addr,omitempty"`
	RefreshRPSStr       string        `yaml:"refresh_rps,omitempty"`
	RefreshBurstStr     string        `yaml:"refresh_burst,omitempty"`
	TLSDomains          []string      `yaml:"tls_domains,omitempty"`
	CertCache           string        `yaml:"cert_cache,omitempty"`
	LogLevel            string        `yaml:"log_level,omitempty"`
}

// Default devnet configuration with the coingecko feed.
func Default() Config {
	network := domain.NetworkDevnet
	return Config{
		Network: network,
		RPCURL:  network.DefaultRPCURL(),
		Links: domain.Links{
			ExplorerURL: domain.DefaultExplorerURL,
			FaucetURL:   domain.DefaultFaucetURL,
			Network:     network,
		},
		Price: PriceConfig{
			Source:   PriceSourceCoinGecko,
			URL:      defaultCoinGeckoURL,
			AssetID:  defaultAssetID,
			Symbol:   defaultPriceSymbol,
			Timeout:  defaultPriceTimeout,
			Fallback: domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange),
		},
		Ledger: LedgerConfig{
			Commitment:    "confirmed",
			Retries:       defaultLedgerRetries,
			RetryInterval: defaultLedgerRetryInterval,
		},
		Transfer: TransferConfig{
			ComputeUnitLimit: domain.DefaultComputeUnitLimit,
			FeeToken:         domain.FeeTokenStable,
			MaxSendBuffer:    domain.DefaultMaxSendBuffer,
		},
		HTTP: HTTPConfig{
			Addr:         defaultHTTPAddr,
			RefreshRPS:   defaultRefreshRPS,
			RefreshBurst: defaultRefreshBurst,
			CertCache:    defaultCertCache,
		},
		LogLevel: "info",
	}
}

// Load reads the yaml file at path, or defaults when path is empty, and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		var tmp ConfigTmp
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
		}
		cfg, err = Parse(tmp)
		if err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse converts the file representation, filling unset fields with defaults.
func Parse(c ConfigTmp) (Config, error) {
	cfg := Default()

	if c.Network != "" {
		cfg.setNetwork(domain.Network(strings.ToLower(c.Network)))
	}
	if c.RPCURL != "" {
		cfg.RPCURL = c.RPCURL
	}
	if c.ExplorerURL != "" {
		cfg.Links.ExplorerURL = strings.TrimRight(c.ExplorerURL, "/")
	}
	if c.FaucetURL != "" {
		cfg.Links.FaucetURL = c.FaucetURL
	}

	if c.PriceSource != "" {
		cfg.Price.Source = strings.ToLower(c.PriceSource)
	}
	if c.PriceURL != "" {
		cfg.Price.URL = c.PriceURL
	}
	if c.PriceAssetID != "" {
		cfg.Price.AssetID = c.PriceAssetID
	}
	if c.PriceSymbol != "" {
		cfg.Price.Symbol = strings.ToUpper(c.PriceSymbol)
	}
	if c.PriceTimeout != 0 {
		cfg.Price.Timeout = c.PriceTimeout
	}
	if c.FallbackPriceStr != "" {
		price, err := decimal.NewFromString(c.FallbackPriceStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fallback_price' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.Price.Fallback.PriceUSD = price
	}
	if c.FallbackChangeStr != "" {
		change, err := decimal.NewFromString(c.FallbackChangeStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'fallback_change' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.Price.Fallback.Change24hPct = change
	}

	if c.LedgerCommitment != "" {
		cfg.Ledger.Commitment = strings.ToLower(c.LedgerCommitment)
	}
	if c.LedgerRetriesStr != "" {
		retries, err := strconv.Atoi(c.LedgerRetriesStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'ledger_retries' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.Ledger.Retries = retries
	}
	if c.LedgerRetryInterval != 0 {
		cfg.Ledger.RetryInterval = c.LedgerRetryInterval
	}

	if c.ComputeUnitLimitStr != "" {
		units, err := strconv.ParseUint(c.ComputeUnitLimitStr, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'compute_unit_limit' param in yaml config (must be an unsigned integer), error: %w", err)
		}
		cfg.Transfer.ComputeUnitLimit = uint32(units)
	}
	if c.FeeToken != "" {
		cfg.Transfer.FeeToken = domain.FeeToken(strings.ToUpper(c.FeeToken))
	}
	if c.MaxSendBufferStr != "" {
		buffer, err := decimal.NewFromString(c.MaxSendBufferStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'max_send_buffer' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.Transfer.MaxSendBuffer = buffer
	}

	cfg.Provider.KeypairPath = c.KeypairPath

	if c.HTTPAddr != "" {
		cfg.HTTP.Addr = c.HTTPAddr
	}
	if c.RefreshRPSStr != "" {
		rps, err := strconv.ParseFloat(c.RefreshRPSStr, 64)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'refresh_rps' param in yaml config (must be a number), error: %w", err)
		}
		cfg.HTTP.RefreshRPS = rps
	}
	if c.RefreshBurstStr != "" {
		burst, err := strconv.Atoi(c.RefreshBurstStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'refresh_burst' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.HTTP.RefreshBurst = burst
	}
	cfg.HTTP.TLSDomains = c.TLSDomains
	if c.CertCache != "" {
		cfg.HTTP.CertCache = c.CertCache
	}
	if c.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(c.LogLevel)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c Config) Validate() error {
	if !c.Network.IsValid() {
		return fmt.Errorf("unknown network %q (expected devnet or mainnet)", c.Network)
	}
	switch c.Price.Source {
	case PriceSourceCoinGecko, PriceSourceBinance, PriceSourceBybit:
	default:
		return fmt.Errorf("unknown price source %q", c.Price.Source)
	}
	if c.Price.Timeout <= 0 {
		return fmt.Errorf("price timeout must be positive, got %s", c.Price.Timeout)
	}
	if !c.Price.Fallback.PriceUSD.IsPositive() {
		return fmt.Errorf("fallback price must be positive, got %s", c.Price.Fallback.PriceUSD)
	}
	if c.Ledger.Retries < 0 {
		return fmt.Errorf("ledger retries must not be negative, got %d", c.Ledger.Retries)
	}
	if !c.Transfer.FeeToken.IsValid() {
		return fmt.Errorf("unknown fee token %q (expected NATIVE or STABLE)", c.Transfer.FeeToken)
	}
	if c.Transfer.MaxSendBuffer.IsNegative() {
		return fmt.Errorf("max send buffer must not be negative, got %s", c.Transfer.MaxSendBuffer)
	}
	if c.HTTP.RefreshRPS <= 0 || c.HTTP.RefreshBurst <= 0 {
		return fmt.Errorf("refresh rate limit must be positive, got %v rps burst %d", c.HTTP.RefreshRPS, c.HTTP.RefreshBurst)
	}
	return nil
}

// Tmp returns the file representation of c.
func (c Config) Tmp() ConfigTmp {
	return ConfigTmp{
		Network:             c.Network.String(),
		RPCURL:              c.RPCURL,
		ExplorerURL:         c.Links.ExplorerURL,
		FaucetURL:           c.Links.FaucetURL,
		PriceSource:         c.Price.Source,
		PriceURL:            c.Price.URL,
		PriceAssetID:        c.Price.AssetID,
		PriceSymbol:         c.Price.Symbol,
		PriceTimeout:        c.Price.Timeout,
		FallbackPriceStr:    c.Price.Fallback.PriceUSD.String(),
		FallbackChangeStr:   c.Price.Fallback.Change24hPct.String(),
		LedgerCommitment:    c.Ledger.Commitment,
		LedgerRetriesStr:    strconv.Itoa(c.Ledger.Retries),
		LedgerRetryInterval: c.Ledger.RetryInterval,
		ComputeUnitLimitStr: strconv.FormatUint(uint64(c.Transfer.ComputeUnitLimit), 10),
		FeeToken:            string(c.Transfer.FeeToken),
		MaxSendBufferStr:    c.Transfer.MaxSendBuffer.String(),
		KeypairPath:         c.Provider.KeypairPath,
		HTTPAddr:            c.HTTP.Addr,
		RefreshRPSStr:       strconv.FormatFloat(c.HTTP.RefreshRPS, 'f', -1, 64),
		RefreshBurstStr:     strconv.Itoa(c.HTTP.RefreshBurst),
		TLSDomains:          c.HTTP.TLSDomains,
		CertCache:           c.HTTP.CertCache,
		LogLevel:            c.LogLevel,
	}
}

// Write stores c as yaml at path.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c.Tmp())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.setNetwork(domain.Network(strings.ToLower(v)))
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv(EnvPriceURL); v != "" {
		cfg.Price.URL = v
	}
	if v := os.Getenv(EnvFallbackPrice); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("incorrect %s (must be a decimal), error: %w", EnvFallbackPrice, err)
		}
		cfg.Price.Fallback.PriceUSD = price
	}
	return nil
}

// setNetwork switches the cluster and moves the rpc endpoint along if it was the default one.
func (c *Config) setNetwork(n domain.Network) {
	if c.RPCURL == c.Network.DefaultRPCURL() {
		c.RPCURL = n.DefaultRPCURL()
	}
	c.Network = n
	c.Links.Network = n
}
