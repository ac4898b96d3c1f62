package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/passkeywallet/config"
	"github.com/vadiminshakov/passkeywallet/internal/domain"
	providerMock "github.com/vadiminshakov/passkeywallet/mocks/provider"
)

const (
	walletAddress    = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	recipientAddress = "So11111111111111111111111111111111111111112"
)

type testNetwork struct {
	priceURL    string
	rpcURL      string
	lamports    atomic.Uint64
	balanceHits atomic.Int32
}

func newTestNetwork(t *testing.T) *testNetwork {
	t.Helper()
	n := &testNetwork{}
	n.lamports.Store(2_500_000_000)

	prices := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"solana":{"usd":100,"usd_24h_change":-4}}`))
	}))
	t.Cleanup(prices.Close)

	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "getBalance" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n.balanceHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"context": map[string]any{"slot": 1},
				"value":   n.lamports.Load(),
			},
		})
	}))
	t.Cleanup(ledger.Close)

	n.priceURL = prices.URL
	n.rpcURL = ledger.URL
	return n
}

func (n *testNetwork) config() config.Config {
	cfg := config.Default()
	cfg.Price.URL = n.priceURL
	cfg.RPCURL = n.rpcURL
	cfg.Ledger.RetryInterval = time.Millisecond
	return cfg
}

func TestWallet_Flow(t *testing.T) {
	n := newTestNetwork(t)
	provider := providerMock.NewWalletProvider(t)
	provider.On("Connect", mock.Anything).
		Return(domain.Credential{Address: walletAddress, CredentialID: "cred-1"}, nil).Once()
	provider.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.MatchedBy(func(o domain.TransactionOptions) bool {
		return o.FeeToken == domain.FeeTokenStable
	})).Return("sig-1", nil).Once()
	provider.On("Disconnect", mock.Anything).Return(nil).Once()

	w, err := NewWallet(n.config(), provider, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	sess, err := w.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, walletAddress, sess.Address)

	state := w.State()
	require.True(t, state.Session.IsConnected())
	require.Len(t, state.Tokens, 1)
	assert.Equal(t, "2.5", state.Tokens[0].Balance.String())
	assert.Equal(t, "250", state.TotalUSDValue().String())
	assert.Equal(t, "-10", state.Change24hUSD().String())
	assert.False(t, state.Price.Fallback)
	assert.Equal(t, "2.499", w.MaxSendable().String())

	hits := n.balanceHits.Load()
	n.lamports.Store(1_500_000_000)

	sig, err := w.Send(ctx, recipientAddress, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "sig-1", sig)

	state = w.State()
	require.Len(t, state.History, 1)
	assert.Equal(t, "sig-1", state.History[0].Signature)
	assert.Equal(t, domain.DirectionSend, state.History[0].Direction)
	assert.Equal(t, recipientAddress, state.History[0].Counterparty)
	assert.Equal(t, hits+1, n.balanceHits.Load())
	assert.Equal(t, "1.5", state.NativeBalance().String())
	assert.False(t, state.Signing)

	w.Disconnect(ctx)
	state = w.State()
	assert.False(t, state.Session.IsConnected())
	assert.Empty(t, state.Tokens)
	assert.Empty(t, state.History)
	assert.True(t, state.Price.Fallback)
}

func TestWallet_RefreshRequiresSession(t *testing.T) {
	n := newTestNetwork(t)
	w, err := NewWallet(n.config(), providerMock.NewWalletProvider(t), nil, nil)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Zero(t, n.balanceHits.Load())
}

func TestWallet_Refresh(t *testing.T) {
	n := newTestNetwork(t)
	provider := providerMock.NewWalletProvider(t)
	provider.On("Connect", mock.Anything).Return(domain.Credential{Address: walletAddress}, nil).Once()

	w, err := NewWallet(n.config(), provider, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	ch := w.Subscribe()
	defer w.Unsubscribe(ch)

	_, err = w.Connect(context.Background())
	require.NoError(t, err)

	n.lamports.Store(4_000_000_000)
	token, err := w.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4", token.Balance.String())
	assert.Equal(t, "400", w.State().TotalUSDValue().String())

	// a refresh is visible to subscribers
	deadline := time.After(time.Second)
	for {
		select {
		case s := <-ch:
			if len(s.Tokens) == 1 && s.Tokens[0].Balance.Equal(decimal.NewFromInt(4)) {
				return
			}
		case <-deadline:
			t.Fatal("refreshed state was not published")
		}
	}
}

func TestWallet_PriceAndBalance(t *testing.T) {
	n := newTestNetwork(t)
	w, err := NewWallet(n.config(), providerMock.NewWalletProvider(t), nil, nil)
	require.NoError(t, err)
	defer w.Close()

	quote := w.Price(context.Background())
	assert.Equal(t, "100", quote.PriceUSD.String())
	assert.Equal(t, "-4", quote.Change24hPct.String())

	token, err := w.Balance(context.Background(), walletAddress)
	require.NoError(t, err)
	assert.Equal(t, "2.5", token.Balance.String())
	assert.Equal(t, "250", token.USDValue.String())
	assert.False(t, w.State().Session.IsConnected(), "lookups must not touch the session")

	_, err = w.Balance(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
}

func TestWallet_PriceFeedDown(t *testing.T) {
	n := newTestNetwork(t)
	cfg := n.config()
	cfg.Price.URL = "http://127.0.0.1:1"

	w, err := NewWallet(cfg, providerMock.NewWalletProvider(t), nil, nil)
	require.NoError(t, err)
	defer w.Close()

	quote := w.Price(context.Background())
	assert.True(t, quote.Fallback)
	assert.True(t, quote.PriceUSD.Equal(domain.DefaultFallbackPrice))
}

func TestNewWallet_UnknownPriceSource(t *testing.T) {
	cfg := config.Default()
	cfg.Price.Source = "kraken"
	_, err := NewWallet(cfg, providerMock.NewWalletProvider(t), nil, nil)
	assert.Error(t, err)
}
