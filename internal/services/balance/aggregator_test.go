package balance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/services/ledger"
	"github.com/vadiminshakov/passkeywallet/internal/services/pricer"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

const (
	addrA = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	addrB = "11111111111111111111111111111111"
)

type fakePrices struct {
	quote domain.PriceQuote
	delay time.Duration
	calls atomic.Int32
}

func (f *fakePrices) FetchPrice(ctx context.Context) domain.PriceQuote {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.quote
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	delay    time.Duration
	gate     chan struct{}
}

func (f *fakeBalances) FetchNativeBalance(ctx context.Context, address string) decimal.Decimal {
	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[address]
}

func liveQuote(price, change string) domain.PriceQuote {
	return domain.PriceQuote{
		PriceUSD:     decimal.RequireFromString(price),
		Change24hPct: decimal.RequireFromString(change),
	}
}

func connectedStore(t *testing.T, address string) *store.Store {
	t.Helper()
	st := store.New(domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange), nil)
	st.Dispatch(store.ConnectStarted{SessionID: "s1"})
	_, ok := st.Dispatch(store.ConnectSucceeded{Credential: domain.Credential{Address: address, CredentialID: "cred"}})
	require.True(t, ok)
	return st
}

func TestAggregator_Compose(t *testing.T) {
	prices := &fakePrices{quote: liveQuote("200", "-4")}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{addrA: decimal.RequireFromString("1.5")}}

	agg := NewAggregator(prices, balances, nil, nil, nil)
	snap, quote := agg.Compose(context.Background(), addrA)

	assert.Equal(t, domain.NativeSymbol, snap.Symbol)
	assert.Equal(t, domain.NativeMint, snap.Mint)
	assert.Equal(t, int32(9), snap.Decimals)
	assert.Equal(t, "1.5", snap.Balance.String())
	assert.Equal(t, "200", snap.PriceUSD.String())
	assert.Equal(t, "300", snap.USDValue.String())
	assert.Equal(t, "-4", snap.PriceChange24hPct.String())
	assert.False(t, quote.Fallback)
}

func TestAggregator_ComposeRunsFetchesConcurrently(t *testing.T) {
	prices := &fakePrices{quote: liveQuote("100", "0"), delay: 150 * time.Millisecond}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{addrA: decimal.NewFromInt(1)}, delay: 150 * time.Millisecond}

	agg := NewAggregator(prices, balances, nil, nil, nil)
	start := time.Now()
	agg.Compose(context.Background(), addrA)

	assert.Less(t, time.Since(start), 280*time.Millisecond)
}

func TestAggregator_ComposeDegraded(t *testing.T) {
	prices := &fakePrices{quote: domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange)}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{}}

	snap, quote := NewAggregator(prices, balances, nil, nil, nil).Compose(context.Background(), addrA)

	assert.True(t, quote.Fallback)
	assert.True(t, snap.Balance.IsZero())
	assert.True(t, snap.USDValue.IsZero())
	assert.Equal(t, "195", snap.PriceUSD.String())
}

func TestAggregator_Refresh(t *testing.T) {
	st := connectedStore(t, addrA)
	prices := &fakePrices{quote: liveQuote("150", "1")}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{addrA: decimal.NewFromInt(2)}}

	snap := NewAggregator(prices, balances, st, nil, nil).Refresh(context.Background(), addrA)
	assert.Equal(t, "300", snap.USDValue.String())

	state := st.Snapshot()
	require.Len(t, state.Tokens, 1)
	assert.Equal(t, "2", state.NativeBalance().String())
	assert.True(t, state.TotalUSDValue().Equal(state.Tokens[0].USDValue))
	assert.Equal(t, "150", state.Price.PriceUSD.String())
	assert.Equal(t, "3", state.Change24hUSD().String())
}

func TestAggregator_RefreshReplacesTokensWholesale(t *testing.T) {
	st := connectedStore(t, addrA)
	prices := &fakePrices{quote: liveQuote("10", "0")}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{addrA: decimal.NewFromInt(1)}}
	agg := NewAggregator(prices, balances, st, nil, nil)

	agg.Refresh(context.Background(), addrA)
	balances.mu.Lock()
	balances.balances[addrA] = decimal.NewFromInt(3)
	balances.mu.Unlock()
	agg.Refresh(context.Background(), addrA)

	state := st.Snapshot()
	require.Len(t, state.Tokens, 1)
	assert.Equal(t, "3", state.NativeBalance().String())
	assert.Equal(t, "30", state.TotalUSDValue().String())
}

// sequencedBalances returns results[i] to the i-th call once gates[i] is closed.
type sequencedBalances struct {
	mu      sync.Mutex
	results []decimal.Decimal
	gates   []chan struct{}
	calls   int
}

func (f *sequencedBalances) FetchNativeBalance(_ context.Context, _ string) decimal.Decimal {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()

	<-f.gates[i]
	return f.results[i]
}

func (f *sequencedBalances) started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestAggregator_StaleRefreshIsDropped(t *testing.T) {
	st := connectedStore(t, addrA)
	prices := &fakePrices{quote: liveQuote("10", "0")}
	balances := &sequencedBalances{
		results: []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(5)},
		gates:   []chan struct{}{make(chan struct{}), make(chan struct{})},
	}
	agg := NewAggregator(prices, balances, st, nil, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		agg.Refresh(context.Background(), addrA)
	}()
	require.Eventually(t, func() bool { return balances.started() == 1 }, time.Second, time.Millisecond)

	wg.Add(1)
	go func() {
		defer wg.Done()
		agg.Refresh(context.Background(), addrA)
	}()
	require.Eventually(t, func() bool { return balances.started() == 2 }, time.Second, time.Millisecond)

	// the newer refresh completes first
	close(balances.gates[1])
	require.Eventually(t, func() bool { return len(st.Snapshot().Tokens) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "5", st.Snapshot().NativeBalance().String())

	close(balances.gates[0])
	wg.Wait()

	assert.Equal(t, "5", st.Snapshot().NativeBalance().String())
}

func TestAggregator_RefreshAfterDisconnectIsDropped(t *testing.T) {
	st := connectedStore(t, addrA)
	gate := make(chan struct{})
	prices := &fakePrices{quote: liveQuote("10", "0")}
	balances := &fakeBalances{
		balances: map[string]decimal.Decimal{addrA: decimal.NewFromInt(1)},
		gate:     gate,
	}
	agg := NewAggregator(prices, balances, st, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Refresh(context.Background(), addrA)
	}()
	require.Eventually(t, func() bool { return st.Snapshot().LastRefreshSeq() == 1 }, time.Second, time.Millisecond)

	st.Dispatch(store.Disconnected{})
	close(gate)
	<-done

	state := st.Snapshot()
	assert.Empty(t, state.Tokens)
	assert.Empty(t, state.Session.Address)
	assert.True(t, state.TotalUSDValue().IsZero())
}

func TestAggregator_RefreshForOtherAddressIsDropped(t *testing.T) {
	st := connectedStore(t, addrA)
	prices := &fakePrices{quote: liveQuote("10", "0")}
	balances := &fakeBalances{balances: map[string]decimal.Decimal{addrB: decimal.NewFromInt(7)}}

	NewAggregator(prices, balances, st, nil, nil).Refresh(context.Background(), addrB)

	assert.Empty(t, st.Snapshot().Tokens)
}

// ctxQuotes and ctxLedger answer until their caller's context ends.
type ctxQuotes struct{ quote domain.PriceQuote }

func (s ctxQuotes) Name() string { return "fake" }

func (s ctxQuotes) Quote(ctx context.Context) (domain.PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceQuote{}, err
	}
	return s.quote, nil
}

type ctxLedger struct{ lamports uint64 }

func (l ctxLedger) Balance(ctx context.Context, _ solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.lamports, nil
}

func TestAggregator_CanceledRefreshKeepsLastGoodState(t *testing.T) {
	st := connectedStore(t, addrA)
	oracle := pricer.NewOracle(ctxQuotes{quote: liveQuote("150", "1")},
		pricer.WithFallback(domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange)))
	reader := ledger.NewReader(ctxLedger{lamports: 3_000_000_000},
		ledger.WithRetrier(ledger.NewRetrier(2, time.Millisecond)))
	agg := NewAggregator(oracle, reader, st, nil, nil)

	agg.Refresh(context.Background(), addrA)
	require.Equal(t, "3", st.Snapshot().NativeBalance().String())

	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := agg.Refresh(ctx, addrA)
	assert.True(t, snap.Balance.IsZero(), "the degraded snapshot is still returned to the caller")

	state := st.Snapshot()
	assert.Equal(t, "3", state.NativeBalance().String())
	assert.Equal(t, "150", state.Price.PriceUSD.String())
	assert.False(t, state.Price.Fallback)
	select {
	case s := <-ch:
		t.Fatalf("canceled refresh published a state: %+v", s.Tokens)
	default:
	}

	// the next refresh still applies
	agg.Refresh(context.Background(), addrA)
	assert.Equal(t, "450", st.Snapshot().TotalUSDValue().String())
}
