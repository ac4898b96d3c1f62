// Package balance composes the token list shown to the user from a price quote
// and a ledger balance fetched concurrently.
package balance

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

type priceFetcher interface {
	FetchPrice(ctx context.Context) domain.PriceQuote
}

type balanceFetcher interface {
	FetchNativeBalance(ctx context.Context, address string) decimal.Decimal
}

// Aggregator refreshes the token list of the connected address.
type Aggregator struct {
	prices   priceFetcher
	balances balanceFetcher
	store    *store.Store
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewAggregator creates an Aggregator writing into st.
func NewAggregator(prices priceFetcher, balances balanceFetcher, st *store.Store, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		prices:   prices,
		balances: balances,
		store:    st,
		logger:   logger,
		metrics:  m,
	}
}

// Compose fetches price and balance concurrently and builds the native snapshot.
// Both fetchers absorb their own failures, so Compose always yields a snapshot.
func (a *Aggregator) Compose(ctx context.Context, address string) (domain.TokenSnapshot, domain.PriceQuote) {
	var (
		quote   domain.PriceQuote
		balance decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quote = a.prices.FetchPrice(gctx)
		return nil
	})
	g.Go(func() error {
		balance = a.balances.FetchNativeBalance(gctx, address)
		return nil
	})
	_ = g.Wait()

	return domain.NewNativeSnapshot(balance, quote), quote
}

// Refresh recomputes the token list for address and replaces it in the store.
// The result is dropped if ctx ended during the fetch, a newer refresh already
// landed or address is no longer connected; the composed snapshot is returned
// either way.
func (a *Aggregator) Refresh(ctx context.Context, address string) domain.TokenSnapshot {
	seq := a.store.BeginRefresh(address)

	snapshot, quote := a.Compose(ctx, address)

	// fetchers degrade on cancellation too; that result says nothing about the ledger
	if err := ctx.Err(); err != nil {
		a.metrics.Refreshed(false)
		a.logger.Debug("canceled refresh dropped", zap.String("address", address),
			zap.Uint64("seq", seq), zap.Error(err))
		return snapshot
	}

	_, applied := a.store.Dispatch(store.TokensRefreshed{
		Seq:     seq,
		Address: address,
		Quote:   quote,
		Tokens:  []domain.TokenSnapshot{snapshot},
	})
	a.metrics.Refreshed(applied)

	if !applied {
		a.logger.Debug("stale refresh dropped", zap.String("address", address), zap.Uint64("seq", seq))
		return snapshot
	}

	a.logger.Info("balances refreshed",
		zap.String("address", address),
		zap.String("balance", snapshot.Balance.String()),
		zap.String("usd_value", snapshot.USDValue.String()),
		zap.Bool("fallback_price", quote.Fallback))
	return snapshot
}
