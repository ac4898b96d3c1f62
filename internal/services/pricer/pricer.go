// Package pricer fetches the native asset market quote. The Oracle bounds every
// fetch with a hard timeout and degrades to a fixed fallback quote instead of failing.
package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
)

// DefaultTimeout upper bound of one price fetch.
const DefaultTimeout = 5 * time.Second

var errMalformedQuote = errors.New("malformed price quote")

// Source a market price feed.
type Source interface {
	// Quote returns the current usd price and 24h change percent.
	Quote(ctx context.Context) (domain.PriceQuote, error)
	// Name identifies the feed in logs and metrics.
	Name() string
}

// Oracle wraps a Source with the timeout and fallback policy.
type Oracle struct {
	source   Source
	timeout  time.Duration
	fallback domain.PriceQuote
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// OracleOption configures the Oracle.
type OracleOption func(*Oracle)

// WithTimeout overrides the fetch timeout.
func WithTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithFallback overrides the fallback quote constants.
func WithFallback(fallback domain.PriceQuote) OracleOption {
	return func(o *Oracle) {
		fallback.Fallback = true
		o.fallback = fallback
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) OracleOption {
	return func(o *Oracle) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) OracleOption {
	return func(o *Oracle) {
		o.metrics = m
	}
}

// NewOracle creates an Oracle over source. A nil source always yields the fallback.
func NewOracle(source Source, opts ...OracleOption) *Oracle {
	o := &Oracle{
		source:   source,
		timeout:  DefaultTimeout,
		fallback: domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fallback returns the degraded quote.
func (o *Oracle) Fallback() domain.PriceQuote {
	return o.fallback
}

// FetchPrice returns a live quote or the fallback. It never fails and never
// blocks longer than the configured timeout.
func (o *Oracle) FetchPrice(ctx context.Context) domain.PriceQuote {
	start := time.Now()
	quote, err := o.fetch(ctx)
	took := time.Since(start)
	if err != nil {
		o.logger.Warn("price feed unavailable, using fallback price",
			zap.String("source", o.sourceName()),
			zap.Duration("took", took),
			zap.String("fallback_price", o.fallback.PriceUSD.String()),
			zap.Error(err))
		o.metrics.PriceFetched(o.sourceName(), true, took)
		return o.fallback
	}

	o.metrics.PriceFetched(o.sourceName(), false, took)
	return quote
}

func (o *Oracle) fetch(ctx context.Context) (domain.PriceQuote, error) {
	if o.source == nil {
		return domain.PriceQuote{}, errors.New("no price source configured")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type result struct {
		quote domain.PriceQuote
		err   error
	}
	// some SDK calls ignore ctx, so the deadline is enforced here as well
	done := make(chan result, 1)
	go func() {
		q, err := o.source.Quote(ctx)
		done <- result{quote: q, err: err}
	}()

	select {
	case <-ctx.Done():
		return domain.PriceQuote{}, errors.Wrap(ctx.Err(), "price fetch")
	case r := <-done:
		if r.err != nil {
			return domain.PriceQuote{}, r.err
		}
		if !r.quote.PriceUSD.IsPositive() {
			return domain.PriceQuote{}, errors.Wrapf(errMalformedQuote, "price %s", r.quote.PriceUSD.String())
		}
		r.quote.Fallback = false
		return r.quote, nil
	}
}

func (o *Oracle) sourceName() string {
	if o.source == nil {
		return "none"
	}
	return o.source.Name()
}
