// Package ledger reads on-chain balances. Reads never fail: an unreachable node
// or a malformed address yields a zero balance.
package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/pkg/retrier"
)

// Client reads raw account balances in the smallest unit.
type Client interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Reader converts ledger balances to whole-unit decimals.
type Reader struct {
	client  Client
	retrier *retrier.Retrier
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// ReaderOption configures the Reader.
type ReaderOption func(*Reader)

// WithRetrier overrides the retry policy of balance reads.
func WithRetrier(r *retrier.Retrier) ReaderOption {
	return func(rd *Reader) {
		if r != nil {
			rd.retrier = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ReaderOption {
	return func(rd *Reader) {
		if l != nil {
			rd.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ReaderOption {
	return func(rd *Reader) {
		rd.metrics = m
	}
}

// NewReader creates a Reader over client.
func NewReader(client Client, opts ...ReaderOption) *Reader {
	r := &Reader{
		client:  client,
		retrier: retrier.New(retrier.WithRetryIf(retryable)),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchNativeBalance returns the native balance of address in whole units.
func (r *Reader) FetchNativeBalance(ctx context.Context, address string) decimal.Decimal {
	account, err := domain.ParseAddress(address)
	if err != nil {
		r.logger.Warn("balance read skipped, malformed address",
			zap.String("address", address), zap.Error(err))
		r.metrics.LedgerRead(false)
		return decimal.Zero
	}

	lamports, err := retrier.DoWithData(r.retrier, ctx, func(ctx context.Context) (uint64, error) {
		return r.client.Balance(ctx, account)
	})
	if err != nil {
		r.logger.Warn("balance read failed, reporting zero",
			zap.String("address", address), zap.Error(err))
		r.metrics.LedgerRead(false)
		return decimal.Zero
	}

	r.metrics.LedgerRead(true)
	return domain.FromSmallestUnit(lamports, domain.NativeDecimals)
}

// NewRetrier bounded retry policy for balance reads. Context errors are not retried.
func NewRetrier(retries int, interval time.Duration) *retrier.Retrier {
	opts := []retrier.Option{retrier.WithMaxRetries(retries), retrier.WithRetryIf(retryable)}
	if interval > 0 {
		opts = append(opts, retrier.WithInitialInterval(interval))
	}
	return retrier.New(opts...)
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
