package internal

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/config"
	"github.com/vadiminshakov/passkeywallet/internal/clients"
	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/providers"
	"github.com/vadiminshakov/passkeywallet/internal/services/balance"
	"github.com/vadiminshakov/passkeywallet/internal/services/ledger"
	"github.com/vadiminshakov/passkeywallet/internal/services/pricer"
	"github.com/vadiminshakov/passkeywallet/internal/services/session"
	"github.com/vadiminshakov/passkeywallet/internal/services/transfer"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

// Wallet wires the session layer for one process: a single store shared by the
// session controller, the balance aggregator and the transfer executor.
type Wallet struct {
	Config config.Config

	store      *store.Store
	oracle     *pricer.Oracle
	reader     *ledger.Reader
	aggregator *balance.Aggregator
	controller *session.Controller
	executor   *transfer.Executor
	logger     *zap.Logger
}

// NewWallet builds the wallet around provider. m may be nil.
func NewWallet(cfg config.Config, provider providers.WalletProvider, logger *zap.Logger, m *metrics.Metrics) (*Wallet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	source, err := newPriceSource(cfg.Price, clients.NewHTTPClient(cfg.Price.Timeout))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create price source")
	}
	oracle := pricer.NewOracle(source,
		pricer.WithTimeout(cfg.Price.Timeout),
		pricer.WithFallback(cfg.Price.Fallback),
		pricer.WithLogger(logger.Named("pricer")),
		pricer.WithMetrics(m),
	)

	reader := ledger.NewReader(newLedgerClient(cfg.RPCURL, cfg.Ledger.Commitment),
		ledger.WithRetrier(ledger.NewRetrier(cfg.Ledger.Retries, cfg.Ledger.RetryInterval)),
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithMetrics(m),
	)

	st := store.New(oracle.Fallback(), logger.Named("store"))
	aggregator := balance.NewAggregator(oracle, reader, st, logger.Named("balance"), m)
	controller := session.NewController(provider, st, aggregator, logger.Named("session"), m)
	executor := transfer.NewExecutor(provider, controller, st, aggregator, transfer.Config{
		ComputeUnitLimit: cfg.Transfer.ComputeUnitLimit,
		FeeToken:         cfg.Transfer.FeeToken,
		MaxSendBuffer:    cfg.Transfer.MaxSendBuffer,
	}, logger.Named("transfer"), m)

	return &Wallet{
		Config:     cfg,
		store:      st,
		oracle:     oracle,
		reader:     reader,
		aggregator: aggregator,
		controller: controller,
		executor:   executor,
		logger:     logger,
	}, nil
}

// Connect opens the wallet session.
func (w *Wallet) Connect(ctx context.Context) (domain.WalletSession, error) {
	return w.controller.Connect(ctx)
}

// Disconnect closes the wallet session.
func (w *Wallet) Disconnect(ctx context.Context) {
	w.controller.Disconnect(ctx)
}

// Refresh reloads balances of the connected address.
func (w *Wallet) Refresh(ctx context.Context) (domain.TokenSnapshot, error) {
	sess := w.store.Snapshot().Session
	if !sess.IsConnected() {
		return domain.TokenSnapshot{}, domain.NewValidationError(domain.ErrNotConnected, "")
	}
	return w.aggregator.Refresh(ctx, sess.Address), nil
}

// Send transfers amount to recipient.
func (w *Wallet) Send(ctx context.Context, recipient string, amount decimal.Decimal) (string, error) {
	return w.executor.Send(ctx, recipient, amount)
}

// Pay connects if needed and transfers with the given fee token.
func (w *Wallet) Pay(ctx context.Context, recipient string, amount decimal.Decimal, feeToken domain.FeeToken) (string, error) {
	return w.executor.Pay(ctx, recipient, amount, feeToken)
}

// MaxSendable largest amount the connected wallet can send.
func (w *Wallet) MaxSendable() decimal.Decimal {
	return w.executor.MaxSendable(w.store.Snapshot().NativeBalance())
}

// SignMessage signs message with the connected wallet.
func (w *Wallet) SignMessage(ctx context.Context, message []byte) (string, error) {
	return w.controller.SignMessage(ctx, message)
}

// Price fetches the current quote without touching the session.
func (w *Wallet) Price(ctx context.Context) domain.PriceQuote {
	return w.oracle.FetchPrice(ctx)
}

// Balance composes a snapshot for any address without touching the session.
func (w *Wallet) Balance(ctx context.Context, address string) (domain.TokenSnapshot, error) {
	if !domain.IsValidAddress(address) {
		return domain.TokenSnapshot{}, domain.NewValidationError(domain.ErrInvalidRecipient, address)
	}
	snapshot, _ := w.aggregator.Compose(ctx, address)
	return snapshot, nil
}

// State current wallet state.
func (w *Wallet) State() store.State {
	return w.store.Snapshot()
}

// Subscribe returns a channel receiving every state change.
func (w *Wallet) Subscribe() chan store.State {
	return w.store.Subscribe()
}

// Unsubscribe stops delivery to ch.
func (w *Wallet) Unsubscribe(ch chan store.State) {
	w.store.Unsubscribe(ch)
}

// Links explorer and faucet links of the configured cluster.
func (w *Wallet) Links() domain.Links {
	return w.Config.Links
}

// Close releases subscribers.
func (w *Wallet) Close() {
	w.store.Close()
}
