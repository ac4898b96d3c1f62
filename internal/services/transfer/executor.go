// Package transfer validates, signs and records native asset transfers.
package transfer

import (
	"context"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

// Signer signs and submits a transaction with the connected wallet.
type Signer interface {
	SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts domain.TransactionOptions) (string, error)
}

// Connector opens a session when a payment starts disconnected.
type Connector interface {
	Connect(ctx context.Context) (domain.WalletSession, error)
}

type refresher interface {
	Refresh(ctx context.Context, address string) domain.TokenSnapshot
}

// Config transfer execution settings.
type Config struct {
	ComputeUnitLimit uint32
	FeeToken         domain.FeeToken
	MaxSendBuffer    decimal.Decimal
}

// DefaultConfig returns a 200k compute unit budget with sponsored fees.
func DefaultConfig() Config {
	return Config{
		ComputeUnitLimit: domain.DefaultComputeUnitLimit,
		FeeToken:         domain.FeeTokenStable,
		MaxSendBuffer:    domain.DefaultMaxSendBuffer,
	}
}

// Executor runs transfers from the connected wallet.
type Executor struct {
	signer    Signer
	connector Connector
	store     *store.Store
	refresher refresher
	cfg       Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewExecutor creates an Executor. connector may be nil, in which case Pay
// requires an existing session.
func NewExecutor(signer Signer, connector Connector, st *store.Store, r refresher, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ComputeUnitLimit == 0 {
		cfg.ComputeUnitLimit = domain.DefaultComputeUnitLimit
	}
	if !cfg.FeeToken.IsValid() {
		cfg.FeeToken = domain.FeeTokenStable
	}
	if cfg.MaxSendBuffer.IsNegative() {
		cfg.MaxSendBuffer = domain.DefaultMaxSendBuffer
	}
	return &Executor{
		signer:    signer,
		connector: connector,
		store:     st,
		refresher: r,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Send transfers amount of the native asset to recipient and returns the
// transaction signature.
func (e *Executor) Send(ctx context.Context, recipient string, amount decimal.Decimal) (string, error) {
	return e.send(ctx, recipient, amount, e.cfg.FeeToken)
}

// Pay connects first if needed, then sends with the given fee token. An invalid
// fee token falls back to the configured one.
func (e *Executor) Pay(ctx context.Context, recipient string, amount decimal.Decimal, feeToken domain.FeeToken) (string, error) {
	if !e.store.Snapshot().Session.IsConnected() && e.connector != nil {
		if _, err := e.connector.Connect(ctx); err != nil {
			return "", err
		}
	}
	if !feeToken.IsValid() {
		feeToken = e.cfg.FeeToken
	}
	return e.send(ctx, recipient, amount, feeToken)
}

// MaxSendable amount that can be sent from balance keeping the fee buffer.
func (e *Executor) MaxSendable(balance decimal.Decimal) decimal.Decimal {
	return domain.MaxSendable(balance, e.cfg.MaxSendBuffer)
}

func (e *Executor) send(ctx context.Context, recipient string, amount decimal.Decimal, feeToken domain.FeeToken) (string, error) {
	session := e.store.Snapshot().Session
	if !session.IsConnected() {
		return "", e.reject(domain.ErrNotConnected, "")
	}

	recipient = strings.TrimSpace(recipient)
	to, err := domain.ParseAddress(recipient)
	if err != nil {
		return "", e.reject(domain.ErrInvalidRecipient, recipient)
	}

	if !amount.IsPositive() {
		return "", e.reject(domain.ErrInvalidAmount, amount.String())
	}
	lamports, err := domain.ToSmallestUnit(amount, domain.NativeDecimals)
	if err != nil || lamports == 0 {
		return "", e.reject(domain.ErrInvalidAmount, amount.String())
	}

	from, err := domain.ParseAddress(session.Address)
	if err != nil {
		return "", e.fail(errors.Wrap(err, "session address"))
	}

	if st, ok := e.store.Dispatch(store.SigningStarted{}); !ok {
		return "", e.signingRejected(st)
	}

	log := e.logger.With(zap.String("session", session.ID))
	log.Info("sending transfer",
		zap.String("to", recipient),
		zap.Uint64("lamports", lamports),
		zap.String("fee_token", string(feeToken)))

	instruction := system.NewTransferInstruction(lamports, from, to).Build()
	opts := domain.TransactionOptions{
		ComputeUnitLimit: e.cfg.ComputeUnitLimit,
		FeeToken:         feeToken,
	}

	e.metrics.Signing(true)
	sig, err := e.signer.SignAndSendTransaction(ctx, []solana.Instruction{instruction}, opts)
	e.metrics.Signing(false)
	if err == nil && sig == "" {
		err = errors.New("provider returned empty signature")
	}
	if err != nil {
		log.Warn("transfer failed", zap.Error(err))
		return "", e.fail(err)
	}

	record := domain.TransactionRecord{
		Signature:    sig,
		Direction:    domain.DirectionSend,
		Amount:       domain.FromSmallestUnit(lamports, domain.NativeDecimals),
		CreatedAt:    e.now(),
		Status:       domain.TxConfirmed,
		Counterparty: recipient,
	}
	e.store.Dispatch(store.TransferSucceeded{Record: record})
	e.metrics.Transferred("ok")
	log.Info("transfer sent", zap.String("signature", sig))

	e.refresher.Refresh(ctx, session.Address)

	return sig, nil
}

func (e *Executor) reject(reason error, detail string) error {
	verr := domain.NewValidationError(reason, detail)
	e.store.Dispatch(store.ErrorRecorded{Err: verr.Error()})
	e.metrics.Transferred("invalid")
	e.logger.Debug("transfer rejected", zap.Error(verr))
	return verr
}

// signingRejected explains a refused SigningStarted from the state it was refused in.
func (e *Executor) signingRejected(st store.State) error {
	if !st.Session.IsConnected() {
		return e.reject(domain.ErrNotConnected, "")
	}
	e.metrics.Transferred("invalid")
	return domain.NewValidationError(domain.ErrSigningInProgress, "")
}

func (e *Executor) fail(err error) error {
	txErr := &domain.TransactionError{Err: err}
	e.store.Dispatch(store.SigningFailed{Err: txErr.Error()})
	e.metrics.Transferred("failed")
	return txErr
}
