// Package session owns the wallet session lifecycle: connect, disconnect and
// message signing through the wallet provider.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/store"
)

// Provider subset of the wallet provider used by the session lifecycle.
type Provider interface {
	Connect(ctx context.Context) (domain.Credential, error)
	Disconnect(ctx context.Context) error
	SignMessage(ctx context.Context, message []byte) (string, error)
}

type refresher interface {
	Refresh(ctx context.Context, address string) domain.TokenSnapshot
}

// Controller drives session transitions. Connect and Disconnect are serialized.
type Controller struct {
	mu        sync.Mutex
	provider  Provider
	store     *store.Store
	refresher refresher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewController creates a Controller.
func NewController(provider Provider, st *store.Store, r refresher, logger *zap.Logger, m *metrics.Metrics) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		provider:  provider,
		store:     st,
		refresher: r,
		logger:    logger,
		metrics:   m,
	}
}

// Session returns the current session.
func (c *Controller) Session() domain.WalletSession {
	return c.store.Snapshot().Session
}

// Connect authenticates through the provider and loads balances of the new address.
// Connecting an already connected session returns it unchanged.
func (c *Controller) Connect(ctx context.Context) (domain.WalletSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.store.Snapshot().Session; current.IsConnected() {
		c.metrics.Connected("noop")
		return current, nil
	}

	id := uuid.NewString()
	log := c.logger.With(zap.String("session", id))

	c.store.Dispatch(store.ConnectStarted{SessionID: id})
	log.Debug("connecting wallet")

	cred, err := c.provider.Connect(ctx)
	if err == nil && !domain.IsValidAddress(cred.Address) {
		err = errors.Errorf("provider returned malformed address %q", cred.Address)
	}
	if err != nil {
		connErr := &domain.ConnectionError{Op: "connect", Err: err}
		st, _ := c.store.Dispatch(store.ConnectFailed{Err: connErr.Error()})
		c.metrics.Connected("failed")
		log.Warn("wallet connect failed", zap.Error(err))
		return st.Session, connErr
	}

	c.store.Dispatch(store.ConnectSucceeded{Credential: cred})
	c.metrics.Connected("ok")
	log.Info("wallet connected", zap.String("address", cred.Address))

	c.refresher.Refresh(ctx, cred.Address)

	return c.store.Snapshot().Session, nil
}

// Disconnect ends the provider session and clears all local session data.
// Provider failures are logged; the local reset always happens.
func (c *Controller) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.store.Snapshot().Session
	log := c.logger.With(zap.String("session", current.ID))

	if err := c.provider.Disconnect(ctx); err != nil {
		log.Warn("provider disconnect failed, clearing local session anyway",
			zap.Error(&domain.ConnectionError{Op: "disconnect", Err: err}))
	}

	c.store.Dispatch(store.Disconnected{})
	log.Info("wallet disconnected", zap.String("address", current.Address))
}

// SignMessage asks the provider to sign message with the connected wallet.
func (c *Controller) SignMessage(ctx context.Context, message []byte) (string, error) {
	if _, ok := c.store.Dispatch(store.SigningStarted{}); !ok {
		if !c.store.Snapshot().Session.IsConnected() {
			verr := domain.NewValidationError(domain.ErrNotConnected, "")
			c.store.Dispatch(store.ErrorRecorded{Err: verr.Error()})
			return "", verr
		}
		return "", domain.NewValidationError(domain.ErrSigningInProgress, "")
	}
	c.metrics.Signing(true)
	defer c.metrics.Signing(false)

	sig, err := c.provider.SignMessage(ctx, message)
	if err != nil {
		txErr := &domain.TransactionError{Err: errors.Wrap(err, "sign message")}
		c.store.Dispatch(store.SigningFailed{Err: txErr.Error()})
		c.logger.Warn("message signing failed", zap.Error(err))
		return "", txErr
	}

	c.store.Dispatch(store.SigningFinished{})
	return sig, nil
}
