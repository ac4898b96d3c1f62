package transfer

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
	"github.com/vadiminshakov/passkeywallet/internal/store"
	providerMock "github.com/vadiminshakov/passkeywallet/mocks/provider"
)

const (
	walletAddress    = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	recipientAddress = "So11111111111111111111111111111111111111112"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls []string
}

func (r *countingRefresher) Refresh(_ context.Context, address string) domain.TokenSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, address)
	return domain.TokenSnapshot{}
}

func (r *countingRefresher) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeConnector struct {
	st    *store.Store
	err   error
	calls int
}

func (c *fakeConnector) Connect(_ context.Context) (domain.WalletSession, error) {
	c.calls++
	if c.err != nil {
		return domain.WalletSession{}, c.err
	}
	connect(c.st)
	return c.st.Snapshot().Session, nil
}

func connect(st *store.Store) {
	st.Dispatch(store.ConnectStarted{SessionID: "s1"})
	st.Dispatch(store.ConnectSucceeded{Credential: domain.Credential{Address: walletAddress, CredentialID: "cred"}})
}

type fixture struct {
	exec      *Executor
	signer    *providerMock.WalletProvider
	store     *store.Store
	refresher *countingRefresher
}

func newFixture(t *testing.T, connected bool) fixture {
	t.Helper()
	st := store.New(domain.FallbackQuote(domain.DefaultFallbackPrice, domain.DefaultFallbackChange), nil)
	if connected {
		connect(st)
	}
	signer := providerMock.NewWalletProvider(t)
	refresher := &countingRefresher{}
	exec := NewExecutor(signer, nil, st, refresher, DefaultConfig(), nil, nil)
	exec.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return fixture{exec: exec, signer: signer, store: st, refresher: refresher}
}

func lamportsOf(t *testing.T, ix solana.Instruction) uint64 {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 12)
	// system program transfer: u32 discriminator 2, u64 lamports
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[:4]))
	return binary.LittleEndian.Uint64(data[4:12])
}

func TestExecutor_Send(t *testing.T) {
	f := newFixture(t, true)

	f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			assert.True(t, f.store.Snapshot().Signing, "signing flag must be set while the provider signs")

			instructions := args.Get(1).([]solana.Instruction)
			require.Len(t, instructions, 1)
			ix := instructions[0]
			assert.Equal(t, solana.SystemProgramID, ix.ProgramID())
			assert.Equal(t, uint64(500_000_000), lamportsOf(t, ix))

			accounts := ix.Accounts()
			require.Len(t, accounts, 2)
			assert.Equal(t, walletAddress, accounts[0].PublicKey.String())
			assert.Equal(t, recipientAddress, accounts[1].PublicKey.String())

			opts := args.Get(2).(domain.TransactionOptions)
			assert.Equal(t, uint32(200_000), opts.ComputeUnitLimit)
			assert.Equal(t, domain.FeeTokenStable, opts.FeeToken)
		}).
		Return("SIG123", nil).Once()

	sig, err := f.exec.Send(context.Background(), recipientAddress, decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "SIG123", sig)

	state := f.store.Snapshot()
	assert.False(t, state.Signing)
	require.Len(t, state.History, 1)
	rec := state.History[0]
	assert.Equal(t, "SIG123", rec.Signature)
	assert.Equal(t, domain.DirectionSend, rec.Direction)
	assert.Equal(t, "0.5", rec.Amount.String())
	assert.Equal(t, domain.TxConfirmed, rec.Status)
	assert.Equal(t, recipientAddress, rec.Counterparty)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), rec.CreatedAt)

	assert.Equal(t, []string{walletAddress}, f.refresher.Calls())
}

func TestExecutor_SendTruncatesToLamports(t *testing.T) {
	f := newFixture(t, true)
	f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			instructions := args.Get(1).([]solana.Instruction)
			assert.Equal(t, uint64(1_234_567_891), lamportsOf(t, instructions[0]))
		}).
		Return("SIGTRUNC", nil).Once()

	_, err := f.exec.Send(context.Background(), recipientAddress, decimal.RequireFromString("1.2345678919"))
	require.NoError(t, err)
	assert.Equal(t, "1.234567891", f.store.Snapshot().History[0].Amount.String())
}

func TestExecutor_NewestFirstAndNoDuplicates(t *testing.T) {
	f := newFixture(t, true)
	f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything).Return("SIG1", nil).Twice()
	f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything).Return("SIG2", nil).Once()

	for i := 0; i < 3; i++ {
		_, err := f.exec.Send(context.Background(), recipientAddress, decimal.NewFromInt(1))
		require.NoError(t, err)
	}

	history := f.store.Snapshot().History
	require.Len(t, history, 2)
	assert.Equal(t, "SIG2", history[0].Signature)
	assert.Equal(t, "SIG1", history[1].Signature)
	assert.Len(t, f.refresher.Calls(), 3)
	assert.False(t, f.store.Snapshot().Signing)
}

func TestExecutor_Validation(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		recipient string
		amount    decimal.Decimal
		want      error
	}{
		{name: "not connected", connected: false, recipient: recipientAddress, amount: decimal.NewFromInt(1), want: domain.ErrNotConnected},
		{name: "not connected wins over bad input", connected: false, recipient: "not-an-address", amount: decimal.Zero, want: domain.ErrNotConnected},
		{name: "malformed recipient", connected: true, recipient: "not-an-address", amount: decimal.NewFromInt(1), want: domain.ErrInvalidRecipient},
		{name: "empty recipient", connected: true, recipient: "", amount: decimal.NewFromInt(1), want: domain.ErrInvalidRecipient},
		{name: "recipient checked before amount", connected: true, recipient: "xyz", amount: decimal.NewFromInt(-5), want: domain.ErrInvalidRecipient},
		{name: "zero amount", connected: true, recipient: recipientAddress, amount: decimal.Zero, want: domain.ErrInvalidAmount},
		{name: "negative amount", connected: true, recipient: recipientAddress, amount: decimal.NewFromInt(-5), want: domain.ErrInvalidAmount},
		{name: "below one lamport", connected: true, recipient: recipientAddress, amount: decimal.RequireFromString("0.0000000001"), want: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.connected)

			sig, err := f.exec.Send(context.Background(), tt.recipient, tt.amount)
			require.Error(t, err)
			assert.Empty(t, sig)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidation(err))

			state := f.store.Snapshot()
			assert.Equal(t, err.Error(), state.Session.LastError)
			assert.Empty(t, state.History)
			assert.False(t, state.Signing)
			assert.Empty(t, f.refresher.Calls())
			f.signer.AssertNotCalled(t, "SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExecutor_SigningAlreadyPending(t *testing.T) {
	f := newFixture(t, true)
	_, ok := f.store.Dispatch(store.SigningStarted{})
	require.True(t, ok)

	_, err := f.exec.Send(context.Background(), recipientAddress, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrSigningInProgress)
	assert.True(t, f.store.Snapshot().Signing, "the pending request keeps its flag")
	f.signer.AssertNotCalled(t, "SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_SigningRefusedAfterDisconnect(t *testing.T) {
	f := newFixture(t, true)
	// disconnect landed after Send validated the session
	refused, ok := f.store.Dispatch(store.Disconnected{})
	require.True(t, ok)
	_, ok = f.store.Dispatch(store.SigningStarted{})
	require.False(t, ok)

	err := f.exec.signingRejected(refused)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.NotErrorIs(t, err, domain.ErrSigningInProgress)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, err.Error(), f.store.Snapshot().Session.LastError)
}

func TestExecutor_ProviderFailure(t *testing.T) {
	tests := []struct {
		name string
		sig  string
		err  error
	}{
		{name: "provider error", err: errors.New("user rejected")},
		{name: "empty signature", sig: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything).Return(tt.sig, tt.err).Once()

			_, err := f.exec.Send(context.Background(), recipientAddress, decimal.NewFromInt(1))
			require.Error(t, err)
			assert.True(t, domain.IsTransaction(err))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}

			state := f.store.Snapshot()
			assert.False(t, state.Signing)
			assert.Empty(t, state.History)
			assert.Equal(t, err.Error(), state.Session.LastError)
			assert.Empty(t, f.refresher.Calls())
		})
	}
}

func TestExecutor_Pay(t *testing.T) {
	t.Run("connects first", func(t *testing.T) {
		f := newFixture(t, false)
		conn := &fakeConnector{st: f.store}
		f.exec.connector = conn
		f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything,
			domain.TransactionOptions{ComputeUnitLimit: 200_000, FeeToken: domain.FeeTokenNative}).
			Return("PAYSIG", nil).Once()

		sig, err := f.exec.Pay(context.Background(), recipientAddress, decimal.NewFromInt(1), domain.FeeTokenNative)
		require.NoError(t, err)
		assert.Equal(t, "PAYSIG", sig)
		assert.Equal(t, 1, conn.calls)
	})

	t.Run("already connected", func(t *testing.T) {
		f := newFixture(t, true)
		conn := &fakeConnector{st: f.store}
		f.exec.connector = conn
		f.signer.On("SignAndSendTransaction", mock.Anything, mock.Anything,
			domain.TransactionOptions{ComputeUnitLimit: 200_000, FeeToken: domain.FeeTokenStable}).
			Return("PAYSIG", nil).Once()

		_, err := f.exec.Pay(context.Background(), recipientAddress, decimal.NewFromInt(1), "bogus")
		require.NoError(t, err)
		assert.Zero(t, conn.calls)
	})

	t.Run("connect failure", func(t *testing.T) {
		f := newFixture(t, false)
		connErr := &domain.ConnectionError{Op: "connect", Err: errors.New("cancelled")}
		f.exec.connector = &fakeConnector{st: f.store, err: connErr}

		_, err := f.exec.Pay(context.Background(), recipientAddress, decimal.NewFromInt(1), domain.FeeTokenStable)
		require.Error(t, err)
		assert.True(t, domain.IsConnection(err))
		f.signer.AssertNotCalled(t, "SignAndSendTransaction", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExecutor_MaxSendable(t *testing.T) {
	f := newFixture(t, true)

	assert.Equal(t, "1.999", f.exec.MaxSendable(decimal.RequireFromString("2.0000")).String())
	assert.Equal(t, "1.9990", domain.FormatNative(f.exec.MaxSendable(decimal.RequireFromString("2.0000"))))
	assert.True(t, f.exec.MaxSendable(decimal.RequireFromString("0.0005")).IsZero())
	assert.Equal(t, "0.1224", f.exec.MaxSendable(decimal.RequireFromString("0.12345678")).String())
}

func TestNewExecutor_Defaults(t *testing.T) {
	exec := NewExecutor(nil, nil, nil, nil, Config{FeeToken: "weird"}, nil, nil)
	assert.Equal(t, domain.DefaultComputeUnitLimit, exec.cfg.ComputeUnitLimit)
	assert.Equal(t, domain.FeeTokenStable, exec.cfg.FeeToken)
}
