package store

import "github.com/vadiminshakov/passkeywallet/internal/domain"

// Event state transition request.
type Event interface {
	Name() string
}

// ConnectStarted provider authentication begins.
type ConnectStarted struct {
	SessionID string
}

// ConnectSucceeded provider yielded a credential.
type ConnectSucceeded struct {
	Credential domain.Credential
}

// ConnectFailed provider authentication failed.
type ConnectFailed struct {
	Err string
}

// Disconnected local teardown, applied regardless of provider outcome.
type Disconnected struct{}

// RefreshStarted allocates the next refresh sequence.
type RefreshStarted struct {
	Address string
}

// TokensRefreshed result of one refresh cycle.
type TokensRefreshed struct {
	Seq     uint64
	Address string
	Quote   domain.PriceQuote
	Tokens  []domain.TokenSnapshot
}

// SigningStarted a transfer or message signature is requested.
type SigningStarted struct{}

// SigningFinished a message signature completed.
type SigningFinished struct{}

// SigningFailed a signature request failed.
type SigningFailed struct {
	Err string
}

// TransferSucceeded provider returned a signature for a transfer.
type TransferSucceeded struct {
	Record domain.TransactionRecord
}

// ErrorRecorded stores a message in the session error field only.
type ErrorRecorded struct {
	Err string
}

func (ConnectStarted) Name() string    { return "connect_started" }
func (ConnectSucceeded) Name() string  { return "connect_succeeded" }
func (ConnectFailed) Name() string     { return "connect_failed" }
func (Disconnected) Name() string      { return "disconnected" }
func (RefreshStarted) Name() string    { return "refresh_started" }
func (TokensRefreshed) Name() string   { return "tokens_refreshed" }
func (SigningStarted) Name() string    { return "signing_started" }
func (SigningFinished) Name() string   { return "signing_finished" }
func (SigningFailed) Name() string     { return "signing_failed" }
func (TransferSucceeded) Name() string { return "transfer_succeeded" }
func (ErrorRecorded) Name() string     { return "error_recorded" }
