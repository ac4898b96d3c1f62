package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a transfer relative to the wallet.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
)

// TxStatus settlement status of a transaction.
type TxStatus string

const (
	TxConfirmed TxStatus = "confirmed"
	TxPending   TxStatus = "pending"
	TxFailed    TxStatus = "failed"
)

// TransactionRecord history entry keyed by signature.
type TransactionRecord struct {
	Signature    string          `json:"signature"`
	Direction    Direction       `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
	Status       TxStatus        `json:"status"`
	Counterparty string          `json:"counterparty,omitempty"`
}

// FeeToken asset the provider should charge network fees in.
type FeeToken string

const (
	// FeeTokenNative fees paid in SOL.
	FeeTokenNative FeeToken = "NATIVE"
	// FeeTokenStable fees paid in USDC through the paymaster (gasless for the user).
	FeeTokenStable FeeToken = "STABLE"
)

// IsValid checks if the FeeToken value is valid.
func (f FeeToken) IsValid() bool {
	return f == FeeTokenNative || f == FeeTokenStable
}

// DefaultComputeUnitLimit compute budget requested for a plain transfer.
const DefaultComputeUnitLimit uint32 = 200_000

// TransactionOptions execution hints forwarded to the wallet provider.
type TransactionOptions struct {
	ComputeUnitLimit uint32
	FeeToken         FeeToken
}
