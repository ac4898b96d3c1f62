// Package providers holds wallet provider implementations. A provider owns the
// user's keys: it authenticates, signs and submits, and the session layer never
// sees key material.
package providers

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

// WalletProvider full provider contract.
type WalletProvider interface {
	// Connect authenticates the user and returns the smart wallet address.
	Connect(ctx context.Context) (domain.Credential, error)
	// Disconnect ends the provider session.
	Disconnect(ctx context.Context) error
	// SignAndSendTransaction signs instructions with the wallet and submits them,
	// returning the transaction signature.
	SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts domain.TransactionOptions) (string, error)
	// SignMessage signs an arbitrary message and returns the base58 signature.
	SignMessage(ctx context.Context, message []byte) (string, error)
}
