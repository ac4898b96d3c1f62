package domain

import (
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const signatureLength = 64

// ParseAddress parses a base58 encoded 32 byte account address.
func ParseAddress(address string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(strings.TrimSpace(address))
}

// IsValidAddress reports whether address is a well-formed account address.
func IsValidAddress(address string) bool {
	_, err := ParseAddress(address)
	return err == nil
}

// IsValidSignature reports whether sig is a base58 encoded 64 byte ed25519 signature.
func IsValidSignature(sig string) bool {
	raw, err := base58.Decode(sig)
	if err != nil {
		return false
	}
	return len(raw) == signatureLength
}
