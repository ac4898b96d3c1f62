package clients

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// NewSolanaRPC returns a JSON-RPC client for the cluster endpoint.
func NewSolanaRPC(endpoint string) *rpc.Client {
	return rpc.New(endpoint)
}
