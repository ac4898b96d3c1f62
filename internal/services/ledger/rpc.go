package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

// RPC reads balances through a cluster JSON-RPC node.
type RPC struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPC creates an RPC balance client. An empty commitment means confirmed.
func NewRPC(client *rpc.Client, commitment string) *RPC {
	c := rpc.CommitmentType(commitment)
	if commitment == "" {
		c = rpc.CommitmentConfirmed
	}
	return &RPC{client: client, commitment: c}
}

// Balance returns the lamport balance of account.
func (c *RPC) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.client.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, errors.Wrapf(err, "get balance of %s", account)
	}
	if out == nil {
		return 0, errors.Errorf("empty balance response for %s", account)
	}
	return out.Value, nil
}
