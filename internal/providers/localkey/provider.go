// Package localkey is a wallet provider backed by a solana-keygen keypair file.
// It stands in for the passkey smart wallet on devnet; fee sponsorship is not
// available and fees are always paid in the native asset.
package localkey

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

var errNotConnected = errors.New("keypair provider not connected")

// Provider signs with a local ed25519 key and submits through a cluster RPC node.
type Provider struct {
	keyPath string
	rpc     *rpc.Client
	logger  *zap.Logger

	mu  sync.Mutex
	key solana.PrivateKey
}

// New creates a Provider reading the keypair at keyPath on Connect.
func New(keyPath string, client *rpc.Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{keyPath: keyPath, rpc: client, logger: logger}
}

// Connect loads the keypair and returns its address.
func (p *Provider) Connect(_ context.Context) (domain.Credential, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(p.keyPath)
	if err != nil {
		return domain.Credential{}, errors.Wrapf(err, "load keypair %s", p.keyPath)
	}

	p.mu.Lock()
	p.key = key
	p.mu.Unlock()

	return domain.Credential{
		Address:      key.PublicKey().String(),
		CredentialID: "keypair:" + filepath.Base(p.keyPath),
	}, nil
}

// Disconnect forgets the loaded key.
func (p *Provider) Disconnect(_ context.Context) error {
	p.mu.Lock()
	p.key = nil
	p.mu.Unlock()
	return nil
}

// SignAndSendTransaction prepends the compute budget request, signs with the
// local key as fee payer and submits the transaction.
func (p *Provider) SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts domain.TransactionOptions) (string, error) {
	key, err := p.currentKey()
	if err != nil {
		return "", err
	}
	payer := key.PublicKey()

	if opts.FeeToken == domain.FeeTokenStable {
		p.logger.Warn("fee sponsorship unavailable for local keypair, paying fees in native asset",
			zap.String("payer", payer.String()))
	}

	all := instructions
	if opts.ComputeUnitLimit > 0 {
		all = make([]solana.Instruction, 0, len(instructions)+1)
		all = append(all, computebudget.NewSetComputeUnitLimitInstruction(opts.ComputeUnitLimit).Build())
		all = append(all, instructions...)
	}

	recent, err := p.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", errors.Wrap(err, "get latest blockhash")
	}

	tx, err := solana.NewTransaction(all, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return "", errors.Wrap(err, "build transaction")
	}

	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(payer) {
			return &key
		}
		return nil
	}); err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}

	sig, err := p.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", errors.Wrap(err, "send transaction")
	}

	p.logger.Debug("transaction submitted", zap.String("signature", sig.String()))
	return sig.String(), nil
}

// SignMessage signs message with the local key.
func (p *Provider) SignMessage(_ context.Context, message []byte) (string, error) {
	key, err := p.currentKey()
	if err != nil {
		return "", err
	}
	sig, err := key.Sign(message)
	if err != nil {
		return "", errors.Wrap(err, "sign message")
	}
	return sig.String(), nil
}

func (p *Provider) currentKey() (solana.PrivateKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.key == nil {
		return nil, errNotConnected
	}
	return p.key, nil
}
