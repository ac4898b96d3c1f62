package domain

import "fmt"

// Network cluster the wallet talks to.
type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkMainnet Network = "mainnet"
)

const (
	// DefaultExplorerURL block explorer base.
	DefaultExplorerURL = "https://explorer.solana.com"
	// DefaultFaucetURL devnet faucet base.
	DefaultFaucetURL = "https://faucet.solana.com"
)

// String returns the string representation.
func (n Network) String() string {
	return string(n)
}

// IsValid checks if the Network value is valid.
func (n Network) IsValid() bool {
	return n == NetworkDevnet || n == NetworkMainnet
}

// DefaultRPCURL public RPC endpoint of the cluster.
func (n Network) DefaultRPCURL() string {
	if n == NetworkMainnet {
		return "https://api.mainnet-beta.solana.com"
	}
	return "https://api.devnet.solana.com"
}

// Links builds user-facing verification links. The formats are consumed by external
// tooling and must stay byte-stable.
type Links struct {
	ExplorerURL string
	FaucetURL   string
	Network     Network
}

// TxURL explorer page of a transaction.
func (l Links) TxURL(signature string) string {
	return fmt.Sprintf("%s/tx/%s?cluster=%s", l.ExplorerURL, signature, l.Network)
}

// AddressURL explorer page of an account.
func (l Links) AddressURL(address string) string {
	return fmt.Sprintf("%s/address/%s?cluster=%s", l.ExplorerURL, address, l.Network)
}

// FaucetLink airdrop page prefilled with address. Only meaningful on devnet.
func (l Links) FaucetLink(address string) string {
	return fmt.Sprintf("%s?address=%s", l.FaucetURL, address)
}
