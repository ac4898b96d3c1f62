// Package domain defines core data structures used throughout the wallet session layer.
package domain

// ConnectionState lifecycle state of the wallet session.
type ConnectionState string

const (
	// StateDisconnected no wallet attached.
	StateDisconnected ConnectionState = "disconnected"
	// StateConnecting provider authentication in flight.
	StateConnecting ConnectionState = "connecting"
	// StateConnected provider returned an address.
	StateConnected ConnectionState = "connected"
)

// String returns the string representation.
func (s ConnectionState) String() string {
	return string(s)
}

// WalletSession the single live wallet session of the process.
type WalletSession struct {
	// ID correlates log lines of one connect attempt and everything after it.
	ID              string          `json:"id,omitempty"`
	Address         string          `json:"address,omitempty"`
	CredentialID    string          `json:"credential_id,omitempty"`
	ConnectionState ConnectionState `json:"connection_state"`
	LastError       string          `json:"last_error,omitempty"`
}

// IsConnected reports whether the session holds a usable address.
func (s WalletSession) IsConnected() bool {
	return s.ConnectionState == StateConnected && s.Address != ""
}

// Credential is what a wallet provider yields after successful authentication.
type Credential struct {
	// Address smart wallet address.
	Address string
	// CredentialID passkey credential identifier.
	CredentialID string
}
