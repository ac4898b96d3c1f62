package store

import "github.com/vadiminshakov/passkeywallet/internal/domain"

// Reduce applies e to s and reports whether the visible state changed.
// Invalid transitions return s unchanged; bookkeeping-only events report false. Reduce never mutates slices reachable from s.
func Reduce(s State, e Event) (State, bool) {
	switch ev := e.(type) {
	case ConnectStarted:
		if s.Session.ConnectionState != domain.StateDisconnected {
			return s, false
		}
		s.Session = domain.WalletSession{
			ID:              ev.SessionID,
			ConnectionState: domain.StateConnecting,
		}
		return s, true

	case ConnectSucceeded:
		if s.Session.ConnectionState != domain.StateConnecting || ev.Credential.Address == "" {
			return s, false
		}
		s.Session.ConnectionState = domain.StateConnected
		s.Session.Address = ev.Credential.Address
		s.Session.CredentialID = ev.Credential.CredentialID
		s.Session.LastError = ""
		return s, true

	case ConnectFailed:
		if s.Session.ConnectionState != domain.StateConnecting {
			return s, false
		}
		s.Session = domain.WalletSession{
			ID:              s.Session.ID,
			ConnectionState: domain.StateDisconnected,
			LastError:       ev.Err,
		}
		return s, true

	case Disconnected:
		s.Session = domain.WalletSession{ConnectionState: domain.StateDisconnected}
		s.Signing = false
		s.Tokens = nil
		s.History = nil
		s.Price = s.fallback
		// every refresh in flight belongs to the old session
		s.appliedSeq = s.refreshSeq
		return s, true

	case RefreshStarted:
		// bookkeeping only, nothing visible changes
		s.refreshSeq++
		return s, false

	case TokensRefreshed:
		if !s.Session.IsConnected() || s.Session.Address != ev.Address || ev.Seq <= s.appliedSeq {
			return s, false
		}
		s.Tokens = append([]domain.TokenSnapshot(nil), ev.Tokens...)
		s.Price = ev.Quote
		s.appliedSeq = ev.Seq
		return s, true

	case SigningStarted:
		if !s.Session.IsConnected() || s.Signing {
			return s, false
		}
		s.Signing = true
		s.Session.LastError = ""
		return s, true

	case SigningFinished:
		s.Signing = false
		return s, true

	case SigningFailed:
		s.Signing = false
		s.Session.LastError = ev.Err
		return s, true

	case TransferSucceeded:
		wasSigning := s.Signing
		s.Signing = false
		if !s.Session.IsConnected() || ev.Record.Signature == "" || s.HasSignature(ev.Record.Signature) {
			return s, wasSigning
		}
		history := make([]domain.TransactionRecord, 0, len(s.History)+1)
		history = append(history, ev.Record)
		s.History = append(history, s.History...)
		return s, true

	case ErrorRecorded:
		s.Session.LastError = ev.Err
		return s, true

	default:
		return s, false
	}
}
