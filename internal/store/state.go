// Package store holds the single in-memory wallet state observed by the UI.
// All mutations are events applied by the pure Reduce function.
package store

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/passkeywallet/internal/domain"
)

// State whole wallet state. Values handed out by Store are deep copies.
type State struct {
	Session domain.WalletSession
	// Signing a signature request is pending at the provider.
	Signing bool
	Tokens  []domain.TokenSnapshot
	// Price last quote applied by a refresh, the fallback quote while disconnected.
	Price   domain.PriceQuote
	History []domain.TransactionRecord

	fallback   domain.PriceQuote
	refreshSeq uint64
	appliedSeq uint64
}

// NewState returns the initial disconnected state.
func NewState(fallback domain.PriceQuote) State {
	return State{
		Session:  domain.WalletSession{ConnectionState: domain.StateDisconnected},
		Price:    fallback,
		fallback: fallback,
	}
}

// TotalUSDValue derived sum of token usd values.
func (s State) TotalUSDValue() decimal.Decimal {
	return domain.TotalUSDValue(s.Tokens)
}

// NativeBalance balance of the native asset, zero when not loaded.
func (s State) NativeBalance() decimal.Decimal {
	for _, t := range s.Tokens {
		if t.Mint == domain.NativeMint {
			return t.Balance
		}
	}
	return decimal.Zero
}

// Change24hUSD usd delta over 24h implied by the native asset change percent.
func (s State) Change24hUSD() decimal.Decimal {
	if len(s.Tokens) == 0 {
		return decimal.Zero
	}
	return domain.Change24hUSD(s.TotalUSDValue(), s.Tokens[0].PriceChange24hPct)
}

// LastRefreshSeq sequence allocated by the most recent RefreshStarted.
func (s State) LastRefreshSeq() uint64 {
	return s.refreshSeq
}

// HasSignature reports whether history already holds sig.
func (s State) HasSignature(sig string) bool {
	for _, r := range s.History {
		if r.Signature == sig {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	c := s
	if s.Tokens != nil {
		c.Tokens = append([]domain.TokenSnapshot(nil), s.Tokens...)
	}
	if s.History != nil {
		c.History = append([]domain.TransactionRecord(nil), s.History...)
	}
	return c
}

// View json shape of State with derived fields materialized.
type View struct {
	Session       domain.WalletSession       `json:"session"`
	Signing       bool                       `json:"signing"`
	NativeBalance decimal.Decimal            `json:"native_balance"`
	Price         domain.PriceQuote          `json:"price"`
	TotalUSDValue decimal.Decimal            `json:"total_usd_value"`
	Change24hUSD  decimal.Decimal            `json:"change_24h_usd"`
	Tokens        []domain.TokenSnapshot     `json:"tokens"`
	History       []domain.TransactionRecord `json:"history"`
}

// View materializes derived fields.
func (s State) View() View {
	c := s.clone()
	if c.Tokens == nil {
		c.Tokens = []domain.TokenSnapshot{}
	}
	if c.History == nil {
		c.History = []domain.TransactionRecord{}
	}
	return View{
		Session:       c.Session,
		Signing:       c.Signing,
		NativeBalance: c.NativeBalance(),
		Price:         c.Price,
		TotalUSDValue: c.TotalUSDValue(),
		Change24hUSD:  c.Change24hUSD(),
		Tokens:        c.Tokens,
		History:       c.History,
	}
}
