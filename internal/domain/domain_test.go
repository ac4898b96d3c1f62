package domain

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testAddress = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func TestLinks(t *testing.T) {
	links := Links{ExplorerURL: DefaultExplorerURL, FaucetURL: DefaultFaucetURL, Network: NetworkDevnet}

	assert.Equal(t, "https://explorer.solana.com/tx/SIG123?cluster=devnet", links.TxURL("SIG123"))
	assert.Equal(t, "https://explorer.solana.com/address/"+testAddress+"?cluster=devnet", links.AddressURL(testAddress))
	assert.Equal(t, "https://faucet.solana.com?address="+testAddress, links.FaucetLink(testAddress))

	links.Network = NetworkMainnet
	assert.Equal(t, "https://explorer.solana.com/tx/SIG123?cluster=mainnet", links.TxURL("SIG123"))
}

func TestAddressValidation(t *testing.T) {
	assert.True(t, IsValidAddress(testAddress))
	assert.True(t, IsValidAddress("11111111111111111111111111111111"))
	assert.False(t, IsValidAddress("not-an-address"))
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
}

func TestIsValidSignature(t *testing.T) {
	sig := base58.Encode(bytes.Repeat([]byte{7}, 64))
	assert.True(t, IsValidSignature(sig))
	assert.False(t, IsValidSignature(base58.Encode(bytes.Repeat([]byte{7}, 32))))
	assert.False(t, IsValidSignature("SIG123"))
	assert.False(t, IsValidSignature("0OIl"))
}

func TestTruncateAddress(t *testing.T) {
	assert.Equal(t, "9WzD...AWWM", TruncateAddress(testAddress, 4))
	assert.Equal(t, "9WzDXw...YtAWWM", TruncateAddress(testAddress, 6))
	assert.Equal(t, "short", TruncateAddress("short", 4))
	assert.Equal(t, "", TruncateAddress("", 4))
}

func TestNewNativeSnapshot(t *testing.T) {
	quote := PriceQuote{PriceUSD: decimal.NewFromInt(150), Change24hPct: decimal.NewFromFloat(-1.25)}
	snap := NewNativeSnapshot(decimal.NewFromFloat(2.5), quote)

	assert.Equal(t, NativeSymbol, snap.Symbol)
	assert.Equal(t, NativeMint, snap.Mint)
	assert.Equal(t, NativeDecimals, snap.Decimals)
	assert.True(t, snap.USDValue.Equal(decimal.NewFromInt(375)))
	assert.True(t, snap.PriceChange24hPct.Equal(decimal.NewFromFloat(-1.25)))

	clamped := NewNativeSnapshot(decimal.NewFromInt(-3), quote)
	assert.True(t, clamped.Balance.IsZero())
	assert.True(t, clamped.USDValue.IsZero())
}

func TestTotalUSDValue(t *testing.T) {
	tokens := []TokenSnapshot{
		NewNativeSnapshot(decimal.NewFromInt(1), PriceQuote{PriceUSD: decimal.NewFromInt(100)}),
		NewNativeSnapshot(decimal.NewFromInt(3), PriceQuote{PriceUSD: decimal.NewFromInt(10)}),
	}
	assert.True(t, TotalUSDValue(tokens).Equal(decimal.NewFromInt(130)))
	assert.True(t, TotalUSDValue(nil).IsZero())
}

func TestChange24hUSD(t *testing.T) {
	got := Change24hUSD(decimal.NewFromInt(200), decimal.NewFromFloat(2.5))
	assert.True(t, got.Equal(decimal.NewFromInt(5)))
}

func TestErrorTaxonomy(t *testing.T) {
	v := NewValidationError(ErrInvalidRecipient, "not-an-address")
	wrapped := fmt.Errorf("send: %w", v)
	assert.True(t, IsValidation(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidRecipient)
	assert.Equal(t, "invalid recipient address: not-an-address", v.Error())

	c := &ConnectionError{Op: "connect", Err: errors.New("user cancelled")}
	assert.True(t, IsConnection(c))
	assert.False(t, IsValidation(c))

	tx := &TransactionError{Err: errors.New("blockhash expired")}
	assert.True(t, IsTransaction(tx))
	assert.Equal(t, "transaction failed: blockhash expired", tx.Error())
}
