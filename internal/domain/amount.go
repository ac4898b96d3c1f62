package domain

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultMaxSendBuffer native units kept back by MaxSendable.
var DefaultMaxSendBuffer = decimal.New(1, -3)

// maxSendPlaces display precision of the MAX helper.
const maxSendPlaces = 4

// ParseAmount parses a user supplied amount. Empty, non-numeric and non-finite input is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.Wrap(ErrInvalidAmount, "amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrInvalidAmount, "parse %q", s)
	}
	return d, nil
}

// ToSmallestUnit converts a display amount to base units, always truncating toward zero
// so floating input can never over-debit.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) (uint64, error) {
	if amount.IsNegative() {
		return 0, errors.Wrapf(ErrInvalidAmount, "negative amount %s", amount.String())
	}
	units := amount.Shift(decimals).Floor().BigInt()
	if !units.IsUint64() {
		return 0, errors.Wrapf(ErrInvalidAmount, "amount %s overflows base units", amount.String())
	}
	return units.Uint64(), nil
}

// FromSmallestUnit converts base units to a display amount.
func FromSmallestUnit(units uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals)
}

// MaxSendable amount offered by the MAX helper: balance minus buffer, never negative,
// truncated to display precision.
func MaxSendable(balance, buffer decimal.Decimal) decimal.Decimal {
	available := balance.Sub(buffer)
	if !available.IsPositive() {
		return decimal.Zero
	}
	return available.Truncate(maxSendPlaces)
}
