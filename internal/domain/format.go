package domain

import "github.com/shopspring/decimal"

// TruncateAddress shortens an address to "ABCD...WXYZ" keeping chars on each end.
func TruncateAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}

// FormatNative renders a native amount with 4 decimal places.
func FormatNative(amount decimal.Decimal) string {
	return amount.StringFixed(4)
}

// FormatStable renders a stablecoin or usd amount with 2 decimal places.
func FormatStable(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
