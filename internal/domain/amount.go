package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// SOLDecimals is the decimal precision of SOL.
const SOLDecimals = 9

// ErrInvalidAmount is returned for amounts that are not positive decimal numbers.
var ErrInvalidAmount = errors.New("Please enter a valid amount")

// ParseAmount parses a user-entered decimal amount. It must be strictly positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToBaseUnits converts amount to base units at decimals, truncating any
// fraction finer than one base unit.
func ToBaseUnits(amount decimal.Decimal, decimals int) (uint64, error) {
	base := amount.Shift(int32(decimals)).Truncate(0)
	if base.IsNegative() {
		return 0, ErrInvalidAmount
	}
	bi := base.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64 base units", amount)
	}
	return bi.Uint64(), nil
}

// FromBaseUnits converts base units to a decimal amount at decimals.
func FromBaseUnits(units uint64, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// FormatSOL renders lamports as a SOL string without trailing zeros.
func FormatSOL(lamports uint64) string {
	return FromBaseUnits(lamports, SOLDecimals).String()
}

// SOLToLamports parses a SOL amount string into lamports.
func SOLToLamports(s string) (uint64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return ToBaseUnits(d, SOLDecimals)
}

// ShortAddress renders the first and last eight characters of addr.
func ShortAddress(addr string) string {
	if len(addr) <= 16 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-8:]
}
