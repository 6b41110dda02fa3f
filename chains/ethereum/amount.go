package ethereum

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxDecimals bounds the precision an Amount accepts.
const MaxDecimals = 36

var ErrNegativeAmount = errors.New("amount must not be negative")

// Amount is a token quantity held in base units together with the token's
// decimal precision.
type Amount struct {
	wei      *big.Int
	decimals int32
}

// NewAmount converts a human readable value into base units. Digits beyond
// the precision are truncated.
func NewAmount(value decimal.Decimal, decimals int32) Amount {
	return Amount{
		wei:      value.Shift(decimals).Truncate(0).BigInt(),
		decimals: decimals,
	}
}

// ParseAmount parses a decimal string such as "0.25" with the given precision.
func ParseAmount(s string, decimals int32) (Amount, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return Amount{}, fmt.Errorf("invalid decimals: %d", decimals)
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if value.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	return NewAmount(value, decimals), nil
}

// AmountFromWei wraps a base unit integer.
func AmountFromWei(wei *big.Int, decimals int32) Amount {
	if wei == nil {
		wei = new(big.Int)
	}
	return Amount{wei: new(big.Int).Set(wei), decimals: decimals}
}

// Wei returns a copy of the base unit value
func (a Amount) Wei() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.wei)
}

// Ether returns the human readable value.
func (a Amount) Ether() decimal.Decimal {
	return decimal.NewFromBigInt(a.Wei(), -a.decimals)
}

func (a Amount) Decimals() int32 {
	return a.decimals
}

func (a Amount) IsZero() bool {
	return a.wei == nil || a.wei.Sign() == 0
}

// Cmp compares base unit values. Both amounts must share a precision.
func (a Amount) Cmp(b Amount) int {
	return a.Wei().Cmp(b.Wei())
}

// Fraction returns numerator/denominator of the amount, rounded down.
func (a Amount) Fraction(numerator, denominator int64) Amount {
	wei := a.Wei()
	wei.Mul(wei, big.NewInt(numerator))
	wei.Quo(wei, big.NewInt(denominator))
	return Amount{wei: wei, decimals: a.decimals}
}

func (a Amount) String() string {
	return a.Ether().String()
}

// EtherToWei converts a value of an 18-decimal coin into wei.
func EtherToWei(value decimal.Decimal) *big.Int {
	return NewAmount(value, 18).Wei()
}

// WeiToEther converts wei into the value of an 18-decimal coin.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return AmountFromWei(wei, 18).Ether()
}
