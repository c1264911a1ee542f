// Package money represents auction amounts as integer minor units of a
// single currency. Arithmetic never silently wraps; every operation that
// could overflow or go negative reports it.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Currency is the ISO 4217 code all amounts in the system share.
const Currency = "IDR"

// Money is an amount in minor units. The zero value is a valid zero amount.
type Money struct {
	units int64
}

var (
	// ErrOverflow reports arithmetic that exceeds the representable range.
	ErrOverflow = fmt.Errorf("money: amount overflow")
	// ErrNegative reports an operation that would produce a negative amount.
	ErrNegative = fmt.Errorf("money: negative amount")
)

// FromMinorUnits builds a Money from minor units. Negative inputs are
// rejected; bids and prices are never negative.
func FromMinorUnits(units int64) (Money, error) {
	if units < 0 {
		return Money{}, ErrNegative
	}
	return Money{units: units}, nil
}

// MustFromMinorUnits is FromMinorUnits for trusted constants, mostly tests.
func MustFromMinorUnits(units int64) Money {
	m, err := FromMinorUnits(units)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

func (m Money) MinorUnits() int64 {
	return m.units
}

func (m Money) IsZero() bool {
	return m.units == 0
}

// Add returns m + other, failing on overflow.
func (m Money) Add(other Money) (Money, error) {
	if m.units > math.MaxInt64-other.units {
		return Money{}, ErrOverflow
	}
	return Money{units: m.units + other.units}, nil
}

// Subtract returns m - other, failing if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if other.units > m.units {
		return Money{}, ErrNegative
	}
	return Money{units: m.units - other.units}, nil
}

// MultiplyByRatio scales the amount by a decimal ratio, rounding away from
// zero so minimum-increment math never undercuts the true threshold.
func (m Money) MultiplyByRatio(ratio decimal.Decimal) (Money, error) {
	if ratio.IsNegative() {
		return Money{}, ErrNegative
	}
	scaled := decimal.NewFromInt(m.units).Mul(ratio).Ceil()
	if scaled.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return Money{}, ErrOverflow
	}
	return Money{units: scaled.IntPart()}, nil
}

// Cmp returns -1, 0 or 1 comparing m against other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.units < other.units:
		return -1
	case m.units > other.units:
		return 1
	default:
		return 0
	}
}

func (m Money) LessThan(other Money) bool {
	return m.units < other.units
}

func (m Money) AtLeast(other Money) bool {
	return m.units >= other.units
}

// String renders the amount with the shared currency code, e.g. "150000 IDR".
func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.units, Currency)
}
