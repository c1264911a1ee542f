package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromMinorUnitsRejectsNegative(t *testing.T) {
	if _, err := FromMinorUnits(-1); err != ErrNegative {
		t.Fatalf("expected ErrNegative, got %v", err)
	}
	m, err := FromMinorUnits(150000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MinorUnits() != 150000 {
		t.Fatalf("unexpected units %d", m.MinorUnits())
	}
}

func TestAddOverflow(t *testing.T) {
	a := MustFromMinorUnits(math.MaxInt64)
	b := MustFromMinorUnits(1)
	if _, err := a.Add(b); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}

	sum, err := MustFromMinorUnits(100).Add(MustFromMinorUnits(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.MinorUnits() != 150 {
		t.Fatalf("unexpected sum %d", sum.MinorUnits())
	}
}

func TestSubtractUnderflow(t *testing.T) {
	if _, err := MustFromMinorUnits(10).Subtract(MustFromMinorUnits(20)); err != ErrNegative {
		t.Fatalf("expected ErrNegative, got %v", err)
	}
	diff, err := MustFromMinorUnits(20).Subtract(MustFromMinorUnits(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.IsZero() {
		t.Fatalf("expected zero, got %d", diff.MinorUnits())
	}
}

func TestMultiplyByRatioRoundsUp(t *testing.T) {
	base := MustFromMinorUnits(1001)
	half := decimal.NewFromFloat(0.5)

	scaled, err := base.MultiplyByRatio(half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled.MinorUnits() != 501 {
		t.Fatalf("expected 501 after rounding up, got %d", scaled.MinorUnits())
	}

	if _, err := base.MultiplyByRatio(decimal.NewFromInt(-1)); err != ErrNegative {
		t.Fatalf("expected ErrNegative for negative ratio, got %v", err)
	}
}

func TestCompareHelpers(t *testing.T) {
	low := MustFromMinorUnits(100)
	high := MustFromMinorUnits(200)

	if low.Cmp(high) != -1 || high.Cmp(low) != 1 || low.Cmp(low) != 0 {
		t.Fatalf("Cmp ordering broken")
	}
	if !low.LessThan(high) {
		t.Fatalf("expected 100 < 200")
	}
	if !high.AtLeast(low) || !high.AtLeast(high) {
		t.Fatalf("AtLeast broken")
	}
}

func TestStringIncludesCurrency(t *testing.T) {
	if got := MustFromMinorUnits(150000).String(); got != "150000 IDR" {
		t.Fatalf("unexpected render %q", got)
	}
}
