package gamut

import (
	"errors"
	"math"
	"testing"
)

func mustLogBin(t *testing.T, cfg BinConfig) *LogBin {
	t.Helper()
	b, err := NewLogBin(cfg)
	if err != nil {
		t.Fatalf("NewLogBin(%+v): %v", cfg, err)
	}
	return b
}

func TestNewLogBin_InvalidConfig(t *testing.T) {
	cases := []BinConfig{
		{MinExponent: -6, MaxExponent: 2, NumBins: 0},
		{MinExponent: -6, MaxExponent: 2, NumBins: -3},
		{MinExponent: 2, MaxExponent: 2, NumBins: 8},
		{MinExponent: 3, MaxExponent: 2, NumBins: 8},
	}
	for _, cfg := range cases {
		if _, err := NewLogBin(cfg); !errors.Is(err, ErrInvalidBinConfig) {
			t.Errorf("NewLogBin(%+v) error = %v, want ErrInvalidBinConfig", cfg, err)
		}
	}
}

func TestAddEntry_Overflow(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	if _, ok := b.AddEntry(100.1); ok {
		t.Error("AddEntry(100.1) returned a bin, want overflow")
	}
	if got := b.Overflow(); got != 1 {
		t.Errorf("Overflow() = %d, want 1", got)
	}
}

func TestAddEntry_TopBin(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	// The exact high boundary and values barely above the bin's low edge all
	// belong in bin 0.
	for _, v := range []float64{100.0, 10.000001, 10.000002} {
		ix, ok := b.AddEntry(v)
		if !ok {
			t.Fatalf("AddEntry(%v) overflowed or underflowed", v)
		}
		if ix != 0 {
			t.Errorf("AddEntry(%v) = bin %d, want bin 0", v, ix)
		}
	}
	if got := b.Count(0); got != 3 {
		t.Errorf("Count(0) = %d, want 3", got)
	}
	if got := b.Overflow(); got != 0 {
		t.Errorf("Overflow() = %d, want 0", got)
	}
}

func TestAddEntry_Underflow(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	for _, v := range []float64{1e-6, 9e-7, 1e-12} {
		if _, ok := b.AddEntry(v); ok {
			t.Errorf("AddEntry(%v) returned a bin, want underflow", v)
		}
	}
	if got := b.Underflow(); got != 3 {
		t.Errorf("Underflow() = %d, want 3", got)
	}
}

func TestAddEntry_BottomBin(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	ix, ok := b.AddEntry(1e-5)
	if !ok {
		t.Fatal("AddEntry(1e-5) underflowed, want bin 7")
	}
	if ix != 7 {
		t.Errorf("AddEntry(1e-5) = bin %d, want bin 7", ix)
	}
	if got := b.Underflow(); got != 0 {
		t.Errorf("Underflow() = %d, want 0", got)
	}
}

func TestAddEntry_ZeroUnderflows(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})
	if _, ok := b.AddEntry(0); ok {
		t.Error("AddEntry(0) returned a bin, want underflow")
	}
	if got := b.Underflow(); got != 1 {
		t.Errorf("Underflow() = %d, want 1", got)
	}
}

func TestEntries_SumInvariant(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	values := []float64{1e3, 100, 50, 1.5, 0.02, 3e-4, 1e-7, 0, 7e-6, 42}
	for _, v := range values {
		b.AddEntry(v)
	}
	if got, want := b.Entries(), uint64(len(values)); got != want {
		t.Errorf("Entries() = %d, want %d", got, want)
	}
}

func TestBinBounds_RangeError(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	for _, ix := range []int{-1, 8, 100} {
		if _, _, err := b.BinBounds(ix); !errors.Is(err, ErrBinIndexOutOfRange) {
			t.Errorf("BinBounds(%d) error = %v, want ErrBinIndexOutOfRange", ix, err)
		}
	}
}

func TestBinBounds_RoundTrip(t *testing.T) {
	b := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})

	for ix := 0; ix < b.NumBins(); ix++ {
		lo, hi, err := b.BinBounds(ix)
		if err != nil {
			t.Fatalf("BinBounds(%d): %v", ix, err)
		}
		if lo >= hi {
			t.Fatalf("BinBounds(%d) = (%g, %g), want lower < upper", ix, lo, hi)
		}
		// Geometric midpoint is strictly inside the interval.
		mid := math.Sqrt(lo * hi)
		got, ok := b.AddEntry(mid)
		if !ok {
			t.Fatalf("AddEntry(%g) left the range for bin %d", mid, ix)
		}
		if got != ix {
			t.Errorf("AddEntry(%g) = bin %d, want bin %d", mid, got, ix)
		}
	}
}

func TestMerge(t *testing.T) {
	cfg := BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8}
	a := mustLogBin(t, cfg)
	b := mustLogBin(t, cfg)

	a.AddEntry(50)   // bin 0
	a.AddEntry(1e-7) // underflow
	b.AddEntry(60)   // bin 0
	b.AddEntry(1e9)  // overflow

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := a.Count(0); got != 2 {
		t.Errorf("Count(0) after merge = %d, want 2", got)
	}
	if a.Overflow() != 1 || a.Underflow() != 1 {
		t.Errorf("after merge overflow = %d, underflow = %d, want 1 and 1", a.Overflow(), a.Underflow())
	}
	if got := a.Entries(); got != 4 {
		t.Errorf("Entries() after merge = %d, want 4", got)
	}
}

func TestMerge_ConfigMismatch(t *testing.T) {
	a := mustLogBin(t, BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8})
	b := mustLogBin(t, BinConfig{MinExponent: -4, MaxExponent: 2, NumBins: 8})
	if err := a.Merge(b); !errors.Is(err, ErrInvalidBinConfig) {
		t.Errorf("Merge with mismatched config error = %v, want ErrInvalidBinConfig", err)
	}
}
