package gamut

import (
	"errors"
	"fmt"
	"math"
)

// binTolerance is the single numeric tolerance used by LogBin boundary
// checks: four times the float64 machine epsilon. It keeps values landing
// exactly on a configured boundary from being miscounted as overflow or
// dropped into the wrong bin by log10 jitter.
var binTolerance = 4 * (math.Nextafter(1, 2) - 1)

// ErrInvalidBinConfig reports an unusable LogBin configuration.
var ErrInvalidBinConfig = errors.New("invalid bin configuration")

// ErrBinIndexOutOfRange reports a bin index outside [0, NumBins).
var ErrBinIndexOutOfRange = errors.New("bin index out of range")

// BinConfig is the shared logarithmic binning configuration for one
// characterization: a closed base-10 exponent range split into NumBins bins.
type BinConfig struct {
	MinExponent float64
	MaxExponent float64
	NumBins     int
}

// DefaultBinConfig covers magnitudes from 1e-6 up to 1e+2 in one-decade bins.
func DefaultBinConfig() BinConfig {
	return BinConfig{MinExponent: -6, MaxExponent: 2, NumBins: 8}
}

// Validate checks the configuration can construct a LogBin.
func (c BinConfig) Validate() error {
	if c.NumBins <= 0 {
		return fmt.Errorf("%w: num_bins %d must be positive", ErrInvalidBinConfig, c.NumBins)
	}
	if c.MinExponent >= c.MaxExponent {
		return fmt.Errorf("%w: min exponent %g must be below max exponent %g",
			ErrInvalidBinConfig, c.MinExponent, c.MaxExponent)
	}
	return nil
}

// LogBin is a one-dimensional histogram over base-10 log magnitudes.
// Bin 0 holds the largest magnitudes; magnitudes outside the configured
// exponent range land in the overflow or underflow counter instead of a bin.
type LogBin struct {
	minExp    float64
	maxExp    float64
	bins      []uint64
	overflow  uint64
	underflow uint64
}

// NewLogBin builds an empty histogram for the given configuration.
func NewLogBin(cfg BinConfig) (*LogBin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LogBin{
		minExp: cfg.MinExponent,
		maxExp: cfg.MaxExponent,
		bins:   make([]uint64, cfg.NumBins),
	}, nil
}

// lerp maps x from [minDomain, maxDomain] onto [minRange, maxRange].
func lerp(x, minDomain, maxDomain, minRange, maxRange float64) float64 {
	return minRange + (maxRange-minRange)*(x-minDomain)/(maxDomain-minDomain)
}

// AddEntry files one magnitude. The value must already be sign-reflected by
// the caller, i.e. conceptually positive; a zero value logs to -Inf and is
// counted as underflow. The returned index is valid only when ok is true;
// overflow and underflow return ok == false.
func (b *LogBin) AddEntry(value float64) (ix int, ok bool) {
	mag := math.Log10(value)
	if mag > b.maxExp+binTolerance {
		b.overflow++
		return 0, false
	}
	if mag <= b.minExp+binTolerance {
		b.underflow++
		return 0, false
	}
	// The domain runs high-to-low so larger magnitudes land in smaller
	// indices.
	ix = int(math.Floor(lerp(mag, b.maxExp, b.minExp, 0, float64(len(b.bins)))))
	if ix >= len(b.bins) {
		ix = len(b.bins) - 1
	}
	if ix < 0 {
		ix = 0
	}
	b.bins[ix]++
	return ix, true
}

// exponentForIx inverts the forward mapping, returning the exponent at the
// upper edge of bin ix.
func (b *LogBin) exponentForIx(ix int) float64 {
	return lerp(float64(ix), 0, float64(len(b.bins)), b.maxExp, b.minExp)
}

// BinBounds returns the magnitude interval (lower, upper] covered by bin ix.
func (b *LogBin) BinBounds(ix int) (lower, upper float64, err error) {
	if ix < 0 || ix >= len(b.bins) {
		return 0, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrBinIndexOutOfRange, ix, len(b.bins))
	}
	lower = math.Pow(10, b.exponentForIx(ix+1))
	upper = math.Pow(10, b.exponentForIx(ix))
	return lower, upper, nil
}

// NumBins returns the number of in-range bins.
func (b *LogBin) NumBins() int { return len(b.bins) }

// Count returns the tally of bin ix, or 0 for an out-of-range index.
func (b *LogBin) Count(ix int) uint64 {
	if ix < 0 || ix >= len(b.bins) {
		return 0
	}
	return b.bins[ix]
}

// Overflow returns the count of magnitudes above the configured range.
func (b *LogBin) Overflow() uint64 { return b.overflow }

// Underflow returns the count of magnitudes at or below the configured range.
func (b *LogBin) Underflow() uint64 { return b.underflow }

// Entries returns the total number of AddEntry calls recorded, which always
// equals overflow + underflow + the sum over all bins.
func (b *LogBin) Entries() uint64 {
	n := b.overflow + b.underflow
	for _, c := range b.bins {
		n += c
	}
	return n
}

// Config returns the configuration this histogram was built from.
func (b *LogBin) Config() BinConfig {
	return BinConfig{MinExponent: b.minExp, MaxExponent: b.maxExp, NumBins: len(b.bins)}
}

// Merge adds another histogram's counts into this one. Both histograms must
// share a configuration; merging is the additive half of cross-frame
// aggregation.
func (b *LogBin) Merge(other *LogBin) error {
	if other.minExp != b.minExp || other.maxExp != b.maxExp || len(other.bins) != len(b.bins) {
		return fmt.Errorf("%w: cannot merge histograms with different configurations", ErrInvalidBinConfig)
	}
	b.overflow += other.overflow
	b.underflow += other.underflow
	for i, c := range other.bins {
		b.bins[i] += c
	}
	return nil
}
