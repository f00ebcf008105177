package gamut

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
)

// Census aggregates per-frame characterizations across a sequence. The
// reduction is purely additive: counters and cubelet cells sum, while
// latches re-compare each frame's held value through their original
// comparator so the census holds the sequence-wide extremum.
type Census struct {
	Overall *RegisterSet
	Octants []*Octant

	frames       int
	pixels       uint64
	inGamut      uint64
	negFractions []float64
}

// NewCensus builds an empty census matching the given channel names and
// binning configuration. Every frame added later must share them.
func NewCensus(channels []string, cfg BinConfig) (*Census, error) {
	c := &Census{
		Overall: NewRegisterSet("overall", channels),
	}
	for _, key := range OctantKeys() {
		o, err := NewOctant(key, channels, cfg)
		if err != nil {
			return nil, err
		}
		c.Octants = append(c.Octants, o)
	}
	return c, nil
}

// Add folds one tallied frame characterization into the census.
func (c *Census) Add(fc *FrameC18n) error {
	if err := c.Overall.Merge(fc.Overall); err != nil {
		return fmt.Errorf("census merge %q: %w", fc.Path, err)
	}
	if len(fc.Octants) != len(c.Octants) {
		return fmt.Errorf("census merge %q: octant count mismatch", fc.Path)
	}
	for i, o := range fc.Octants {
		if err := c.Octants[i].Merge(o); err != nil {
			return fmt.Errorf("census merge %q: %w", fc.Path, err)
		}
	}
	total := uint64(fc.Image().NumPixels())
	inGamut := fc.InGamutPixels()
	c.frames++
	c.pixels += total
	c.inGamut += inGamut
	if total > 0 {
		c.negFractions = append(c.negFractions, float64(total-inGamut)/float64(total))
	}
	return nil
}

// Frames returns the number of frames folded in so far.
func (c *Census) Frames() int { return c.frames }

// Pixels returns the total pixels seen across all frames.
func (c *Census) Pixels() uint64 { return c.pixels }

// InGamutPixels returns the total pixels with no negative channel.
func (c *Census) InGamutPixels() uint64 { return c.inGamut }

// NegativeFraction returns the mean and standard deviation of the per-frame
// fraction of pixels with at least one negative channel.
func (c *Census) NegativeFraction() (mean, stddev float64) {
	switch len(c.negFractions) {
	case 0:
		return 0, 0
	case 1:
		return c.negFractions[0], 0
	}
	return stat.MeanStdDev(c.negFractions, nil)
}

// Summarize writes a nested report of the sequence-wide aggregate.
func (c *Census) Summarize(w io.Writer) {
	mean, stddev := c.NegativeFraction()
	fmt.Fprintf(w, "census: %d frames, %d pixels, %d in gamut (negative fraction %.6f ± %.6f per frame)\n",
		c.frames, c.pixels, c.inGamut, mean, stddev)
	c.Overall.Summarize(w, 1)
	for _, o := range c.Octants {
		o.Summarize(w, 1)
	}
}
