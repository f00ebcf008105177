package gamut

import (
	"fmt"
	"io"
	"strings"
)

// OctantKey identifies one of the eight sign regions of tristimulus space.
// An entry is true when that channel is negative in the octant. The all-false
// key is the in-gamut region and is never analyzed.
type OctantKey [NumChannels]bool

// Label renders a key as one sign rune per channel, e.g. "-+-" for an octant
// where only the first and third channels are negative.
func (k OctantKey) Label() string {
	var b strings.Builder
	for _, neg := range k {
		if neg {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
	}
	return b.String()
}

// IsTrivial reports whether the key names the all-positive in-gamut octant.
func (k OctantKey) IsTrivial() bool {
	return !k[0] && !k[1] && !k[2]
}

// OctantKeys returns the seven non-trivial keys in a stable order.
func OctantKeys() []OctantKey {
	keys := make([]OctantKey, 0, 7)
	for bits := 1; bits < 8; bits++ {
		keys = append(keys, OctantKey{
			bits&4 != 0,
			bits&2 != 0,
			bits&1 != 0,
		})
	}
	return keys
}

// Octant characterizes the pixels falling in one sign region: a 3-D cubelet
// histogram over the channels' log-magnitude bins, one LogBin per channel,
// and a register set scoped to the octant.
type Octant struct {
	Key       OctantKey
	Registers *RegisterSet

	bins     [NumChannels]*LogBin
	cubelets []uint64
	numBins  int
	samples  uint64
}

// NewOctant builds an empty octant for the given key and binning
// configuration.
func NewOctant(key OctantKey, channels []string, cfg BinConfig) (*Octant, error) {
	o := &Octant{
		Key:       key,
		Registers: NewRegisterSet("octant["+key.Label()+"]", channels),
		numBins:   cfg.NumBins,
	}
	for c := range o.bins {
		b, err := NewLogBin(cfg)
		if err != nil {
			return nil, err
		}
		o.bins[c] = b
	}
	o.cubelets = make([]uint64, cfg.NumBins*cfg.NumBins*cfg.NumBins)
	return o, nil
}

// Membership computes the pixel mask for this octant: a pixel belongs iff
// every channel's sign matches the key. Masks for distinct keys are
// mutually exclusive.
func (o *Octant) Membership(im *Image) Mask {
	m := make(Mask, im.NumPixels())
	for i, p := range im.Pix {
		m[i] = o.contains(p)
	}
	return m
}

func (o *Octant) contains(p Pixel) bool {
	for c, neg := range o.Key {
		if neg {
			if p[c] >= 0 {
				return false
			}
		} else if p[c] < 0 {
			return false
		}
	}
	return true
}

// Reflect maps a member pixel into the all-positive octant by negating each
// channel the key marks negative. The reflected pixel is used only for
// binning; registers always see original values so sign-dependent tests
// stay meaningful.
func (o *Octant) Reflect(p Pixel) Pixel {
	for c, neg := range o.Key {
		if neg {
			p[c] = -p[c]
		}
	}
	return p
}

// Tally files every member pixel of the image into the octant's histograms
// and registers. A pixel contributes a cubelet increment only when all three
// channels land in a valid bin; over- and underflowing pixels still reach
// the register set.
func (o *Octant) Tally(im *Image) {
	mask := o.Membership(im)
	o.TallyMasked(im, mask)
}

// TallyMasked is Tally with a precomputed membership mask, letting a frame
// characterization share sign masks across octants.
func (o *Octant) TallyMasked(im *Image, mask Mask) {
	o.binMembers(im, mask)
	o.Registers.Tally(im, mask)
}

// TallyIndexed is TallyMasked with an Indices cache for the registers.
func (o *Octant) TallyIndexed(im *Image, mask Mask, ix *Indices) {
	o.binMembers(im, mask)
	o.Registers.TallyIndexed(im, mask, ix)
}

func (o *Octant) binMembers(im *Image, mask Mask) {
	o.samples = mask.CountSet()
	for i, p := range im.Pix {
		if !mask[i] {
			continue
		}
		fp := o.Reflect(p)
		var ix [NumChannels]int
		valid := true
		for c := 0; c < NumChannels; c++ {
			bin, ok := o.bins[c].AddEntry(fp[c])
			if !ok {
				valid = false
				continue
			}
			ix[c] = bin
		}
		if valid {
			o.cubelets[(ix[0]*o.numBins+ix[1])*o.numBins+ix[2]]++
		}
	}
}

// Samples returns the number of pixels assigned to this octant by the most
// recent tally.
func (o *Octant) Samples() uint64 { return o.samples }

// Bin returns the per-channel magnitude histogram for channel c.
func (o *Octant) Bin(c int) *LogBin { return o.bins[c] }

// Cubelet returns the joint histogram cell at the given per-channel bin
// indices.
func (o *Octant) Cubelet(i, j, k int) uint64 {
	return o.cubelets[(i*o.numBins+j)*o.numBins+k]
}

// CubeletTotal returns the number of pixels recorded in the joint
// histogram. It can be below Samples when channels over- or underflowed.
func (o *Octant) CubeletTotal() uint64 {
	var n uint64
	for _, c := range o.cubelets {
		n += c
	}
	return n
}

// Merge adds another octant's histograms and registers into this one.
// Both octants must share key and configuration.
func (o *Octant) Merge(other *Octant) error {
	if other.Key != o.Key {
		return fmt.Errorf("cannot merge octant %s into %s", other.Key.Label(), o.Key.Label())
	}
	if other.numBins != o.numBins {
		return fmt.Errorf("%w: octant %s bin counts differ", ErrInvalidBinConfig, o.Key.Label())
	}
	o.samples += other.samples
	for c := range o.bins {
		if err := o.bins[c].Merge(other.bins[c]); err != nil {
			return err
		}
	}
	for i, n := range other.cubelets {
		o.cubelets[i] += n
	}
	return o.Registers.Merge(other.Registers)
}

// AddToColumns flattens the octant's sample count and registers into cols.
// Empty octants contribute nothing.
func (o *Octant) AddToColumns(cols Columns) {
	if o.samples == 0 {
		return
	}
	cols["octant["+o.Key.Label()+"].samples"] = float64(o.samples)
	cols["octant["+o.Key.Label()+"].cubelet_total"] = float64(o.CubeletTotal())
	o.Registers.AddToColumns(cols)
}

// Summarize writes a report of the octant. Octants that saw no pixels are
// omitted entirely.
func (o *Octant) Summarize(w io.Writer, indent int) {
	if o.samples == 0 {
		return
	}
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(w, "%soctant %s: %d pixels (%d fully binned)\n",
		pad, o.Key.Label(), o.samples, o.CubeletTotal())
	for c, b := range o.bins {
		if b.Entries() == 0 {
			continue
		}
		fmt.Fprintf(w, "%s  channel %d magnitudes:", pad, c)
		for ix := 0; ix < b.NumBins(); ix++ {
			fmt.Fprintf(w, " %d", b.Count(ix))
		}
		fmt.Fprintf(w, " (over %d, under %d)\n", b.Overflow(), b.Underflow())
	}
	o.Registers.Summarize(w, indent+1)
}
