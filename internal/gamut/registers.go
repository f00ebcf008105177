package gamut

import (
	"fmt"
	"io"
	"strings"
)

// Counter is a pure tally: a description, a predicate, and a running count.
// Whole-pixel counters leave Channel at -1 and test the full pixel;
// channel counters test one sample.
type Counter struct {
	Desc    string
	Channel int

	pixelTest  func(Pixel) bool
	sampleTest func(float64) bool

	pixelIndex  func(*Indices) Mask
	sampleIndex func(*Indices, int) Mask

	count uint64
}

// Count returns the tally from the most recent register-set tally.
func (c *Counter) Count() uint64 { return c.count }

// Latch retains the most extreme eligible sample seen so far, together with
// the whole pixel it came from. The first eligible sample is held
// unconditionally; later samples replace the held value only when they
// strictly satisfy the comparator against it, so ties never replace.
type Latch struct {
	Desc    string
	Channel int

	eligible func(float64) bool
	better   func(candidate, held float64) bool

	examined uint64
	held     float64
	context  Pixel
	set      bool
}

// Examine feeds one pixel to the latch.
func (l *Latch) Examine(p Pixel) {
	v := p[l.Channel]
	if !l.eligible(v) {
		return
	}
	l.examined++
	if !l.set || l.better(v, l.held) {
		l.held = v
		l.context = p
		l.set = true
	}
}

// Held returns the latched value and whether any eligible sample has been
// examined.
func (l *Latch) Held() (float64, bool) { return l.held, l.set }

// Context returns the pixel the held value came from.
func (l *Latch) Context() Pixel { return l.context }

// Examined returns the number of eligible samples examined.
func (l *Latch) Examined() uint64 { return l.examined }

// CounterSpec and LatchSpec describe registers to construct. A RegisterSet
// builds its own registers from these, so there is no process-wide registry
// of predicates: every set owns its copy.
type CounterSpec struct {
	Desc       string
	WholePixel bool
	PixelTest  func(Pixel) bool
	SampleTest func(float64) bool

	// PixelIndex and SampleIndex name the precomputed mask this counter
	// can count from when an Indices cache is available. Counters without
	// one fall back to their predicate.
	PixelIndex  func(*Indices) Mask
	SampleIndex func(*Indices, int) Mask
}

// LatchSpec describes one latch comparator, replicated per channel.
type LatchSpec struct {
	Desc     string
	Eligible func(float64) bool
	Better   func(candidate, held float64) bool
}

// RegisterConfig lists the registers a RegisterSet is built from.
// Whole-pixel counters are instantiated once; channel counters and latches
// once per channel.
type RegisterConfig struct {
	PixelCounters   []CounterSpec
	ChannelCounters []CounterSpec
	Latches         []LatchSpec
}

// DefaultRegisterConfig returns the built-in register configuration: the
// black-pixel counter, per-channel clip and zero counters, and the four
// per-channel extremum latches. "Non-clipping" means strictly between zero
// and the representable extreme on that sign side.
func DefaultRegisterConfig() RegisterConfig {
	return RegisterConfig{
		PixelCounters: []CounterSpec{
			{
				Desc:       "black pixel count",
				WholePixel: true,
				PixelTest: func(p Pixel) bool {
					return p[0] == 0 && p[1] == 0 && p[2] == 0
				},
				PixelIndex: func(ix *Indices) Mask { return ix.Black },
			},
		},
		ChannelCounters: []CounterSpec{
			{
				Desc:        "negative clip count",
				SampleTest:  IsNegClip,
				SampleIndex: func(ix *Indices, ch int) Mask { return ix.NegClip[ch] },
			},
			{
				Desc:        "zero count",
				SampleTest:  func(v float64) bool { return v == 0 },
				SampleIndex: func(ix *Indices, ch int) Mask { return ix.Zero[ch] },
			},
			{
				Desc:        "positive clip count",
				SampleTest:  IsPosClip,
				SampleIndex: func(ix *Indices, ch int) Mask { return ix.PosClip[ch] },
			},
		},
		Latches: []LatchSpec{
			{
				Desc:     "biggest strictly negative value",
				Eligible: strictlyNegativeNonClipping,
				Better:   func(candidate, held float64) bool { return candidate < held },
			},
			{
				Desc:     "tiniest strictly negative value",
				Eligible: strictlyNegativeNonClipping,
				Better:   func(candidate, held float64) bool { return candidate > held },
			},
			{
				Desc:     "tiniest strictly positive value",
				Eligible: strictlyPositiveNonClipping,
				Better:   func(candidate, held float64) bool { return candidate < held },
			},
			{
				Desc:     "biggest strictly positive value",
				Eligible: strictlyPositiveNonClipping,
				Better:   func(candidate, held float64) bool { return candidate > held },
			},
		},
	}
}

func strictlyNegativeNonClipping(v float64) bool {
	return v < 0 && v > NegClip+clipTolerance
}

func strictlyPositiveNonClipping(v float64) bool {
	return v > 0 && v < PosClip-clipTolerance
}

// RegisterSet groups whole-pixel counters, per-channel counters, and
// per-channel latches, scoped either to an entire frame or to one octant.
type RegisterSet struct {
	Scope    string
	channels []string

	pixelCounters []*Counter
	chanCounters  []*Counter
	latches       []*Latch
}

// NewRegisterSet constructs a register set with the default registers.
func NewRegisterSet(scope string, channels []string) *RegisterSet {
	return NewRegisterSetWith(scope, channels, DefaultRegisterConfig())
}

// NewRegisterSetWith constructs a register set from an explicit
// configuration. The order of registers follows the order of specs.
func NewRegisterSetWith(scope string, channels []string, cfg RegisterConfig) *RegisterSet {
	rs := &RegisterSet{Scope: scope, channels: channels}
	for _, spec := range cfg.PixelCounters {
		rs.pixelCounters = append(rs.pixelCounters, &Counter{
			Desc:       spec.Desc,
			Channel:    -1,
			pixelTest:  spec.PixelTest,
			pixelIndex: spec.PixelIndex,
		})
	}
	for _, spec := range cfg.ChannelCounters {
		for ch := range channels {
			rs.chanCounters = append(rs.chanCounters, &Counter{
				Desc:        spec.Desc,
				Channel:     ch,
				sampleTest:  spec.SampleTest,
				sampleIndex: spec.SampleIndex,
			})
		}
	}
	for _, spec := range cfg.Latches {
		for ch := range channels {
			rs.latches = append(rs.latches, &Latch{
				Desc:     spec.Desc,
				Channel:  ch,
				eligible: spec.Eligible,
				better:   spec.Better,
			})
		}
	}
	return rs
}

// Tally applies every counter and latch to the pixels selected by the mask.
// Counter counts are recomputed (not summed) on every call, mirroring one
// tally per frame; latches keep examining across calls.
func (rs *RegisterSet) Tally(im *Image, include Mask) {
	for _, c := range rs.pixelCounters {
		c.count = 0
	}
	for _, c := range rs.chanCounters {
		c.count = 0
	}
	for i, p := range im.Pix {
		if !include[i] {
			continue
		}
		for _, c := range rs.pixelCounters {
			if c.pixelTest(p) {
				c.count++
			}
		}
		for _, c := range rs.chanCounters {
			if c.sampleTest(p[c.Channel]) {
				c.count++
			}
		}
		for _, l := range rs.latches {
			l.Examine(p)
		}
	}
}

// TallyIndexed is Tally with a precomputed Indices cache. Counters that
// name an index mask count from it directly; only predicate-only counters
// and the latches still walk the pixels.
func (rs *RegisterSet) TallyIndexed(im *Image, include Mask, ix *Indices) {
	var loopPixel, loopChan []*Counter
	for _, c := range rs.pixelCounters {
		c.count = 0
		if c.pixelIndex == nil {
			loopPixel = append(loopPixel, c)
		}
	}
	for _, c := range rs.chanCounters {
		c.count = 0
		if c.sampleIndex == nil {
			loopChan = append(loopChan, c)
		}
	}
	for i, p := range im.Pix {
		if !include[i] {
			continue
		}
		for _, c := range loopPixel {
			if c.pixelTest(p) {
				c.count++
			}
		}
		for _, c := range loopChan {
			if c.sampleTest(p[c.Channel]) {
				c.count++
			}
		}
		for _, l := range rs.latches {
			l.Examine(p)
		}
	}
	for _, c := range rs.pixelCounters {
		if c.pixelIndex != nil {
			c.count = countMasked(c.pixelIndex(ix), include)
		}
	}
	for _, c := range rs.chanCounters {
		if c.sampleIndex != nil {
			c.count = countMasked(c.sampleIndex(ix, c.Channel), include)
		}
	}
}

// countMasked counts the positions set in both masks.
func countMasked(mask, include Mask) uint64 {
	var n uint64
	for i, set := range mask {
		if set && include[i] {
			n++
		}
	}
	return n
}

// Merge folds another register set's state into this one: counters sum,
// latches re-compare the other set's held value through their own
// comparator. Both sets must have been built from the same configuration.
func (rs *RegisterSet) Merge(other *RegisterSet) error {
	if len(other.pixelCounters) != len(rs.pixelCounters) ||
		len(other.chanCounters) != len(rs.chanCounters) ||
		len(other.latches) != len(rs.latches) {
		return fmt.Errorf("register sets %q and %q have different shapes", rs.Scope, other.Scope)
	}
	for i, c := range other.pixelCounters {
		rs.pixelCounters[i].count += c.count
	}
	for i, c := range other.chanCounters {
		rs.chanCounters[i].count += c.count
	}
	for i, l := range other.latches {
		if !l.set {
			continue
		}
		dst := rs.latches[i]
		dst.examined += l.examined
		if !dst.set || dst.better(l.held, dst.held) {
			dst.held = l.held
			dst.context = l.context
			dst.set = true
		}
	}
	return nil
}

// Counters returns all counters, whole-pixel first, in construction order.
func (rs *RegisterSet) Counters() []*Counter {
	out := make([]*Counter, 0, len(rs.pixelCounters)+len(rs.chanCounters))
	out = append(out, rs.pixelCounters...)
	out = append(out, rs.chanCounters...)
	return out
}

// Latches returns all latches in construction order.
func (rs *RegisterSet) Latches() []*Latch { return rs.latches }

// columnKey flattens a register description into a table key like
// "overall.zero_count.G". Whole-pixel registers omit the channel suffix.
func (rs *RegisterSet) columnKey(desc string, channel int) string {
	slug := strings.ReplaceAll(strings.ToLower(desc), " ", "_")
	if channel < 0 {
		return rs.Scope + "." + slug
	}
	return rs.Scope + "." + slug + "." + rs.channels[channel]
}

// AddToColumns flattens every counter into cols, and every latch that has
// held a value. Latch keys carry the held value; its examined count is
// emitted alongside under a "_seen" suffix.
func (rs *RegisterSet) AddToColumns(cols Columns) {
	for _, c := range rs.Counters() {
		cols[rs.columnKey(c.Desc, c.Channel)] = float64(c.count)
	}
	for _, l := range rs.latches {
		if !l.set {
			continue
		}
		key := rs.columnKey(l.Desc, l.Channel)
		cols[key] = l.held
		cols[key+"_seen"] = float64(l.examined)
	}
}

// Summarize writes a human-readable report of every nonzero counter and
// every latch that has held a value. Quiet registers are omitted.
func (rs *RegisterSet) Summarize(w io.Writer, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, c := range rs.Counters() {
		if c.count == 0 {
			continue
		}
		if c.Channel < 0 {
			fmt.Fprintf(w, "%s%s: %d\n", pad, c.Desc, c.count)
		} else {
			fmt.Fprintf(w, "%s%s (%s): %d\n", pad, c.Desc, rs.channels[c.Channel], c.count)
		}
	}
	for _, l := range rs.latches {
		if !l.set {
			continue
		}
		fmt.Fprintf(w, "%s%s (%s): %g in pixel %v (%d examined)\n",
			pad, l.Desc, rs.channels[l.Channel], l.held, l.context, l.examined)
	}
}
