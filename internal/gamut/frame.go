package gamut

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrSourceUnavailable reports that the decoding collaborator could not
// produce a pixel array for a frame. The frame characterization fails before
// any tally begins; no partial state is produced.
var ErrSourceUnavailable = errors.New("source unavailable")

// FrameC18n characterizes one decoded frame: an overall register set over
// the full image, plus the seven non-trivial octants. The all-positive
// octant is the in-gamut case and is not analyzed.
type FrameC18n struct {
	Path    string
	Overall *RegisterSet
	Octants []*Octant

	img *Image
	ix  *Indices
}

// NewFrameC18n decodes the frame at path through the collaborator and
// builds empty characterization state for it.
func NewFrameC18n(dec Decoder, path string, cfg BinConfig) (*FrameC18n, error) {
	im, err := dec.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSourceUnavailable, path, err)
	}
	return NewFrameC18nFromImage(path, im, cfg)
}

// NewFrameC18nFromImage builds characterization state for an already
// decoded image.
func NewFrameC18nFromImage(path string, im *Image, cfg BinConfig) (*FrameC18n, error) {
	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("frame %q: %w", path, err)
	}
	fc := &FrameC18n{
		Path:    path,
		Overall: NewRegisterSet("overall", im.Channels),
		img:     im,
	}
	for _, key := range OctantKeys() {
		o, err := NewOctant(key, im.Channels, cfg)
		if err != nil {
			return nil, err
		}
		fc.Octants = append(fc.Octants, o)
	}
	return fc, nil
}

// Image returns the decoded pixel array the characterization was built on.
func (fc *FrameC18n) Image() *Image { return fc.img }

// Indices returns the cached sign masks, computed on first use.
func (fc *FrameC18n) Indices() *Indices {
	if fc.ix == nil {
		fc.ix = NewIndices(fc.img)
	}
	return fc.ix
}

// Tally distributes every pixel to the overall register set and to its
// owning octant. Octants operate on disjoint masks and disjoint state, so
// they run concurrently; the overall register set is independent of all of
// them and joins the same wait group.
func (fc *FrameC18n) Tally() {
	ix := fc.Indices()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fc.Overall.TallyIndexed(fc.img, NewMask(fc.img.NumPixels(), true), ix)
	}()
	for _, o := range fc.Octants {
		wg.Add(1)
		go func(o *Octant) {
			defer wg.Done()
			o.TallyIndexed(fc.img, fc.membershipFromIndices(o.Key, ix), ix)
		}(o)
	}
	wg.Wait()
}

// membershipFromIndices builds an octant membership mask from cached sign
// masks instead of re-testing every pixel per octant.
func (fc *FrameC18n) membershipFromIndices(key OctantKey, ix *Indices) Mask {
	n := fc.img.NumPixels()
	m := make(Mask, n)
	for i := 0; i < n; i++ {
		in := true
		for c, neg := range key {
			if ix.Neg[c][i] != neg {
				in = false
				break
			}
		}
		m[i] = in
	}
	return m
}

// InGamutPixels returns the number of pixels with no negative channel.
func (fc *FrameC18n) InGamutPixels() uint64 {
	ix := fc.Indices()
	total := uint64(fc.img.NumPixels())
	return total - ix.AnyNeg.CountSet()
}

// AddToColumns flattens the whole characterization into a keyed record:
// frame-level totals, the overall register set, and every non-empty octant.
// Octant labels and channel names keep keys collision-free.
func (fc *FrameC18n) AddToColumns(cols Columns) {
	cols["frame.total_pixels"] = float64(fc.img.NumPixels())
	cols["frame.in_gamut_pixels"] = float64(fc.InGamutPixels())
	fc.Overall.AddToColumns(cols)
	for _, o := range fc.Octants {
		o.AddToColumns(cols)
	}
}

// Columns returns a fresh flattened record for this frame.
func (fc *FrameC18n) Columns() Columns {
	cols := make(Columns)
	fc.AddToColumns(cols)
	return cols
}

// Summarize writes a nested human-readable report of the frame.
func (fc *FrameC18n) Summarize(w io.Writer) {
	fmt.Fprintf(w, "frame %s: %dx%d, %d pixels, %d in gamut\n",
		fc.Path, fc.img.Width, fc.img.Height, fc.img.NumPixels(), fc.InGamutPixels())
	fc.Overall.Summarize(w, 1)
	for _, o := range fc.Octants {
		o.Summarize(w, 1)
	}
}
