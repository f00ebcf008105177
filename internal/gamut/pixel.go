// Package gamut characterizes the distribution of out-of-gamut (negative)
// tristimulus values in high-dynamic-range images. A frame characterization
// classifies every pixel by the sign pattern of its channels, bins channel
// magnitudes on a base-10 log scale, and latches per-channel extrema with
// enough context to audit them later.
package gamut

import (
	"fmt"

	"github.com/x448/float16"
)

// NumChannels is fixed: the engine works on tristimulus pixels only.
const NumChannels = 3

// Channel indices in a Pixel.
const (
	ChannelR = 0
	ChannelG = 1
	ChannelB = 2
)

var (
	// PosClip and NegClip are the representable extremes of the half-float
	// sample format. Samples that saturate sensor processing arrive at
	// exactly these values, so they act as saturation sentinels.
	PosClip = float64(float16.Frombits(0x7bff).Float32())
	NegClip = float64(float16.Frombits(0xfbff).Float32())

	// clipTolerance is the single tolerance used everywhere a sample is
	// compared against a clip sentinel: four times the half-float machine
	// epsilon. Absolute rather than relative, matching the sample format.
	clipTolerance = 4 * float64(float16.Frombits(0x1400).Float32())
)

// IsNegClip reports whether v sits at the negative half-float extreme.
func IsNegClip(v float64) bool {
	d := v - NegClip
	if d < 0 {
		d = -d
	}
	return d < clipTolerance
}

// IsPosClip reports whether v sits at the positive half-float extreme.
func IsPosClip(v float64) bool {
	d := v - PosClip
	if d < 0 {
		d = -d
	}
	return d < clipTolerance
}

// Pixel is one tristimulus sample triple. Pixels are never mutated after
// decode; reflection produces a new Pixel.
type Pixel [NumChannels]float64

// Image is a fully materialized decoded frame. Pix is row-major:
// Pix[y*Width+x].
type Image struct {
	Width    int
	Height   int
	Channels []string
	Pix      []Pixel
}

// NewImage allocates an image of the given size with default channel names.
func NewImage(width, height int) *Image {
	return &Image{
		Width:    width,
		Height:   height,
		Channels: DefaultChannelNames(),
		Pix:      make([]Pixel, width*height),
	}
}

// DefaultChannelNames returns the conventional tristimulus channel names.
func DefaultChannelNames() []string {
	return []string{"R", "G", "B"}
}

// At returns the pixel at (x, y).
func (im *Image) At(x, y int) Pixel {
	return im.Pix[y*im.Width+x]
}

// SetAt stores a pixel at (x, y).
func (im *Image) SetAt(x, y int, p Pixel) {
	im.Pix[y*im.Width+x] = p
}

// NumPixels returns the number of pixels in the image.
func (im *Image) NumPixels() int {
	return len(im.Pix)
}

// Validate checks the image is structurally usable for characterization.
func (im *Image) Validate() error {
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("image dimensions %dx%d are not positive", im.Width, im.Height)
	}
	if len(im.Channels) != NumChannels {
		return fmt.Errorf("image has %d channels, want %d", len(im.Channels), NumChannels)
	}
	if len(im.Pix) != im.Width*im.Height {
		return fmt.Errorf("pixel buffer holds %d pixels, want %d", len(im.Pix), im.Width*im.Height)
	}
	return nil
}

// Mask selects a subset of an image's pixels, indexed like Image.Pix.
type Mask []bool

// NewMask returns a mask of n entries, all set to v.
func NewMask(n int, v bool) Mask {
	m := make(Mask, n)
	if v {
		for i := range m {
			m[i] = true
		}
	}
	return m
}

// CountSet returns the number of selected pixels.
func (m Mask) CountSet() uint64 {
	var n uint64
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// Decoder is the image-decoding collaborator. Implementations return a fully
// materialized pixel array or an error classifying why the source could not
// be read.
type Decoder interface {
	Decode(path string) (*Image, error)
}

// Columns is a flattened keyed record of per-frame scalars, suitable for
// appending as one row of a per-sequence table.
type Columns map[string]float64
