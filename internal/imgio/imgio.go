// Package imgio decodes high-dynamic-range image files into the in-memory
// pixel arrays the characterization engine consumes. Decoding is a blocking,
// synchronous operation returning a fully materialized image; the engine
// never writes through this package.
package imgio

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/pfm"  // PFM float images
	_ "github.com/mdouchement/hdr/codec/rgbe" // Radiance .hdr/.pic

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// ErrNotFound reports that no file exists at the requested path.
var ErrNotFound = errors.New("image not found")

// ErrUnreadable reports that a file exists but could not be decoded into a
// float pixel array.
var ErrUnreadable = errors.New("image unreadable")

// HDRDecoder decodes float-valued HDR images (Radiance RGBE and PFM) into
// tristimulus pixel arrays. It implements gamut.Decoder.
type HDRDecoder struct{}

// NewHDRDecoder returns a decoder for float HDR formats.
func NewHDRDecoder() *HDRDecoder {
	return &HDRDecoder{}
}

// Decode reads the image at path and materializes its pixels.
func (d *HDRDecoder) Decode(path string) (*gamut.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %q: %v", ErrUnreadable, path, err)
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnreadable, path, err)
	}
	hm, ok := m.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%w: %q: not a float image format", ErrUnreadable, path)
	}
	return fromHDRImage(hm), nil
}

func fromHDRImage(hm hdr.Image) *gamut.Image {
	bounds := hm.Bounds()
	im := gamut.NewImage(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := hm.HDRAt(x, y).HDRRGBA()
			im.SetAt(x-bounds.Min.X, y-bounds.Min.Y, gamut.Pixel{r, g, b})
		}
	}
	return im
}
