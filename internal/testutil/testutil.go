// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"testing"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SolidImage creates a width by height image with every pixel set to p.
func SolidImage(width, height int, p gamut.Pixel) *gamut.Image {
	im := gamut.NewImage(width, height)
	for i := range im.Pix {
		im.Pix[i] = p
	}
	return im
}

// WritePFM writes pixels as a little-endian colour PFM file at path. The
// pixel slice is laid out row-major, bottom row first, matching the format's
// scanline order.
func WritePFM(t *testing.T, path string, width, height int, pixels []gamut.Pixel) {
	t.Helper()
	if len(pixels) != width*height {
		t.Fatalf("WritePFM: %d pixels for %dx%d image", len(pixels), width, height)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PF\n%d %d\n-1.0\n", width, height)
	for _, p := range pixels {
		for _, v := range p {
			if err := binary.Write(&buf, binary.LittleEndian, float32(v)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

// WritePFMSequence writes count single-row PFM frames named
// base.<frame>.pfm under dir, all holding the given pixels. It returns the
// paths written in frame order.
func WritePFMSequence(t *testing.T, dir, base string, start, count int, pixels []gamut.Pixel) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := fmt.Sprintf("%s/%s.%04d.pfm", dir, base, start+i)
		WritePFM(t, path, len(pixels), 1, pixels)
		paths = append(paths, path)
	}
	return paths
}
