package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

func TestSolidImage(t *testing.T) {
	im := SolidImage(3, 2, gamut.Pixel{-1, 0, 2})
	if got := im.NumPixels(); got != 6 {
		t.Fatalf("NumPixels = %d, want 6", got)
	}
	for i, p := range im.Pix {
		if p != (gamut.Pixel{-1, 0, 2}) {
			t.Errorf("pixel %d = %v, want {-1 0 2}", i, p)
		}
	}
}

func TestWritePFMHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pfm")
	WritePFM(t, path, 2, 1, []gamut.Pixel{{1, 2, 3}, {4, 5, 6}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PF\n2 1\n-1.0\n")) {
		t.Errorf("header = %q", data[:12])
	}
	// Header plus 6 little-endian float32 samples.
	if want := 12 + 6*4; len(data) != want {
		t.Errorf("file size = %d, want %d", len(data), want)
	}
}

func TestWritePFMSequence(t *testing.T) {
	dir := t.TempDir()
	paths := WritePFMSequence(t, dir, "plate", 7, 3, []gamut.Pixel{{-1, 1, 1}})

	if len(paths) != 3 {
		t.Fatalf("wrote %d paths, want 3", len(paths))
	}
	for i, path := range paths {
		if filepath.Base(path) == "" {
			t.Fatalf("empty path at %d", i)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("frame %d not written: %v", i, err)
		}
	}
	if got, want := filepath.Base(paths[0]), "plate.0007.pfm"; got != want {
		t.Errorf("first frame = %q, want %q", got, want)
	}
}
