package gamut

import (
	"errors"
	"strings"
	"testing"
)

// stubDecoder serves canned images by path.
type stubDecoder struct {
	images map[string]*Image
	err    error
}

func (d *stubDecoder) Decode(path string) (*Image, error) {
	if d.err != nil {
		return nil, d.err
	}
	im, ok := d.images[path]
	if !ok {
		return nil, errors.New("no such image")
	}
	return im, nil
}

// testFrameImage mixes in-gamut, negative, black, and clipped pixels.
func testFrameImage() *Image {
	return imageFromPixels(
		Pixel{1, 2, 3},        // in gamut
		Pixel{-2, 3, -5},      // octant -+-
		Pixel{-0.5, 0.25, 1},  // octant -++
		Pixel{0, 0, 0},        // black, in gamut
		Pixel{-1, -1, -1},     // octant ---
		Pixel{-0.25, 0.25, 1}, // octant -++
	)
}

func TestNewFrameC18n_SourceUnavailable(t *testing.T) {
	dec := &stubDecoder{err: errors.New("unreadable header")}
	if _, err := NewFrameC18n(dec, "missing.exr", DefaultBinConfig()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("NewFrameC18n error = %v, want ErrSourceUnavailable", err)
	}
}

func TestFrameC18n_OctantPartition(t *testing.T) {
	im := testFrameImage()
	fc, err := NewFrameC18nFromImage("test.exr", im, DefaultBinConfig())
	if err != nil {
		t.Fatal(err)
	}
	fc.Tally()

	// Per-octant sample counts plus the in-gamut count must cover every
	// pixel exactly once.
	var octantTotal uint64
	for _, o := range fc.Octants {
		octantTotal += o.Samples()
	}
	if got := octantTotal + fc.InGamutPixels(); got != uint64(im.NumPixels()) {
		t.Errorf("octant samples + in-gamut = %d, want %d", got, im.NumPixels())
	}
	if got := fc.InGamutPixels(); got != 2 {
		t.Errorf("InGamutPixels() = %d, want 2", got)
	}
}

func TestFrameC18n_SevenOctants(t *testing.T) {
	fc, err := NewFrameC18nFromImage("test.exr", testFrameImage(), DefaultBinConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Octants) != 7 {
		t.Fatalf("frame owns %d octants, want 7", len(fc.Octants))
	}
	for _, o := range fc.Octants {
		if o.Key.IsTrivial() {
			t.Error("frame instantiated the trivial all-positive octant")
		}
	}
}

func TestFrameC18n_OverallRegisters(t *testing.T) {
	fc, err := NewFrameC18nFromImage("test.exr", testFrameImage(), DefaultBinConfig())
	if err != nil {
		t.Fatal(err)
	}
	fc.Tally()

	if got := counterByDesc(t, fc.Overall, "black pixel count", -1).Count(); got != 1 {
		t.Errorf("overall black pixel count = %d, want 1", got)
	}
	big := latchByDesc(t, fc.Overall, "biggest strictly negative value", ChannelR)
	if held, set := big.Held(); !set || held != -2 {
		t.Errorf("overall biggest strictly negative (R) = (%g, %v), want -2", held, set)
	}
}

func TestFrameC18n_Columns(t *testing.T) {
	fc, err := NewFrameC18nFromImage("test.exr", testFrameImage(), DefaultBinConfig())
	if err != nil {
		t.Fatal(err)
	}
	fc.Tally()
	cols := fc.Columns()

	if got := cols["frame.total_pixels"]; got != 6 {
		t.Errorf("frame.total_pixels = %v, want 6", got)
	}
	if got := cols["frame.in_gamut_pixels"]; got != 2 {
		t.Errorf("frame.in_gamut_pixels = %v, want 2", got)
	}
	if got := cols["octant[-+-].samples"]; got != 1 {
		t.Errorf("octant[-+-].samples = %v, want 1", got)
	}
	if got := cols["octant[-++].samples"]; got != 2 {
		t.Errorf("octant[-++].samples = %v, want 2", got)
	}
	// Octant keys must not collide with overall keys.
	if got := cols["octant[-+-].biggest_strictly_negative_value.B"]; got != -5 {
		t.Errorf("octant[-+-].biggest_strictly_negative_value.B = %v, want -5", got)
	}
	if got := cols["overall.biggest_strictly_negative_value.B"]; got != -5 {
		t.Errorf("overall.biggest_strictly_negative_value.B = %v, want -5", got)
	}
}

func TestFrameC18n_Summarize(t *testing.T) {
	fc, err := NewFrameC18nFromImage("test.exr", testFrameImage(), DefaultBinConfig())
	if err != nil {
		t.Fatal(err)
	}
	fc.Tally()

	var sb strings.Builder
	fc.Summarize(&sb)
	out := sb.String()
	if !strings.Contains(out, "octant -+-") {
		t.Errorf("summary missing populated octant:\n%s", out)
	}
	if strings.Contains(out, "octant +-+") {
		t.Errorf("summary mentions empty octant:\n%s", out)
	}
}
