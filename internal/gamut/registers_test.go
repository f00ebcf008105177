package gamut

import (
	"strings"
	"testing"
)

// imageFromPixels lays pixels out as a 1-row image.
func imageFromPixels(pixels ...Pixel) *Image {
	im := NewImage(len(pixels), 1)
	copy(im.Pix, pixels)
	return im
}

func latchByDesc(t *testing.T, rs *RegisterSet, desc string, channel int) *Latch {
	t.Helper()
	for _, l := range rs.Latches() {
		if l.Desc == desc && l.Channel == channel {
			return l
		}
	}
	t.Fatalf("no latch %q for channel %d", desc, channel)
	return nil
}

func counterByDesc(t *testing.T, rs *RegisterSet, desc string, channel int) *Counter {
	t.Helper()
	for _, c := range rs.Counters() {
		if c.Desc == desc && c.Channel == channel {
			return c
		}
	}
	t.Fatalf("no counter %q for channel %d", desc, channel)
	return nil
}

func TestLatch_BiggestNegative_OrderIndependent(t *testing.T) {
	sequences := [][]float64{
		{-8, -12, -3},
		{-3, -8, -12},
		{-12, -8, -3},
	}
	for _, seq := range sequences {
		l := &Latch{
			Desc:     "biggest strictly negative value",
			Channel:  0,
			eligible: strictlyNegativeNonClipping,
			better:   func(candidate, held float64) bool { return candidate < held },
		}
		for _, v := range seq {
			l.Examine(Pixel{v, 1, 1})
		}
		held, set := l.Held()
		if !set {
			t.Fatalf("latch fed %v never held a value", seq)
		}
		if held != -12 {
			t.Errorf("latch fed %v held %g, want -12", seq, held)
		}
		if got := l.Examined(); got != 3 {
			t.Errorf("latch fed %v examined %d values, want 3", seq, got)
		}
	}
}

func TestLatch_TiesNeverReplace(t *testing.T) {
	l := &Latch{
		Desc:     "biggest strictly negative value",
		Channel:  0,
		eligible: strictlyNegativeNonClipping,
		better:   func(candidate, held float64) bool { return candidate < held },
	}
	first := Pixel{-5, 1, 2}
	second := Pixel{-5, 9, 9}
	l.Examine(first)
	l.Examine(second)
	if got := l.Context(); got != first {
		t.Errorf("tie replaced held context: got %v, want %v", got, first)
	}
}

func TestLatch_IgnoresClippingValues(t *testing.T) {
	l := &Latch{
		Desc:     "biggest strictly negative value",
		Channel:  0,
		eligible: strictlyNegativeNonClipping,
		better:   func(candidate, held float64) bool { return candidate < held },
	}
	l.Examine(Pixel{NegClip, 0, 0})
	l.Examine(Pixel{-2, 0, 0})
	held, set := l.Held()
	if !set {
		t.Fatal("latch never held a value")
	}
	if held != -2 {
		t.Errorf("held = %g, want -2 (clip value must be ineligible)", held)
	}
	if got := l.Examined(); got != 1 {
		t.Errorf("Examined() = %d, want 1", got)
	}
}

func TestRegisterSet_BlackPixelCounter(t *testing.T) {
	im := imageFromPixels(
		Pixel{0, 0, 0},
		Pixel{0, 0, 0.5},
		Pixel{1, 2, 3},
		Pixel{-1, 0, 0},
	)
	rs := NewRegisterSet("overall", im.Channels)
	rs.Tally(im, NewMask(im.NumPixels(), true))

	if got := counterByDesc(t, rs, "black pixel count", -1).Count(); got != 1 {
		t.Errorf("black pixel count = %d, want 1", got)
	}
}

func TestRegisterSet_ChannelCounters(t *testing.T) {
	im := imageFromPixels(
		Pixel{NegClip, 0, PosClip},
		Pixel{0, 0, 0},
		Pixel{0.25, -0.5, PosClip},
	)
	rs := NewRegisterSet("overall", im.Channels)
	rs.Tally(im, NewMask(im.NumPixels(), true))

	if got := counterByDesc(t, rs, "negative clip count", ChannelR).Count(); got != 1 {
		t.Errorf("negative clip count (R) = %d, want 1", got)
	}
	if got := counterByDesc(t, rs, "zero count", ChannelG).Count(); got != 2 {
		t.Errorf("zero count (G) = %d, want 2", got)
	}
	if got := counterByDesc(t, rs, "positive clip count", ChannelB).Count(); got != 2 {
		t.Errorf("positive clip count (B) = %d, want 2", got)
	}
}

func TestRegisterSet_TallyOverwritesCounters(t *testing.T) {
	im := imageFromPixels(Pixel{0, 0, 0}, Pixel{1, 1, 1})
	rs := NewRegisterSet("overall", im.Channels)
	mask := NewMask(im.NumPixels(), true)

	rs.Tally(im, mask)
	rs.Tally(im, mask)

	// A second tally of the same frame recomputes, it does not double.
	if got := counterByDesc(t, rs, "black pixel count", -1).Count(); got != 1 {
		t.Errorf("black pixel count after repeated tally = %d, want 1", got)
	}
}

func TestRegisterSet_MaskExcludesPixels(t *testing.T) {
	im := imageFromPixels(Pixel{0, 0, 0}, Pixel{0, 0, 0})
	rs := NewRegisterSet("overall", im.Channels)
	mask := Mask{true, false}
	rs.Tally(im, mask)

	if got := counterByDesc(t, rs, "black pixel count", -1).Count(); got != 1 {
		t.Errorf("black pixel count with mask = %d, want 1", got)
	}
}

func TestRegisterSet_Latches(t *testing.T) {
	im := imageFromPixels(
		Pixel{-8, 0.001, 2},
		Pixel{-12, 0.5, 90000}, // B channel beyond PosClip: ineligible for latches
		Pixel{-3, 7, 0},
	)
	rs := NewRegisterSet("overall", im.Channels)
	rs.Tally(im, NewMask(im.NumPixels(), true))

	big := latchByDesc(t, rs, "biggest strictly negative value", ChannelR)
	if held, _ := big.Held(); held != -12 {
		t.Errorf("biggest strictly negative (R) = %g, want -12", held)
	}
	if got := big.Context(); got != (Pixel{-12, 0.5, 90000}) {
		t.Errorf("biggest strictly negative context = %v, want the originating pixel", got)
	}

	tiny := latchByDesc(t, rs, "tiniest strictly negative value", ChannelR)
	if held, _ := tiny.Held(); held != -3 {
		t.Errorf("tiniest strictly negative (R) = %g, want -3", held)
	}

	tinyPos := latchByDesc(t, rs, "tiniest strictly positive value", ChannelG)
	if held, _ := tinyPos.Held(); held != 0.001 {
		t.Errorf("tiniest strictly positive (G) = %g, want 0.001", held)
	}

	bigPos := latchByDesc(t, rs, "biggest strictly positive value", ChannelB)
	if held, _ := bigPos.Held(); held != 2 {
		t.Errorf("biggest strictly positive (B) = %g, want 2 (90000 is past clip)", held)
	}
}

func TestRegisterSet_Merge(t *testing.T) {
	im1 := imageFromPixels(Pixel{-8, 0, 0}, Pixel{0, 0, 0})
	im2 := imageFromPixels(Pixel{-12, 0, 0}, Pixel{0, 0, 0})

	a := NewRegisterSet("overall", im1.Channels)
	b := NewRegisterSet("overall", im2.Channels)
	a.Tally(im1, NewMask(2, true))
	b.Tally(im2, NewMask(2, true))

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := counterByDesc(t, a, "black pixel count", -1).Count(); got != 2 {
		t.Errorf("merged black pixel count = %d, want 2", got)
	}
	big := latchByDesc(t, a, "biggest strictly negative value", ChannelR)
	if held, _ := big.Held(); held != -12 {
		t.Errorf("merged biggest strictly negative (R) = %g, want -12 (re-compared, not summed)", held)
	}
	if got := big.Examined(); got != 2 {
		t.Errorf("merged examined count = %d, want 2", got)
	}
}

func TestRegisterSet_SummarizeOmitsQuietRegisters(t *testing.T) {
	im := imageFromPixels(Pixel{1, 1, 1})
	rs := NewRegisterSet("overall", im.Channels)
	rs.Tally(im, NewMask(1, true))

	var sb strings.Builder
	rs.Summarize(&sb, 0)
	out := sb.String()
	if strings.Contains(out, "black pixel count") {
		t.Errorf("summary mentions zero-valued counter:\n%s", out)
	}
	if strings.Contains(out, "strictly negative") {
		t.Errorf("summary mentions unset latch:\n%s", out)
	}
}

func TestRegisterSet_AddToColumns(t *testing.T) {
	im := imageFromPixels(Pixel{-2, 0, 1})
	rs := NewRegisterSet("overall", im.Channels)
	rs.Tally(im, NewMask(1, true))

	cols := make(Columns)
	rs.AddToColumns(cols)

	if got := cols["overall.zero_count.G"]; got != 1 {
		t.Errorf("overall.zero_count.G = %v, want 1", got)
	}
	if got := cols["overall.biggest_strictly_negative_value.R"]; got != -2 {
		t.Errorf("overall.biggest_strictly_negative_value.R = %v, want -2", got)
	}
	if _, present := cols["overall.biggest_strictly_positive_value.G"]; present {
		t.Error("unset latch leaked into columns")
	}
}
