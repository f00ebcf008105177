package gamut

// Indices caches the boolean masks a frame characterization needs repeatedly.
// Without caching, the same comparisons would be recomputed once for the
// overall register set and once per octant.
type Indices struct {
	// Per-channel masks, indexed [channel][pixel].
	Neg     [NumChannels]Mask
	Zero    [NumChannels]Mask
	Pos     [NumChannels]Mask
	NegClip [NumChannels]Mask
	PosClip [NumChannels]Mask

	// Black selects pixels whose channels are all exactly zero.
	Black Mask

	// AnyNeg selects pixels with at least one negative channel.
	AnyNeg Mask
}

// NewIndices computes all masks for an image in a single pass.
func NewIndices(im *Image) *Indices {
	n := im.NumPixels()
	ix := &Indices{
		Black:  make(Mask, n),
		AnyNeg: make(Mask, n),
	}
	for c := 0; c < NumChannels; c++ {
		ix.Neg[c] = make(Mask, n)
		ix.Zero[c] = make(Mask, n)
		ix.Pos[c] = make(Mask, n)
		ix.NegClip[c] = make(Mask, n)
		ix.PosClip[c] = make(Mask, n)
	}
	for i, p := range im.Pix {
		black := true
		anyNeg := false
		for c := 0; c < NumChannels; c++ {
			v := p[c]
			switch {
			case v < 0:
				ix.Neg[c][i] = true
				anyNeg = true
				black = false
			case v == 0:
				ix.Zero[c][i] = true
			default:
				ix.Pos[c][i] = true
				black = false
			}
			if IsNegClip(v) {
				ix.NegClip[c][i] = true
			}
			if IsPosClip(v) {
				ix.PosClip[c][i] = true
			}
		}
		ix.Black[i] = black
		ix.AnyNeg[i] = anyNeg
	}
	return ix
}
