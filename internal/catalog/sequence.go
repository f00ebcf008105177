// Package catalog enumerates frame sequences on disk and maintains a SQLite
// catalog of sequences, characterization runs, and per-frame statistics.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// ImageSequence names a run of numbered frames in one directory:
// Dir/Base.NNNN.Ext for frames Start..End (inclusive) in steps of Inc, with
// frame numbers zero-padded to Pad digits. Pad == 0 means a single unpadded
// file named Dir/Base.Ext.
type ImageSequence struct {
	ID    int64
	Dir   string
	Base  string
	Ext   string
	Pad   int
	Start int
	End   int
	Inc   int
}

// FramePath returns the path for one frame number.
func (s ImageSequence) FramePath(frame int) string {
	if s.Pad == 0 {
		return filepath.Join(s.Dir, fmt.Sprintf("%s.%s", s.Base, s.Ext))
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%0*d.%s", s.Base, s.Pad, frame, s.Ext))
}

// FramePaths returns the path of every frame in the sequence, in order.
func (s ImageSequence) FramePaths() []string {
	inc := s.Inc
	if inc <= 0 {
		inc = 1
	}
	var paths []string
	for f := s.Start; f <= s.End; f += inc {
		paths = append(paths, s.FramePath(f))
	}
	return paths
}

// FrameCount returns the number of frames the sequence names.
func (s ImageSequence) FrameCount() int {
	inc := s.Inc
	if inc <= 0 {
		inc = 1
	}
	if s.End < s.Start {
		return 0
	}
	return (s.End-s.Start)/inc + 1
}

// String renders the sequence the conventional way: base.[start-end].ext.
func (s ImageSequence) String() string {
	if s.Pad == 0 {
		return filepath.Join(s.Dir, s.Base+"."+s.Ext)
	}
	return fmt.Sprintf("%s.[%0*d-%0*d].%s",
		filepath.Join(s.Dir, s.Base), s.Pad, s.Start, s.Pad, s.End, s.Ext)
}

// frameFileRe matches numbered frame files: base.NNNN.ext.
var frameFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.([A-Za-z0-9]+)$`)

type seqGroup struct {
	base, ext string
	pad       int
}

// FindSequences inspects one directory (non-recursively) and groups its
// numbered frame files into contiguous sequences. A gap in the numbering
// splits a group into separate sequences. Files that do not look like
// numbered frames are ignored.
func FindSequences(dir string) ([]ImageSequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sequence directory: %w", err)
	}
	frames := make(map[seqGroup][]int)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := frameFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		g := seqGroup{base: m[1], ext: m[3], pad: len(m[2])}
		frames[g] = append(frames[g], n)
	}

	var seqs []ImageSequence
	for g, nums := range frames {
		sort.Ints(nums)
		start := nums[0]
		prev := nums[0]
		for _, n := range nums[1:] {
			if n == prev {
				continue
			}
			if n != prev+1 {
				seqs = append(seqs, ImageSequence{
					Dir: dir, Base: g.base, Ext: g.ext, Pad: g.pad,
					Start: start, End: prev, Inc: 1,
				})
				start = n
			}
			prev = n
		}
		seqs = append(seqs, ImageSequence{
			Dir: dir, Base: g.base, Ext: g.ext, Pad: g.pad,
			Start: start, End: prev, Inc: 1,
		})
	}
	sort.Slice(seqs, func(i, j int) bool {
		if seqs[i].Base != seqs[j].Base {
			return seqs[i].Base < seqs[j].Base
		}
		return seqs[i].Start < seqs[j].Start
	})
	return seqs, nil
}
