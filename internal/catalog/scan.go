package catalog

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chroma-data/gamut.report/internal/monitoring"
)

// usableSuffixes are the image file extensions worth cataloging.
var usableSuffixes = map[string]bool{
	"exr": true,
	"hdr": true,
	"pic": true,
	"pfm": true,
	"dpx": true,
}

// ScanResult is everything one tree walk discovered.
type ScanResult struct {
	Root          string
	Sequences     []ImageSequence
	SuffixCensus  map[string]int
	SequenceRoots []string
}

// ScanTree walks root looking for frame sequences with usable suffixes.
// Hidden directories are skipped. Alongside the sequences it keeps a census
// of file suffixes seen and the set of top-most directories containing
// sequences (a directory is dropped from the set when an ancestor of it is
// registered).
func ScanTree(root string) (*ScanResult, error) {
	res := &ScanResult{
		Root:         root,
		SuffixCensus: make(map[string]int),
	}
	roots := map[string]bool{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		seqs, err := FindSequences(path)
		if err != nil {
			return err
		}
		for _, seq := range seqs {
			suffix := strings.ToLower(seq.Ext)
			if !usableSuffixes[suffix] {
				continue
			}
			res.SuffixCensus[suffix] += seq.FrameCount()
			res.Sequences = append(res.Sequences, seq)
			if path != root {
				registerSequenceRoot(roots, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for dir := range roots {
		res.SequenceRoots = append(res.SequenceRoots, dir)
	}
	sort.Strings(res.SequenceRoots)
	monitoring.Logf("scanned %s: %d sequences in %d roots", root, len(res.Sequences), len(res.SequenceRoots))
	return res, nil
}

// registerSequenceRoot adds dir to the root set unless an ancestor is
// already present; registering an ancestor evicts its descendants.
func registerSequenceRoot(roots map[string]bool, dir string) {
	for r := range roots {
		if r == dir || isAncestor(r, dir) {
			return
		}
	}
	for r := range roots {
		if isAncestor(dir, r) {
			delete(roots, r)
		}
	}
	roots[dir] = true
}

func isAncestor(ancestor, dir string) bool {
	rel, err := filepath.Rel(ancestor, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
