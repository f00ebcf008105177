// Package seqc18n drives the characterization of a whole frame sequence:
// frames are independent, so dedicated workers each own a frame
// characterization, and the per-frame results reduce into a sequence-wide
// census afterwards.
package seqc18n

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/chroma-data/gamut.report/internal/catalog"
	"github.com/chroma-data/gamut.report/internal/gamut"
	"github.com/chroma-data/gamut.report/internal/monitoring"
	"github.com/chroma-data/gamut.report/internal/report"
)

// Config controls one sequence characterization run.
type Config struct {
	Bin     gamut.BinConfig
	Workers int
	// Strict aborts the whole run on the first frame whose source is
	// unavailable. The default skips the frame and keeps going.
	Strict bool
}

// FrameResult is the outcome of characterizing one frame.
type FrameResult struct {
	Path    string
	Cols    gamut.Columns
	Err     error
	Elapsed time.Duration

	frame *gamut.FrameC18n
}

// SequenceC18n characterizes an ordered list of frame paths.
type SequenceC18n struct {
	dec    gamut.Decoder
	paths  []string
	cfg    Config
	census *gamut.Census

	results []FrameResult
}

// New builds a driver for the given frames. A zero worker count uses one
// worker per CPU.
func New(dec gamut.Decoder, paths []string, cfg Config) *SequenceC18n {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Bin.NumBins == 0 {
		cfg.Bin = gamut.DefaultBinConfig()
	}
	return &SequenceC18n{dec: dec, paths: paths, cfg: cfg}
}

// Run characterizes every frame and reduces the results into the census.
// In non-strict mode, frames whose source is unavailable are logged and
// skipped; the error returned is nil as long as at least one frame
// succeeded or the sequence was empty of failures.
func (s *SequenceC18n) Run(ctx context.Context) error {
	if len(s.paths) == 0 {
		return errors.New("sequence has no frames")
	}
	start := time.Now()
	s.results = make([]FrameResult, len(s.paths))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s.results[i] = s.characterizeFrame(s.paths[i])
				if s.results[i].Err != nil && s.cfg.Strict {
					cancel()
				}
			}
		}()
	}

feed:
	for i := range s.paths {
		select {
		case jobs <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.reduce(); err != nil {
		return err
	}
	monitoring.Logf("characterized %d/%d frames in %s",
		s.census.Frames(), len(s.paths), time.Since(start).Round(time.Millisecond))
	if s.cfg.Strict {
		for _, r := range s.results {
			if r.Err != nil {
				return fmt.Errorf("frame %s: %w", r.Path, r.Err)
			}
		}
	}
	return nil
}

// characterizeFrame decodes and tallies a single frame.
func (s *SequenceC18n) characterizeFrame(path string) FrameResult {
	start := time.Now()
	fc, err := gamut.NewFrameC18n(s.dec, path, s.cfg.Bin)
	if err != nil {
		if !s.cfg.Strict {
			monitoring.Logf("skipping %s: %v", path, err)
		}
		return FrameResult{Path: path, Err: err, Elapsed: time.Since(start)}
	}
	fc.Tally()
	return FrameResult{
		Path:    path,
		Cols:    fc.Columns(),
		Elapsed: time.Since(start),
		frame:   fc,
	}
}

// reduce folds successful frame results into the census.
func (s *SequenceC18n) reduce() error {
	census, err := gamut.NewCensus(gamut.DefaultChannelNames(), s.cfg.Bin)
	if err != nil {
		return err
	}
	for _, r := range s.results {
		if r.Err != nil || r.frame == nil {
			continue
		}
		if err := census.Add(r.frame); err != nil {
			return err
		}
	}
	s.census = census
	return nil
}

// Census returns the sequence-wide aggregate. Valid after Run.
func (s *SequenceC18n) Census() *gamut.Census { return s.census }

// Results returns the per-frame outcomes in frame order. Valid after Run.
func (s *SequenceC18n) Results() []FrameResult { return s.results }

// Table assembles the per-frame rows that succeeded into an exportable
// table.
func (s *SequenceC18n) Table() *report.Table {
	var rows []report.FrameRow
	for _, r := range s.results {
		if r.Err != nil {
			continue
		}
		rows = append(rows, report.FrameRow{Frame: r.Path, Cols: r.Cols})
	}
	return report.BuildTable(rows)
}

// Persist records the run and every successful frame's statistics in the
// catalog store under the given run ID.
func (s *SequenceC18n) Persist(store *catalog.Store, runID string, sequenceID int64) error {
	if err := store.InsertRun(runID, sequenceID, s.cfg.Bin); err != nil {
		return err
	}
	for _, r := range s.results {
		if r.Err != nil {
			continue
		}
		if err := store.InsertFrameStats(runID, r.Path, r.Cols); err != nil {
			return err
		}
	}
	return nil
}
