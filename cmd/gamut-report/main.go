// Package main provides the gamut-report command line tool. It scans
// directory trees for HDR frame sequences, characterizes the out-of-gamut
// content of a sequence, and exports the results as CSV, HTML and PNG
// reports, optionally persisting per-frame statistics to a catalog
// database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/chroma-data/gamut.report/internal/catalog"
	"github.com/chroma-data/gamut.report/internal/config"
	"github.com/chroma-data/gamut.report/internal/fsutil"
	"github.com/chroma-data/gamut.report/internal/imgio"
	"github.com/chroma-data/gamut.report/internal/report"
	"github.com/chroma-data/gamut.report/internal/seqc18n"
	"github.com/chroma-data/gamut.report/internal/version"
)

var (
	showVersion = flag.Bool("version", false, "Print version and exit")
	configPath  = flag.String("config", "", "Optional JSON run configuration")

	scanRoot = flag.String("scan", "", "Scan a directory tree for frame sequences and exit")
	listSeqs = flag.Bool("list", false, "List sequences recorded in the catalog and exit")

	seqDir   = flag.String("dir", "", "Directory holding the frame sequence")
	seqBase  = flag.String("base", "", "Sequence base name (discovered from -dir when empty)")
	seqExt   = flag.String("ext", "exr", "Sequence file extension")
	seqPad   = flag.Int("pad", 4, "Frame number zero padding")
	seqStart = flag.Int("start", 0, "First frame number")
	seqEnd   = flag.Int("end", 0, "Last frame number")

	minExp  = flag.Float64("min-exp", 0, "Histogram floor as a power of ten")
	maxExp  = flag.Float64("max-exp", 0, "Histogram ceiling as a power of ten")
	numBins = flag.Int("bins", 0, "Number of histogram bins")
	workers = flag.Int("workers", 0, "Worker count (0 means one per CPU)")
	strict  = flag.Bool("strict", false, "Abort the run on the first unreadable frame")

	csvPath   = flag.String("csv", "", "Write per-frame statistics CSV here")
	htmlPath  = flag.String("html", "", "Write HTML histogram report here")
	plotsDir  = flag.String("plots", "", "Write PNG histogram plots into this directory")
	catalogDB = flag.String("db", "", "Catalog database path")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("gamut-report %s\n", version.String())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *scanRoot != "":
		err = runScan(*scanRoot, resolveDB(cfg))
	case *listSeqs:
		err = runList(resolveDB(cfg))
	case *seqDir != "":
		err = runCharacterization(ctx, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// loadConfig reads the -config file, then lays explicitly set flags over
// it so the command line wins.
func loadConfig() (*config.RunConfig, error) {
	cfg := config.Empty()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-exp":
			cfg.MinExponent = minExp
		case "max-exp":
			cfg.MaxExponent = maxExp
		case "bins":
			cfg.NumBins = numBins
		case "workers":
			cfg.Workers = workers
		case "strict":
			cfg.Strict = strict
		case "csv":
			cfg.CSVPath = csvPath
		case "html":
			cfg.HTMLPath = htmlPath
		case "plots":
			cfg.PlotsDir = plotsDir
		case "db":
			cfg.CatalogDB = catalogDB
		}
	})
	return cfg, cfg.Validate()
}

func resolveDB(cfg *config.RunConfig) string {
	if cfg.CatalogDB != nil {
		return *cfg.CatalogDB
	}
	return ""
}

func resolvePath(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

// runScan walks a directory tree, reports the sequences found, and records
// them in the catalog when a database path is given.
func runScan(root, dbPath string) error {
	res, err := catalog.ScanTree(root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	for _, seq := range res.Sequences {
		fmt.Println(seq)
	}
	fmt.Printf("%d sequences under %s\n", len(res.Sequences), res.Root)

	if dbPath == "" {
		return nil
	}
	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()
	if err := store.RecordScan(res); err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

func runList(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("-list needs a catalog database (-db)")
	}
	store, err := catalog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	seqs, err := store.ListSequences()
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		fmt.Println(seq)
	}
	return nil
}

// runCharacterization resolves the target sequence, runs the per-frame
// workers, and writes whichever exports were asked for.
func runCharacterization(ctx context.Context, cfg *config.RunConfig) error {
	seq, err := resolveSequence()
	if err != nil {
		return err
	}

	driver := seqc18n.New(imgio.NewHDRDecoder(), seq.FramePaths(), seqc18n.Config{
		Bin:     cfg.BinConfig(),
		Workers: cfg.GetWorkers(),
		Strict:  cfg.GetStrict(),
	})
	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("characterize %s: %w", seq, err)
	}

	census := driver.Census()
	fmt.Printf("%s: %d frames, %d pixels, %d in gamut\n",
		seq, census.Frames(), census.Pixels(), census.InGamutPixels())
	mean, stddev := census.NegativeFraction()
	fmt.Printf("negative fraction per frame: mean %.4g, stddev %.4g\n", mean, stddev)

	fs := fsutil.OSFileSystem{}
	if p := resolvePath(cfg.CSVPath); p != "" {
		if err := report.SaveCSV(fs, p, driver.Table()); err != nil {
			return err
		}
		log.Printf("Wrote CSV %s", p)
	}
	if p := resolvePath(cfg.HTMLPath); p != "" {
		if err := report.SaveHTML(fs, p, census, seq.String()); err != nil {
			return err
		}
		log.Printf("Wrote HTML report %s", p)
	}
	if d := resolvePath(cfg.PlotsDir); d != "" {
		written, err := report.SaveHistogramPlots(d, census)
		if err != nil {
			return err
		}
		log.Printf("Wrote %d plots to %s", len(written), d)
	}

	if dbPath := resolveDB(cfg); dbPath != "" {
		runID, err := persistRun(dbPath, seq, driver)
		if err != nil {
			return err
		}
		log.Printf("Recorded run %s", runID)
	}
	return nil
}

// resolveSequence builds the sequence from explicit flags, or discovers it
// in -dir when no base name is given. Discovery requires the directory to
// hold exactly one sequence.
func resolveSequence() (catalog.ImageSequence, error) {
	if *seqBase != "" {
		seq := catalog.ImageSequence{
			Dir:   *seqDir,
			Base:  *seqBase,
			Ext:   *seqExt,
			Pad:   *seqPad,
			Start: *seqStart,
			End:   *seqEnd,
			Inc:   1,
		}
		if seq.End < seq.Start {
			return seq, fmt.Errorf("frame range %d-%d is empty", seq.Start, seq.End)
		}
		return seq, nil
	}

	seqs, err := catalog.FindSequences(*seqDir)
	if err != nil {
		return catalog.ImageSequence{}, fmt.Errorf("discover sequences in %s: %w", *seqDir, err)
	}
	switch len(seqs) {
	case 0:
		return catalog.ImageSequence{}, fmt.Errorf("no frame sequences in %s", *seqDir)
	case 1:
		return seqs[0], nil
	default:
		for _, s := range seqs {
			fmt.Fprintln(os.Stderr, s)
		}
		return catalog.ImageSequence{}, fmt.Errorf("%d sequences in %s, pick one with -base", len(seqs), *seqDir)
	}
}

// persistRun records the sequence and the run's per-frame statistics in
// the catalog, returning the new run ID. Persist owns the run row; it must
// not be inserted here as well.
func persistRun(dbPath string, seq catalog.ImageSequence, driver *seqc18n.SequenceC18n) (string, error) {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	seqID, err := store.InsertSequence(seq)
	if err != nil {
		return "", fmt.Errorf("record sequence: %w", err)
	}
	runID := uuid.NewString()
	if err := driver.Persist(store, runID, seqID); err != nil {
		return "", fmt.Errorf("persist frame stats: %w", err)
	}
	return runID, nil
}
