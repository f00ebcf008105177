package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// SaveHistogramPlots writes one PNG bar chart per populated octant channel
// into dir, named octant_<label>_ch<N>.png. It returns the paths written.
func SaveHistogramPlots(dir string, census *gamut.Census) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plot directory: %w", err)
	}
	var written []string
	for _, o := range census.Octants {
		if o.Samples() == 0 {
			continue
		}
		for c := 0; c < gamut.NumChannels; c++ {
			b := o.Bin(c)
			if b.Entries() == 0 {
				continue
			}
			path := filepath.Join(dir, fmt.Sprintf("octant_%s_ch%d.png", safeLabel(o.Key), c))
			if err := saveHistogramPlot(path, o, c); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

// safeLabel rewrites a sign label into filename-safe characters.
func safeLabel(key gamut.OctantKey) string {
	out := make([]byte, 0, gamut.NumChannels)
	for _, neg := range key {
		if neg {
			out = append(out, 'n')
		} else {
			out = append(out, 'p')
		}
	}
	return string(out)
}

func saveHistogramPlot(path string, o *gamut.Octant, channel int) error {
	b := o.Bin(channel)
	values := make(plotter.Values, b.NumBins())
	for ix := 0; ix < b.NumBins(); ix++ {
		values[ix] = float64(b.Count(ix))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("octant %s channel %d (over %d, under %d)",
		o.Key.Label(), channel, b.Overflow(), b.Underflow())
	p.X.Label.Text = "bin (largest magnitudes first)"
	p.Y.Label.Text = "pixels"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	p.Add(bars)

	labels := make([]string, b.NumBins())
	for ix := range labels {
		lo, _, err := b.BinBounds(ix)
		if err != nil {
			return err
		}
		labels[ix] = fmt.Sprintf("%.0e", lo)
	}
	p.NominalX(labels...)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
