// Package main provides a plotting tool for saved characterization tables.
// It reads the per-frame statistics CSV written by gamut-report and plots
// selected columns as time series over the frame index.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	csvPath = flag.String("csv", "", "Characterization CSV to plot (required)")
	outPath = flag.String("out", "c18n.png", "Output PNG path")
	match   = flag.String("match", "octant", "Only plot columns containing this substring")
	title   = flag.String("title", "", "Plot title (defaults to the CSV filename)")
)

func main() {
	flag.Parse()
	if *csvPath == "" {
		flag.Usage()
		log.Fatal("a characterization CSV is required (-csv)")
	}

	series, frames, err := loadSeries(*csvPath, *match)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *csvPath, err)
	}
	if len(series) == 0 {
		log.Fatalf("No columns in %s match %q", *csvPath, *match)
	}

	plotTitle := *title
	if plotTitle == "" {
		plotTitle = *csvPath
	}
	if err := plotSeries(*outPath, plotTitle, series, frames); err != nil {
		log.Fatalf("Failed to plot: %v", err)
	}
	log.Printf("Wrote %s (%d columns, %d frames)", *outPath, len(series), frames)
}

// loadSeries reads the CSV and collects one XY series per matching column,
// with the frame's row index as X. Empty cells leave a gap in the series.
func loadSeries(path, match string) (map[string]plotter.XYs, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, 0, err
	}
	if len(records) < 2 {
		return nil, 0, fmt.Errorf("no data rows")
	}

	header := records[0]
	if len(header) == 0 || header[0] != "frame" {
		return nil, 0, fmt.Errorf("first column is %q, want \"frame\"", header[0])
	}

	series := map[string]plotter.XYs{}
	for row, record := range records[1:] {
		for col := 1; col < len(record) && col < len(header); col++ {
			key := header[col]
			if !strings.Contains(key, match) {
				continue
			}
			if record[col] == "" {
				continue
			}
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				return nil, 0, fmt.Errorf("row %d column %s: %w", row+1, key, err)
			}
			series[key] = append(series[key], plotter.XY{X: float64(row), Y: v})
		}
	}
	return series, len(records) - 1, nil
}

func plotSeries(path, title string, series map[string]plotter.XYs, frames int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Value"

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	colors := generateColors(len(keys))
	for i, key := range keys {
		line, err := plotter.NewLine(series[key])
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(key, line)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// generateColors creates n visually distinct colors by spacing hues evenly.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
