package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// WriteHTMLReport renders a census as a page of bar charts, one chart per
// populated octant channel, with overflow and underflow shown as extra bars
// at the ends of the axis.
func WriteHTMLReport(w io.Writer, census *gamut.Census, title string) error {
	page := components.NewPage()
	page.PageTitle = title

	charted := 0
	for _, o := range census.Octants {
		if o.Samples() == 0 {
			continue
		}
		for c := 0; c < gamut.NumChannels; c++ {
			b := o.Bin(c)
			if b.Entries() == 0 {
				continue
			}
			bar, err := histogramBar(o, c)
			if err != nil {
				return err
			}
			page.AddCharts(bar)
			charted++
		}
	}
	if charted == 0 {
		fmt.Fprintf(w, "<html><body><p>%s: no out-of-gamut pixels recorded</p></body></html>", title)
		return nil
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render histogram report: %w", err)
	}
	return nil
}

// histogramBar builds one bar chart for an octant channel histogram,
// largest-magnitude bin first to match the binning convention.
func histogramBar(o *gamut.Octant, channel int) (*charts.Bar, error) {
	b := o.Bin(channel)
	labels := make([]string, 0, b.NumBins()+2)
	data := make([]opts.BarData, 0, b.NumBins()+2)

	labels = append(labels, "overflow")
	data = append(data, opts.BarData{Value: b.Overflow()})
	for ix := 0; ix < b.NumBins(); ix++ {
		lo, hi, err := b.BinBounds(ix)
		if err != nil {
			return nil, err
		}
		labels = append(labels, fmt.Sprintf("(%.1e, %.1e]", lo, hi))
		data = append(data, opts.BarData{Value: b.Count(ix)})
	}
	labels = append(labels, "underflow")
	data = append(data, opts.BarData{Value: b.Underflow()})

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("octant %s channel %d", o.Key.Label(), channel),
			Subtitle: fmt.Sprintf("%d pixels in octant, %d fully binned", o.Samples(), o.CubeletTotal()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("magnitude", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar, nil
}
