package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// histogramBins is the number of bins of the radial separation chart.
const histogramBins = 30

// NewYieldChart returns a bar chart of doublet yield per layer pair.
func NewYieldChart(title string, pairs []LayerPair) *charts.Bar {
	x := make([]string, len(pairs))
	y := make([]opts.BarData, len(pairs))
	total := 0
	for i, lp := range pairs {
		x[i] = lp.Label()
		y[i] = opts.BarData{Value: lp.Count}
		total += lp.Count
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d doublets over %d layer pairs", total, len(pairs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "inner-outer layer", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "doublets"}),
	)
	bar.SetXAxis(x).
		AddSeries("doublets", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// NewDeltaRChart returns a histogram of radial separations. dr must be
// sorted.
func NewDeltaRChart(dr []float64) *charts.Bar {
	edges, counts := Histogram(dr, histogramBins)
	x := make([]string, len(counts))
	y := make([]opts.BarData, len(counts))
	for i, c := range counts {
		x[i] = fmt.Sprintf("%.0f", edges[i])
		y[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radial separation", Subtitle: fmt.Sprintf("n=%d", len(dr))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Δr (mm)", NameLocation: "middle", NameGap: 30}),
	)
	bar.SetXAxis(x).AddSeries("Δr", y)
	return bar
}

// RenderYieldPage writes an HTML page with the yield chart and, when dr is
// non-empty, the radial separation histogram.
func RenderYieldPage(w io.Writer, title string, pairs []LayerPair, dr []float64) error {
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(NewYieldChart(title, pairs))
	if len(dr) > 0 {
		page.AddCharts(NewDeltaRChart(dr))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
