// Package report summarises a doublet run and renders it as a PNG plot and
// an HTML chart.
package report

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/doublets/internal/doublet"
	"github.com/banshee-data/doublets/internal/geometry"
)

// Distribution describes a sample of one doublet quantity.
type Distribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// LayerPair is the doublet yield between two layers.
type LayerPair struct {
	InnerLayer int `json:"inner_layer"`
	OuterLayer int `json:"outer_layer"`
	Count      int `json:"count"`
}

// Label returns the "inner-outer" form used on chart axes.
func (p LayerPair) Label() string {
	return fmt.Sprintf("%d-%d", p.InnerLayer, p.OuterLayer)
}

// Summary holds the statistics of one run.
type Summary struct {
	NHits             int          `json:"n_hits"`
	NDoublets         int          `json:"n_doublets"`
	EstimatedDoublets int          `json:"estimated_doublets"`
	DeltaR            Distribution `json:"delta_r"`
	Slope             Distribution `json:"slope"`
	LayerPairs        []LayerPair  `json:"layer_pairs"`
}

// Summarize computes the radial separation and |dz/dr| distributions and
// the per-layer-pair yield of ds. Doublets referring to hits not in ev are
// an error.
func Summarize(ev *doublet.Event, ds []doublet.Doublet) (Summary, error) {
	byID := make(map[int64]geometry.Hit, len(ev.Hits))
	for _, h := range ev.Hits {
		byID[h.ID] = h
	}

	dr := make([]float64, 0, len(ds))
	slope := make([]float64, 0, len(ds))
	counts := make(map[[2]int]int)
	for _, d := range ds {
		in, ok := byID[d.Inner]
		if !ok {
			return Summary{}, fmt.Errorf("doublet (%d, %d): unknown inner hit", d.Inner, d.Outer)
		}
		out, ok := byID[d.Outer]
		if !ok {
			return Summary{}, fmt.Errorf("doublet (%d, %d): unknown outer hit", d.Inner, d.Outer)
		}
		r := out.R - in.R
		dr = append(dr, r)
		slope = append(slope, math.Abs((out.Z-in.Z)/r))
		counts[[2]int{in.Layer, out.Layer}]++
	}

	return Summary{
		NHits:             len(ev.Hits),
		NDoublets:         len(ds),
		EstimatedDoublets: doublet.EstimateDoublets(len(ev.Hits)),
		DeltaR:            Describe(dr),
		Slope:             Describe(slope),
		LayerPairs:        layerPairs(counts),
	}, nil
}

// Describe returns the distribution of xs. xs is sorted in place.
func Describe(xs []float64) Distribution {
	if len(xs) == 0 {
		return Distribution{}
	}
	slices.Sort(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Distribution{
		N:      len(xs),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(xs),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Max:    floats.Max(xs),
	}
}

func layerPairs(counts map[[2]int]int) []LayerPair {
	out := make([]LayerPair, 0, len(counts))
	for k, n := range counts {
		out = append(out, LayerPair{InnerLayer: k[0], OuterLayer: k[1], Count: n})
	}
	SortLayerPairs(out)
	return out
}

// SortLayerPairs orders pairs by inner layer, then outer layer.
func SortLayerPairs(pairs []LayerPair) {
	slices.SortFunc(pairs, func(a, b LayerPair) int {
		if c := cmp.Compare(a.InnerLayer, b.InnerLayer); c != 0 {
			return c
		}
		return cmp.Compare(a.OuterLayer, b.OuterLayer)
	})
}

// Histogram bins xs into n equal-width bins over [min, max] and returns the
// bin edges and counts. xs must be sorted.
func Histogram(xs []float64, n int) (edges, counts []float64) {
	if len(xs) == 0 || n <= 0 {
		return nil, nil
	}
	lo, hi := xs[0], xs[len(xs)-1]
	if lo == hi {
		hi = lo + 1
	}
	edges = make([]float64, n+1)
	floats.Span(edges, lo, math.Nextafter(hi, math.Inf(1)))
	counts = stat.Histogram(nil, edges, xs, nil)
	return edges, counts
}
