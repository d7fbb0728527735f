package doublet

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doublets/internal/geometry"
)

// barrelTable returns a ten-layer barrel with radii from 32 to 1020 mm.
func barrelTable(t testing.TB) geometry.Table {
	t.Helper()
	radii := []float64{32, 72, 116, 172, 260, 360, 500, 660, 820, 1020}
	bounds := make([]geometry.LayerBounds, len(radii))
	for i, r := range radii {
		half := 450 + 60*float64(i)
		bounds[i] = geometry.LayerBounds{Layer: i, R: r, ZMin: -half, ZMax: half}
	}
	tbl, err := geometry.NewTable(bounds)
	require.NoError(t, err)
	return tbl
}

func testParams() Params {
	return Params{
		NLayers:          10,
		NPhiSlices:       33,
		MinDoubletLength: 10,
		MaxDoubletLength: 300,
		MaxCtg:           8,
		ZMinus:           -150,
		ZPlus:            150,
	}
}

// syntheticHits draws n hits spread over every layer of tbl. Most hits lie
// on straight lines from the beam spot so that a useful share of pairs
// survive the filters.
func syntheticHits(tbl geometry.Table, nPhi, n int, seed uint64) []geometry.Hit {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	hits := make([]geometry.Hit, 0, n)
	id := int64(1)
	for len(hits) < n {
		z0 := rng.Float64()*200 - 100
		ctg := rng.Float64()*6 - 3
		phi := rng.IntN(nPhi)
		for l := 0; l < tbl.NumLayers() && len(hits) < n; l++ {
			b := tbl.Layer(l)
			r := b.R + rng.Float64()*4 - 2
			z := z0 + ctg*r + rng.NormFloat64()*5
			if z <= b.ZMin || z >= b.ZMax {
				continue
			}
			p := phi
			if rng.IntN(4) == 0 {
				p = rng.IntN(nPhi)
			}
			hits = append(hits, geometry.Hit{ID: id, Layer: l, Phi: p, R: r, Z: math.Round(z*1000) / 1000})
			id++
		}
	}
	rng.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
	return hits
}

func mustEvent(t testing.TB, p Params, tbl geometry.Table, hits []geometry.Hit) *Event {
	t.Helper()
	ev, err := NewEvent(p, tbl, hits)
	require.NoError(t, err)
	return ev
}
