package doublet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doublets/internal/geometry"
)

func TestNewEvent_IndexesByLayer(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t)
	hits := []geometry.Hit{
		{ID: 10, Layer: 2, Phi: 1, R: 116, Z: 0},
		{ID: 11, Layer: 0, Phi: 1, R: 32, Z: 0},
		{ID: 12, Layer: 2, Phi: 2, R: 117, Z: 3},
	}
	ev := mustEvent(t, testParams(), tbl, hits)

	assert.Equal(t, []int{1}, ev.LayerHits(0))
	assert.Empty(t, ev.LayerHits(1))
	assert.Equal(t, []int{0, 2}, ev.LayerHits(2))

	hits[0].R = -1
	assert.Equal(t, 116.0, ev.Hits[0].R, "NewEvent must copy hits")
}

func TestNewEvent_Errors(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t)
	tests := []struct {
		name string
		hit  geometry.Hit
		want error
	}{
		{"zero radius", geometry.Hit{Layer: 1, R: 0}, ErrNonPositiveRadius},
		{"negative radius", geometry.Hit{Layer: 1, R: -3}, ErrNonPositiveRadius},
		{"layer too high", geometry.Hit{Layer: 10, R: 5}, ErrLayerOutOfRange},
		{"negative layer", geometry.Hit{Layer: -1, R: 5}, ErrLayerOutOfRange},
		{"phi too high", geometry.Hit{Layer: 1, Phi: 33, R: 5}, ErrPhiOutOfRange},
		{"nan z", geometry.Hit{Layer: 1, R: 5, Z: math.NaN()}, ErrNonFiniteCoordinate},
		{"inf r", geometry.Hit{Layer: 1, R: math.Inf(1)}, ErrNonFiniteCoordinate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvent(testParams(), tbl, []geometry.Hit{tt.hit})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewEvent_ParamMismatch(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t)
	p := testParams()
	p.NLayers = 8
	_, err := NewEvent(p, tbl, nil)
	assert.Error(t, err)

	p = testParams()
	p.MaxCtg = 0
	_, err = NewEvent(p, tbl, nil)
	assert.Error(t, err)
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"no layers", func(p *Params) { p.NLayers = 0 }},
		{"no phi slices", func(p *Params) { p.NPhiSlices = 0 }},
		{"negative min length", func(p *Params) { p.MinDoubletLength = -1 }},
		{"max below min", func(p *Params) { p.MaxDoubletLength = p.MinDoubletLength }},
		{"zero ctg", func(p *Params) { p.MaxCtg = 0 }},
		{"short ratio table", func(p *Params) { p.RefRatios = []float64{1, 2} }},
	}
	require.NoError(t, testParams().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}
