package doublet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/doublets/internal/geometry"
)

func TestPhiAdjacent_Examples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		inner, outer int
		n            int
		want         bool
	}{
		{"same slice", 5, 5, 32, true},
		{"next slice", 5, 6, 32, true},
		{"previous slice", 5, 4, 32, true},
		{"two apart", 5, 7, 32, false},
		{"wrap low to high", 0, 30, 32, true},
		{"wrap high to low", 30, 0, 32, true},
		{"overflow slice is slice zero", 31, 0, 32, true},
		{"overflow slice neighbours", 31, 30, 32, true},
		{"overflow slice far", 31, 15, 32, false},
		{"single slice", 0, 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhiAdjacent(tt.inner, tt.outer, tt.n))
		})
	}
}

func TestPhiAdjacent_Symmetric(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 3, 4, 32, 53} {
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				assert.Equal(t, PhiAdjacent(a, b, n), PhiAdjacent(b, a, n), "n=%d a=%d b=%d", n, a, b)
			}
		}
	}
}

func TestRadialSeparationOK(t *testing.T) {
	t.Parallel()

	assert.True(t, RadialSeparationOK(100, 110, 5, 50))
	assert.False(t, RadialSeparationOK(100, 104, 5, 50))
	assert.False(t, RadialSeparationOK(100, 105, 5, 50), "lower bound is exclusive")
	assert.False(t, RadialSeparationOK(100, 150, 5, 50), "upper bound is exclusive")
	assert.False(t, RadialSeparationOK(100, 90, 5, 50))
}

func TestSlopeOK_Boundary(t *testing.T) {
	t.Parallel()

	assert.False(t, SlopeOK(100, 0, 110, 20, 2), "|dz/dr| == maxCtg is rejected")
	assert.True(t, SlopeOK(100, 0, 110, 19.9, 2))
	assert.False(t, SlopeOK(100, 0, 110, -20, 2))
	assert.True(t, SlopeOK(100, 0, 110, -19.9, 2))
	assert.False(t, SlopeOK(100, 0, 110, 25, 2))
}

func TestParams_Accept(t *testing.T) {
	t.Parallel()

	p := Params{
		NLayers: 10, NPhiSlices: 32,
		MinDoubletLength: 5, MaxDoubletLength: 50,
		MaxCtg: 2,
	}
	lr := LayerRange{{5, true}, {4, true}, {}, {1, true}}
	zw := ZWindows{
		{Low: -100, High: 100, Valid: true},
		{Low: -100, High: 100, Valid: true},
		{},
		{Low: -100, High: 100, Valid: true},
	}
	inner := geometry.Hit{ID: 1, Layer: 3, Phi: 0, R: 100, Z: 0}
	good := geometry.Hit{ID: 2, Layer: 4, Phi: 30, R: 110, Z: 10}

	assert.True(t, p.Accept(inner, good, lr, zw))

	tests := []struct {
		name   string
		mutate func(h *geometry.Hit)
	}{
		{"layer not a candidate", func(h *geometry.Hit) { h.Layer = 2 }},
		{"phi not adjacent", func(h *geometry.Hit) { h.Phi = 15 }},
		{"too close", func(h *geometry.Hit) { h.R = 104 }},
		{"too far", func(h *geometry.Hit) { h.R = 160 }},
		{"equal radius", func(h *geometry.Hit) { h.R = 100 }},
		{"outside window", func(h *geometry.Hit) { h.Z = 100 }},
		{"too steep", func(h *geometry.Hit) { h.Z = 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outer := good
			tt.mutate(&outer)
			assert.False(t, p.Accept(inner, outer, lr, zw))
		})
	}
}
