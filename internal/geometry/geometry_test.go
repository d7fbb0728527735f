package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBounds() []LayerBounds {
	return []LayerBounds{
		{Layer: 2, VolumeID: 8, VolumeLayer: 6, R: 72, ZMin: -490, ZMax: 490},
		{Layer: 0, VolumeID: 8, VolumeLayer: 2, R: 32, ZMin: -455, ZMax: 455},
		{Layer: 1, VolumeID: 8, VolumeLayer: 4, R: 50, ZMin: -470, ZMax: 470},
	}
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable(testBounds())
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumLayers())
	assert.Equal(t, 50.0, tbl.Layer(1).R)

	layers := tbl.Layers()
	for i, b := range layers {
		assert.Equal(t, i, b.Layer)
	}
	layers[0].R = -1
	assert.Equal(t, 32.0, tbl.Layer(0).R, "Layers must return a copy")
}

func TestNewTable_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		bounds []LayerBounds
	}{
		{"empty", nil},
		{"gap", []LayerBounds{{Layer: 0}, {Layer: 2}}},
		{"duplicate", []LayerBounds{{Layer: 0}, {Layer: 0}}},
		{"negative", []LayerBounds{{Layer: -1}}},
		{"inverted envelope", []LayerBounds{{Layer: 0, ZMin: 10, ZMax: -10}}},
		{"nan envelope", []LayerBounds{{Layer: 0, ZMin: math.NaN(), ZMax: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.bounds)
			assert.Error(t, err)
		})
	}
}

func TestTable_LookupVolume(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable(testBounds())
	require.NoError(t, err)

	l, ok := tbl.LookupVolume(8, 6)
	assert.True(t, ok)
	assert.Equal(t, 2, l)

	_, ok = tbl.LookupVolume(9, 2)
	assert.False(t, ok)
}

func TestTable_Overlaps(t *testing.T) {
	t.Parallel()

	tbl, err := NewTable(testBounds())
	require.NoError(t, err)

	assert.True(t, tbl.Overlaps(0, -10, 10))
	assert.True(t, tbl.Overlaps(0, 400, 600))
	assert.False(t, tbl.Overlaps(0, 455, 600), "touching the upper bound is not an overlap")
	assert.False(t, tbl.Overlaps(0, -600, -455), "touching the lower bound is not an overlap")
}

func TestBinPhi(t *testing.T) {
	t.Parallel()

	const nbins = 33
	assert.Equal(t, 0, BinPhi(1, 0, nbins))
	at := func(a float64) int { return BinPhi(math.Cos(a), math.Sin(a), nbins) }
	assert.Equal(t, 8, at(math.Pi/2+0.01))
	assert.Equal(t, 16, at(math.Pi+0.01))
	assert.Equal(t, 24, at(-math.Pi/2+0.01))
	assert.Equal(t, 31, at(-0.01))

	for i := 0; i < 360; i++ {
		a := float64(i) * math.Pi / 180
		s := BinPhi(math.Cos(a), math.Sin(a), nbins)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, nbins-2)
	}
}
