package doublet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/doublets/internal/geometry"
)

func TestMaskWindows_ClearsNonOverlappingSlots(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t) // layer 5 envelope is [-750, 750]
	lr := LayerRange{{5, true}, {4, true}, {}, {2, true}}
	zw := ZWindows{
		{Low: 700, High: 900, Valid: true},  // overlaps
		{Low: 690, High: 900, Valid: true},  // layer 4 envelope ends at 690
		{},                                  // empty stays empty
		{Low: -900, High: -500, Valid: true}, // overlaps layer 2 [-570, 570]
	}

	MaskWindows(&lr, &zw, tbl)

	assert.Equal(t, LayerRange{{5, true}, {}, {}, {2, true}}, lr)
	assert.Equal(t, ZWindow{}, zw[1])
	assert.True(t, zw[0].Valid)
	assert.True(t, zw[3].Valid)
}

func TestMaskWindows_IdempotentAndNarrowing(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t)
	p := testParams()
	for _, h := range syntheticHits(tbl, p.NPhiSlices, 2000, 3) {
		h.Z *= 3 // push some windows off the detector
		lr := ResolveLayers(h.Layer, p.NLayers)
		zw := ProjectWindows(h, lr, p.ZMinus, p.ZPlus, p.SlotRatios(lr, tbl))
		before := lr

		MaskWindows(&lr, &zw, tbl)
		onceLR, onceZW := lr, zw
		MaskWindows(&lr, &zw, tbl)

		assert.Equal(t, onceLR, lr)
		assert.Equal(t, onceZW, zw)
		for i := range lr {
			if lr[i].Valid {
				assert.True(t, before[i].Valid, "masking must never revive a slot")
			}
			assert.Equal(t, lr[i].Valid, zw[i].Valid)
		}
	}
}

func TestParams_Candidates(t *testing.T) {
	t.Parallel()

	tbl := barrelTable(t)
	p := testParams()

	lr, zw := p.Candidates(geometry.Hit{Layer: 0, R: 32, Z: 0}, tbl)
	assert.True(t, lr[0].Valid)
	assert.True(t, lr[1].Valid)
	assert.False(t, lr[2].Valid)
	assert.False(t, lr[3].Valid)
	assert.True(t, zw[0].Contains(0))

	// A hit far outside the envelope of every neighbour has no candidates.
	lr, _ = p.Candidates(geometry.Hit{Layer: 0, R: 32, Z: 5000}, tbl)
	assert.True(t, lr.Empty())
}
