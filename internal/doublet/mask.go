package doublet

import "github.com/banshee-data/doublets/internal/geometry"

// MaskWindows clears every slot whose window does not overlap the sensitive
// z envelope of its layer. It only ever clears slots, so applying it twice
// is the same as applying it once.
func MaskWindows(lr *LayerRange, zw *ZWindows, tbl geometry.Table) {
	for i, s := range lr {
		if !s.Valid {
			continue
		}
		if !tbl.Overlaps(s.Layer, zw[i].Low, zw[i].High) {
			lr[i] = LayerSlot{}
			zw[i] = ZWindow{}
		}
	}
}

// Candidates runs the resolve, project and mask stages for one inner hit.
func (p Params) Candidates(hit geometry.Hit, tbl geometry.Table) (LayerRange, ZWindows) {
	lr := ResolveLayers(hit.Layer, p.NLayers)
	if lr.Empty() {
		return lr, ZWindows{}
	}
	zw := ProjectWindows(hit, lr, p.ZMinus, p.ZPlus, p.SlotRatios(lr, tbl))
	MaskWindows(&lr, &zw, tbl)
	return lr, zw
}
