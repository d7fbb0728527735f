package doublet

import (
	"math"

	"github.com/banshee-data/doublets/internal/geometry"
)

// InLayerRange reports whether layer occupies a valid slot of lr and returns
// that slot.
func InLayerRange(layer int, lr LayerRange) (int, bool) {
	return lr.Slot(layer)
}

// PhiAdjacent reports whether two azimuthal slices are neighbours on the
// ring of slices [0, nPhiSlices-2]. The overflow slice nPhiSlices-1 counts as
// slice 0. The relation is symmetric.
func PhiAdjacent(inner, outer, nPhiSlices int) bool {
	a := canonPhi(inner, nPhiSlices)
	b := canonPhi(outer, nPhiSlices)
	last := nPhiSlices - 2
	return a == b || a == b+1 || a+1 == b ||
		(a == 0 && b == last) ||
		(a == last && b == 0)
}

// RadialSeparationOK reports whether minLen < outerR-innerR < maxLen.
func RadialSeparationOK(innerR, outerR, minLen, maxLen float64) bool {
	dr := outerR - innerR
	return dr > minLen && dr < maxLen
}

// InZWindow reports whether z lies strictly inside w.
func InZWindow(z float64, w ZWindow) bool {
	return w.Contains(z)
}

// SlopeOK reports whether |dz/dr| < maxCtg. outerR must differ from innerR.
func SlopeOK(innerR, innerZ, outerR, outerZ, maxCtg float64) bool {
	return math.Abs((outerZ-innerZ)/(outerR-innerR)) < maxCtg
}

// Accept applies all pairwise filters to an (inner, outer) hit pair, given
// the masked candidates of the inner hit.
//
// The radial filter runs before the slope filter. With MinDoubletLength >= 0
// it rejects every pair with outer.R == inner.R, so the slope is only
// evaluated with a non-zero denominator.
func (p Params) Accept(inner, outer geometry.Hit, lr LayerRange, zw ZWindows) bool {
	slot, ok := InLayerRange(outer.Layer, lr)
	if !ok {
		return false
	}
	if !PhiAdjacent(inner.Phi, outer.Phi, p.NPhiSlices) {
		return false
	}
	if !RadialSeparationOK(inner.R, outer.R, p.MinDoubletLength, p.MaxDoubletLength) {
		return false
	}
	if !InZWindow(outer.Z, zw[slot]) {
		return false
	}
	return SlopeOK(inner.R, inner.Z, outer.R, outer.Z, p.MaxCtg)
}
