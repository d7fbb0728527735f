package doublet

import (
	"github.com/ajroetker/go-highway/hwy"
)

// BatchBackend evaluates each pipeline stage as vector operations over
// column arrays: first the resolve, project and mask stages for all inner
// hits at once, then the pairwise filters with one lane per outer hit.
//
// Every lane performs the same floating point operations, in the same
// order, as the scalar predicates, so both backends agree exactly.
type BatchBackend struct{}

// NewBatchBackend creates a BatchBackend.
func NewBatchBackend() *BatchBackend { return &BatchBackend{} }

// Name implements Backend.
func (b *BatchBackend) Name() string { return BackendBatch }

// hitColumns is a structure-of-arrays view of a set of hits. Layer and phi
// are small integers held exactly in float64 lanes.
type hitColumns struct {
	id    []int64
	layer []float64
	phi   []float64 // canonical slice, overflow folded onto 0
	r     []float64
	z     []float64
}

func newHitColumns(n int) hitColumns {
	return hitColumns{
		id:    make([]int64, 0, n),
		layer: make([]float64, 0, n),
		phi:   make([]float64, 0, n),
		r:     make([]float64, 0, n),
		z:     make([]float64, 0, n),
	}
}

// slotColumns holds the masked candidates of every inner hit, one column
// per slot.
type slotColumns struct {
	layer [NumSlots][]float64
	valid [NumSlots][]bool
	low   [NumSlots][]float64
	high  [NumSlots][]float64
}

// MakeDoublets implements Backend.
func (b *BatchBackend) MakeDoublets(ev *Event) []Doublet {
	n := len(ev.Hits)
	if n == 0 {
		return []Doublet{}
	}

	all := newHitColumns(n)
	byLayer := make([]hitColumns, ev.Params.NLayers)
	for l := range byLayer {
		byLayer[l] = newHitColumns(len(ev.byLayer[l]))
		for _, i := range ev.byLayer[l] {
			byLayer[l].append(ev, i)
		}
	}
	for i := range ev.Hits {
		all.append(ev, i)
	}

	sc := batchCandidates(ev, all)

	out := make([]Doublet, 0, capacityHint(n))
	for i := range n {
		for s := range NumSlots {
			if !sc.valid[s][i] {
				continue
			}
			outer := byLayer[int(sc.layer[s][i])]
			out = appendAccepted(out, ev.Params, all, i, sc.low[s][i], sc.high[s][i], outer)
		}
	}
	sortDoublets(out)
	return out
}

func (c *hitColumns) append(ev *Event, i int) {
	h := ev.Hits[i]
	c.id = append(c.id, h.ID)
	c.layer = append(c.layer, float64(h.Layer))
	c.phi = append(c.phi, float64(canonPhi(h.Phi, ev.Params.NPhiSlices)))
	c.r = append(c.r, h.R)
	c.z = append(c.z, h.Z)
}

// batchCandidates runs resolve, project and mask for every hit in all.
func batchCandidates(ev *Event, all hitColumns) slotColumns {
	p := ev.Params
	n := len(all.r)

	var sc slotColumns
	ratio := make([]float64, n)
	zMin := make([]float64, n)
	zMax := make([]float64, n)

	vZero := hwy.Set(0.0)
	vLayers := hwy.Set(float64(p.NLayers))
	vZMinus := hwy.Set(p.ZMinus)
	vZPlus := hwy.Set(p.ZPlus)

	for s, off := range slotOffsets {
		layer := make([]float64, n)
		valid := make([]bool, n)
		low := make([]float64, n)
		high := make([]float64, n)
		vOff := hwy.Set(float64(off))

		// Resolve: candidate = layer + offset, valid when inside [0, nLayers).
		lanes(n, func(o int, tail hwy.Mask[float64]) {
			cand := hwy.Add(hwy.MaskLoad(tail, all.layer[o:]), vOff)
			ok := hwy.MaskAnd(tail, hwy.MaskAnd(hwy.GreaterEqual(cand, vZero), hwy.LessThan(cand, vLayers)))
			hwy.MaskStore(tail, cand, layer[o:])
			storeMask(ok, valid[o:])
		})

		// Gather per-lane ratio and envelope for the candidate layer.
		for i := range n {
			if !valid[i] {
				ratio[i], zMin[i], zMax[i] = 0, 0, 0
				continue
			}
			lb := ev.Table.Layer(int(layer[i]))
			if len(p.RefRatios) == NumSlots {
				ratio[i] = p.RefRatios[s]
			} else {
				ratio[i] = lb.R
			}
			zMin[i], zMax[i] = lb.ZMin, lb.ZMax
		}

		// Project and mask.
		lanes(n, func(o int, tail hwy.Mask[float64]) {
			r := hwy.MaskLoad(tail, all.r[o:])
			z := hwy.MaskLoad(tail, all.z[o:])
			kr := hwy.MaskLoad(tail, ratio[o:])

			zm := hwy.Add(vZMinus, hwy.Floor(hwy.Div(hwy.Mul(kr, hwy.Sub(z, vZMinus)), r)))
			zp := hwy.Add(vZPlus, hwy.Floor(hwy.Div(hwy.Mul(kr, hwy.Sub(z, vZPlus)), r)))
			lo := hwy.Min(zm, zp)
			hi := hwy.Max(zm, zp)

			overlap := hwy.MaskAnd(
				hwy.GreaterThan(hwy.MaskLoad(tail, zMax[o:]), lo),
				hwy.LessThan(hwy.MaskLoad(tail, zMin[o:]), hi),
			)
			keep := hwy.MaskAnd(tail, overlap)
			hwy.MaskStore(tail, lo, low[o:])
			hwy.MaskStore(tail, hi, high[o:])
			for k := range keep.NumLanes() {
				if o+k < n {
					valid[o+k] = valid[o+k] && keep.GetBit(k)
				}
			}
		})

		for i := range n {
			if !valid[i] {
				low[i], high[i] = 0, 0
			}
		}
		sc.layer[s], sc.valid[s], sc.low[s], sc.high[s] = layer, valid, low, high
	}
	return sc
}

// appendAccepted evaluates the pairwise filters between inner hit i of all
// and every hit in outer, one lane per outer hit.
func appendAccepted(dst []Doublet, p Params, all hitColumns, i int, low, high float64, outer hitColumns) []Doublet {
	m := len(outer.r)
	if m == 0 {
		return dst
	}

	innerPhi := all.phi[i]
	last := float64(p.NPhiSlices - 2)
	vPhi := hwy.Set(innerPhi)
	vPhiUp := hwy.Set(innerPhi + 1)
	vPhiDown := hwy.Set(innerPhi - 1)
	vLast := hwy.Set(last)
	vZero := hwy.Set(0.0)
	vR := hwy.Set(all.r[i])
	vZ := hwy.Set(all.z[i])
	vMinLen := hwy.Set(p.MinDoubletLength)
	vMaxLen := hwy.Set(p.MaxDoubletLength)
	vLow := hwy.Set(low)
	vHigh := hwy.Set(high)
	vCtg := hwy.Set(p.MaxCtg)

	lanes(m, func(o int, tail hwy.Mask[float64]) {
		phi := hwy.MaskLoad(tail, outer.phi[o:])
		r := hwy.MaskLoad(tail, outer.r[o:])
		z := hwy.MaskLoad(tail, outer.z[o:])

		adj := hwy.MaskOr(hwy.Equal(phi, vPhi), hwy.MaskOr(hwy.Equal(phi, vPhiDown), hwy.Equal(phi, vPhiUp)))
		if innerPhi == 0 {
			adj = hwy.MaskOr(adj, hwy.Equal(phi, vLast))
		}
		if innerPhi == last {
			adj = hwy.MaskOr(adj, hwy.Equal(phi, vZero))
		}

		dr := hwy.Sub(r, vR)
		radial := hwy.MaskAnd(hwy.GreaterThan(dr, vMinLen), hwy.LessThan(dr, vMaxLen))
		inWindow := hwy.MaskAnd(hwy.GreaterThan(z, vLow), hwy.LessThan(z, vHigh))
		slope := hwy.LessThan(hwy.Abs(hwy.Div(hwy.Sub(z, vZ), dr)), vCtg)

		accept := hwy.MaskAnd(tail, hwy.MaskAnd(adj, hwy.MaskAnd(radial, hwy.MaskAnd(inWindow, slope))))
		if !accept.AnyTrue() {
			return
		}
		for k := range accept.NumLanes() {
			if accept.GetBit(k) {
				dst = append(dst, Doublet{Inner: all.id[i], Outer: outer.id[o+k]})
			}
		}
	})
	return dst
}

// lanes calls fn once per vector of n elements. tail has a lane set for
// every element that exists, so the last partial vector is masked.
func lanes(n int, fn func(offset int, tail hwy.Mask[float64])) {
	full := hwy.TailMask[float64](hwy.MaxLanes[float64]())
	hwy.ProcessWithTail[float64](n,
		func(offset int) { fn(offset, full) },
		func(offset, count int) { fn(offset, hwy.TailMask[float64](count)) },
	)
}

func storeMask(m hwy.Mask[float64], dst []bool) {
	for k := range min(m.NumLanes(), len(dst)) {
		dst[k] = m.GetBit(k)
	}
}
