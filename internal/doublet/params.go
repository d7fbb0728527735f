package doublet

import (
	"fmt"

	"github.com/banshee-data/doublets/internal/geometry"
)

// Params holds the run-wide, read-only pipeline configuration.
type Params struct {
	NLayers    int `json:"n_layers"`     // Number of detector layers
	NPhiSlices int `json:"n_phi_slices"` // Number of azimuthal slices, including the overflow slice

	MinDoubletLength float64 `json:"min_doublet_length"` // Exclusive lower bound on outer.R - inner.R (mm)
	MaxDoubletLength float64 `json:"max_doublet_length"` // Exclusive upper bound on outer.R - inner.R (mm)
	MaxCtg           float64 `json:"max_ctg"`            // Exclusive bound on |dz/dr|

	ZMinus float64 `json:"z_minus"` // Lower reference plane on the beam axis (mm)
	ZPlus  float64 `json:"z_plus"`  // Upper reference plane on the beam axis (mm)

	// RefRatios is the per-slot projection ratio table, in LayerRange slot
	// order. When empty, each slot uses the radius of its candidate layer.
	RefRatios []float64 `json:"ref_ratios,omitempty"`
}

// Validate checks the physical constraints on the parameters.
func (p Params) Validate() error {
	if p.NLayers <= 0 {
		return fmt.Errorf("n_layers must be positive, got %d", p.NLayers)
	}
	if p.NPhiSlices <= 0 {
		return fmt.Errorf("n_phi_slices must be positive, got %d", p.NPhiSlices)
	}
	if p.MinDoubletLength < 0 {
		return fmt.Errorf("min_doublet_length must be non-negative, got %g", p.MinDoubletLength)
	}
	if p.MaxDoubletLength <= p.MinDoubletLength {
		return fmt.Errorf("max_doublet_length (%g) must exceed min_doublet_length (%g)",
			p.MaxDoubletLength, p.MinDoubletLength)
	}
	if p.MaxCtg <= 0 {
		return fmt.Errorf("max_ctg must be positive, got %g", p.MaxCtg)
	}
	if n := len(p.RefRatios); n != 0 && n != NumSlots {
		return fmt.Errorf("ref_ratios must have %d entries, got %d", NumSlots, n)
	}
	return nil
}

// SlotRatios returns the projection ratio for every slot of lr. Invalid
// slots get zero.
func (p Params) SlotRatios(lr LayerRange, tbl geometry.Table) [NumSlots]float64 {
	var ratios [NumSlots]float64
	for i, s := range lr {
		if !s.Valid {
			continue
		}
		if len(p.RefRatios) == NumSlots {
			ratios[i] = p.RefRatios[i]
		} else {
			ratios[i] = tbl.Layer(s.Layer).R
		}
	}
	return ratios
}

// canonPhi folds the overflow slice onto slice 0. The overflow slice only
// holds an azimuth of exactly 2π.
func canonPhi(phi, nPhiSlices int) int {
	if nPhiSlices > 1 && phi == nPhiSlices-1 {
		return 0
	}
	return phi
}
