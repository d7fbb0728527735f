package geometry

import (
	"fmt"
	"math"
)

// Hit is a single measured space point on one detector layer.
type Hit struct {
	ID    int64   // Dataset hit identifier
	Layer int     // Sequential layer index in [0, Table.NumLayers())
	Phi   int     // Azimuthal slice in [0, nPhiSlices)
	R     float64 // Transverse radius (mm)
	Z     float64 // Longitudinal coordinate (mm)
}

// LayerBounds is the sensitive envelope of one detector layer.
type LayerBounds struct {
	Layer       int     `json:"layer"`
	VolumeID    int     `json:"volume_id,omitempty"`    // Source volume, for raw hit mapping
	VolumeLayer int     `json:"volume_layer,omitempty"` // Layer id within the source volume
	R           float64 `json:"r"`                      // Nominal radius (mm)
	ZMin        float64 `json:"z_min"`                  // Sensitive z lower bound (mm)
	ZMax        float64 `json:"z_max"`                  // Sensitive z upper bound (mm)
}

// Table holds LayerBounds indexed by layer id.
type Table struct {
	layers []LayerBounds
	byVol  map[[2]int]int
}

// NewTable builds a Table from per-layer bounds. Layer ids must be dense
// and start at zero; the input order does not matter.
func NewTable(bounds []LayerBounds) (Table, error) {
	if len(bounds) == 0 {
		return Table{}, fmt.Errorf("geometry table is empty")
	}
	layers := make([]LayerBounds, len(bounds))
	seen := make([]bool, len(bounds))
	byVol := make(map[[2]int]int, len(bounds))
	for _, b := range bounds {
		if b.Layer < 0 || b.Layer >= len(bounds) {
			return Table{}, fmt.Errorf("layer %d outside [0, %d)", b.Layer, len(bounds))
		}
		if seen[b.Layer] {
			return Table{}, fmt.Errorf("duplicate layer %d", b.Layer)
		}
		if math.IsNaN(b.ZMin) || math.IsNaN(b.ZMax) || b.ZMin > b.ZMax {
			return Table{}, fmt.Errorf("layer %d: invalid z envelope [%g, %g]", b.Layer, b.ZMin, b.ZMax)
		}
		seen[b.Layer] = true
		layers[b.Layer] = b
		if b.VolumeID != 0 || b.VolumeLayer != 0 {
			byVol[[2]int{b.VolumeID, b.VolumeLayer}] = b.Layer
		}
	}
	return Table{layers: layers, byVol: byVol}, nil
}

// NumLayers returns the number of layers in the table.
func (t Table) NumLayers() int { return len(t.layers) }

// Layer returns the bounds of layer l. It panics if l is out of range.
func (t Table) Layer(l int) LayerBounds { return t.layers[l] }

// Layers returns a copy of all layer bounds in layer order.
func (t Table) Layers() []LayerBounds {
	out := make([]LayerBounds, len(t.layers))
	copy(out, t.layers)
	return out
}

// LookupVolume maps a (volume, volume layer) pair from a raw hit file to the
// sequential layer index.
func (t Table) LookupVolume(volumeID, volumeLayer int) (int, bool) {
	l, ok := t.byVol[[2]int{volumeID, volumeLayer}]
	return l, ok
}

// Overlaps reports whether the open interval (low, high) intersects the
// sensitive z envelope of layer l.
func (t Table) Overlaps(l int, low, high float64) bool {
	b := t.layers[l]
	return b.ZMax > low && b.ZMin < high
}
