package doublet

// NumSlots is the number of candidate outer layers considered per inner hit.
const NumSlots = 4

// slotOffsets is the layer offset of each slot relative to the inner layer.
var slotOffsets = [NumSlots]int{+2, +1, -1, -2}

// LayerSlot is one candidate outer layer. The zero value is an empty slot.
type LayerSlot struct {
	Layer int
	Valid bool
}

// LayerRange is the fixed-size candidate set for one inner hit. Slot i
// always corresponds to window i of the ZWindows built alongside it.
type LayerRange [NumSlots]LayerSlot

// ResolveLayers returns the candidate layers {L+2, L+1, L-1, L-2} for an
// inner hit on layer. Candidates outside [0, nLayers) are left empty.
func ResolveLayers(layer, nLayers int) LayerRange {
	var lr LayerRange
	for i, off := range slotOffsets {
		l := layer + off
		if l >= 0 && l < nLayers {
			lr[i] = LayerSlot{Layer: l, Valid: true}
		}
	}
	return lr
}

// Empty reports whether no slot holds a candidate.
func (lr LayerRange) Empty() bool {
	for _, s := range lr {
		if s.Valid {
			return false
		}
	}
	return true
}

// Slot returns the slot index holding layer.
func (lr LayerRange) Slot(layer int) (int, bool) {
	for i, s := range lr {
		if s.Valid && s.Layer == layer {
			return i, true
		}
	}
	return 0, false
}
