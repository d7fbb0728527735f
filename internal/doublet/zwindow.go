package doublet

import (
	"math"

	"github.com/banshee-data/doublets/internal/geometry"
)

// ZWindow is the z acceptance interval projected onto one candidate layer.
// Low <= High whenever Valid is set.
type ZWindow struct {
	Low, High float64
	Valid     bool
}

// ZWindows parallels a LayerRange slot for slot.
type ZWindows [NumSlots]ZWindow

// ProjectWindows computes the z window of every valid slot in lr. Each bound
// is the z at which the line from a reference plane through the hit crosses
// the slot's ratio:
//
//	zRef + floor(ratio * (hit.Z - zRef) / hit.R)
//
// The hit must have R > 0; NewEvent rejects hits that do not.
func ProjectWindows(hit geometry.Hit, lr LayerRange, zMinus, zPlus float64, ratios [NumSlots]float64) ZWindows {
	var zw ZWindows
	for i, s := range lr {
		if !s.Valid {
			continue
		}
		zw[i] = projectWindow(hit.R, hit.Z, zMinus, zPlus, ratios[i])
	}
	return zw
}

func projectWindow(r, z, zMinus, zPlus, ratio float64) ZWindow {
	zm := zMinus + math.Floor(ratio*(z-zMinus)/r)
	zp := zPlus + math.Floor(ratio*(z-zPlus)/r)
	if zp < zm {
		return ZWindow{Low: zp, High: zm, Valid: true}
	}
	return ZWindow{Low: zm, High: zp, Valid: true}
}

// Contains reports whether z lies strictly inside the window.
func (w ZWindow) Contains(z float64) bool {
	return w.Valid && z > w.Low && z < w.High
}
