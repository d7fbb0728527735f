package doublet

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/doublets/internal/geometry"
)

var (
	// ErrNonPositiveRadius marks a hit with R <= 0, which the z projection
	// cannot divide by.
	ErrNonPositiveRadius = errors.New("hit radius must be positive")
	// ErrLayerOutOfRange marks a hit on a layer the geometry does not describe.
	ErrLayerOutOfRange = errors.New("hit layer out of range")
	// ErrPhiOutOfRange marks a hit outside [0, NPhiSlices).
	ErrPhiOutOfRange = errors.New("hit phi slice out of range")
	// ErrNonFiniteCoordinate marks a hit with a NaN or infinite coordinate.
	ErrNonFiniteCoordinate = errors.New("hit coordinate is not finite")
)

// Event is one validated set of hits with the geometry and parameters it
// is processed against. An Event is never mutated after NewEvent returns and
// may be shared by concurrent backends.
type Event struct {
	Params Params
	Table  geometry.Table
	Hits   []geometry.Hit

	// byLayer lists indices into Hits for each layer, in input order.
	byLayer [][]int
}

// NewEvent validates hits against p and tbl and indexes them by layer.
// The hits slice is copied.
func NewEvent(p Params, tbl geometry.Table, hits []geometry.Hit) (*Event, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.NLayers != tbl.NumLayers() {
		return nil, fmt.Errorf("params describe %d layers, geometry has %d", p.NLayers, tbl.NumLayers())
	}

	ev := &Event{
		Params:  p,
		Table:   tbl,
		Hits:    make([]geometry.Hit, len(hits)),
		byLayer: make([][]int, p.NLayers),
	}
	copy(ev.Hits, hits)

	for i, h := range ev.Hits {
		if err := p.checkHit(h); err != nil {
			return nil, fmt.Errorf("hit %d: %w", h.ID, err)
		}
		ev.byLayer[h.Layer] = append(ev.byLayer[h.Layer], i)
	}
	return ev, nil
}

func (p Params) checkHit(h geometry.Hit) error {
	switch {
	case math.IsNaN(h.R) || math.IsInf(h.R, 0) || math.IsNaN(h.Z) || math.IsInf(h.Z, 0):
		return ErrNonFiniteCoordinate
	case h.R <= 0:
		return fmt.Errorf("%w: r=%g", ErrNonPositiveRadius, h.R)
	case h.Layer < 0 || h.Layer >= p.NLayers:
		return fmt.Errorf("%w: layer %d not in [0, %d)", ErrLayerOutOfRange, h.Layer, p.NLayers)
	case h.Phi < 0 || h.Phi >= p.NPhiSlices:
		return fmt.Errorf("%w: slice %d not in [0, %d)", ErrPhiOutOfRange, h.Phi, p.NPhiSlices)
	}
	return nil
}

// LayerHits returns the indices into Hits of the hits on layer l.
func (ev *Event) LayerHits(l int) []int {
	return ev.byLayer[l]
}
