package doublet

import (
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"

	"github.com/banshee-data/doublets/internal/geometry"
)

// ScalarBackend runs the full per-hit pipeline for one inner hit at a time.
// Inner hits are spread over a persistent worker pool; each hit writes its
// doublets into its own slot, so no locking is needed.
type ScalarBackend struct {
	pool *workerpool.Pool
}

// NewScalarBackend creates a ScalarBackend with the given number of
// workers. workers <= 0 uses GOMAXPROCS. Call Close when done.
func NewScalarBackend(workers int) *ScalarBackend {
	return &ScalarBackend{pool: workerpool.New(workers)}
}

// Name implements Backend.
func (b *ScalarBackend) Name() string { return BackendScalar }

// Workers returns the size of the worker pool.
func (b *ScalarBackend) Workers() int { return b.pool.NumWorkers() }

// Close stops the worker pool. MakeDoublets still works afterwards but runs
// sequentially.
func (b *ScalarBackend) Close() error {
	b.pool.Close()
	return nil
}

// MakeDoublets implements Backend.
func (b *ScalarBackend) MakeDoublets(ev *Event) []Doublet {
	perHit := make([][]Doublet, len(ev.Hits))
	b.pool.ParallelFor(len(ev.Hits), func(start, end int) {
		for i := start; i < end; i++ {
			perHit[i] = scanInnerHit(ev, ev.Hits[i])
		}
	})

	out := make([]Doublet, 0, capacityHint(len(ev.Hits)))
	for _, ds := range perHit {
		out = append(out, ds...)
	}
	sortDoublets(out)
	return out
}

// scanInnerHit returns the doublets whose inner hit is inner.
func scanInnerHit(ev *Event, inner geometry.Hit) []Doublet {
	p := ev.Params
	lr, zw := p.Candidates(inner, ev.Table)
	if lr.Empty() {
		return nil
	}

	var out []Doublet
	for _, s := range lr {
		if !s.Valid {
			continue
		}
		for _, j := range ev.byLayer[s.Layer] {
			outer := ev.Hits[j]
			if p.Accept(inner, outer, lr, zw) {
				out = append(out, Doublet{Inner: inner.ID, Outer: outer.ID})
			}
		}
	}
	return out
}
