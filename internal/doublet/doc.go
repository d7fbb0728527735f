// Package doublet builds doublets: pairs of hits on nearby detector layers
// that are geometrically consistent with one particle trajectory.
//
// For every inner hit the pipeline runs four stages:
//
//  1. ResolveLayers picks up to four candidate layers (L+2, L+1, L-1, L-2).
//  2. ProjectWindows projects a z acceptance window onto each candidate by
//     drawing lines from the two reference planes through the hit.
//  3. MaskWindows drops candidates whose window misses the layer's
//     sensitive z envelope.
//  4. Params.Accept applies the pairwise filters to every outer hit on the
//     surviving layers.
//
// Two Backend implementations run these stages: ScalarBackend walks inner
// hits one at a time on a worker pool, BatchBackend evaluates each stage as
// vector operations over column arrays. Both return the same doublets for
// the same Event.
//
// Key types: Params, Event, LayerRange, ZWindows, Doublet, Backend.
package doublet
