package doublet

import (
	"cmp"
	"fmt"
	"slices"
)

// Doublet is an accepted (inner, outer) pair of hit ids.
type Doublet struct {
	Inner int64 `json:"inner"`
	Outer int64 `json:"outer"`
}

// Backend runs the doublet pipeline over an Event.
//
// Implementations must return the same doublets for the same Event,
// sorted by (Inner, Outer).
type Backend interface {
	// Name identifies the backend in logs and stored runs.
	Name() string
	// MakeDoublets returns every accepted pair in ev.
	MakeDoublets(ev *Event) []Doublet
}

// Backend names accepted by NewBackend.
const (
	BackendScalar = "scalar"
	BackendBatch  = "batch"
)

// NewBackend returns the backend registered under name. workers is passed
// to backends that parallelise; zero means GOMAXPROCS.
func NewBackend(name string, workers int) (Backend, error) {
	switch name {
	case BackendScalar, "":
		return NewScalarBackend(workers), nil
	case BackendBatch:
		return NewBatchBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", name, BackendScalar, BackendBatch)
	}
}

func compareDoublets(a, b Doublet) int {
	if c := cmp.Compare(a.Inner, b.Inner); c != 0 {
		return c
	}
	return cmp.Compare(a.Outer, b.Outer)
}

func sortDoublets(ds []Doublet) {
	slices.SortFunc(ds, compareDoublets)
}
