// Package geometry owns the static detector description and the hit record.
//
// Key types: Hit, LayerBounds, Table.
//
// Everything in this package is read-only once constructed. A Table is
// built once per run by the dataset loader and passed by value into the
// doublet pipeline; there are no package-level tables.
package geometry
