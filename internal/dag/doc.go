// Package dag provides the small, generic directed graph used to record which
// node's configuration references which other node's address.
//
// Edges point from the referenced node to the referencing one, so a
// topological order is a valid construction (and emission) order.
package dag
