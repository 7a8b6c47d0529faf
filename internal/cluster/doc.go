// Package cluster holds the value types shared by every synthesis stage: roles
// and role sets, the cluster spec handed in by the caller, the resolved nodes
// and topology, access rules and rendered artifacts.
//
// Nothing in this package performs I/O. Values are built once per synthesis
// and treated as immutable afterwards.
package cluster
