// Package policy derives the minimal set of directional access rules a built
// topology needs. Synthesis is a pure function of the roles that own nodes and
// of the integrations that are enabled; it never looks at individual nodes.
package policy
