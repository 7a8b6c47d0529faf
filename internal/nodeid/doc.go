// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for the keys of
synthesized cluster nodes, based on the canonical format `path`.

The format is a dot-separated sequence of segments where the first segment is
the cluster name and the last one is the role, optionally indexed,
e.g., `analytics.worker[2]` or `analytics.controller[0]`.

Keys are stable within a build: the same cluster description always produces
the same keys, which is what makes the derived hostnames and node IDs
deterministic.
*/
package nodeid
