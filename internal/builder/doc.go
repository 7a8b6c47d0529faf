/*
Package builder constructs the node topology of a cluster from a validated
spec. It is the bridge between the cluster description (the 'cluster' package)
and the network policy synthesizer (the 'policy' package).

Every node goes through two phases:

 1. Allocation: the node gets its identity and hostname. Nothing else is
    computed and nothing depends on other nodes, so allocation is synchronous
    and deterministic.

 2. Binding: environment, command and configuration artifacts are filled in.
    Binding may read the addresses of other nodes, which must already be
    allocated. Every such reference is recorded as an edge in a 'dag' graph.

Roles are built in a fixed order: controllers, then workers, then the job
runner. Workers and the job runner reference the controllers through the
control URL, so the order guarantees every reference is already allocated.
Once all nodes are bound the graph is checked for cycles and its topological
order becomes the topology's construction order.
*/
package builder
