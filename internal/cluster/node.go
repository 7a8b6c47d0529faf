package cluster

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/clustergrid/internal/nodeid"
)

// Artifact is a rendered configuration file placed on a node.
type Artifact struct {
	Path    string
	Content string
}

// Node is one workload node of the built topology.
type Node struct {
	ID      string
	Key     nodeid.Address
	Role    Role
	Address string
	Image   string
	Command []string
	Env     map[string]string
	// ConfigArtifacts maps a target path to the rendered content.
	ConfigArtifacts map[string]string
	Job             *JobDirective
}

func (n *Node) String() string {
	return fmt.Sprintf("%s (%s)", n.Key.String(), n.Address)
}

// Topology is the immutable result of a build. Accessors return fresh slices
// but share the *Node values and their maps; callers must treat nodes as
// read-only and copy before changing them.
type Topology struct {
	cluster    string
	controlURL string
	nodes      []*Node
	byID       map[string]*Node
	byRole     map[Role][]*Node
	order      []*Node
}

// NewTopology assembles a topology. nodes are in allocation order and order
// lists the same node IDs in dependency order.
func NewTopology(cluster, controlURL string, nodes []*Node, order []string) (*Topology, error) {
	t := &Topology{
		cluster:    cluster,
		controlURL: controlURL,
		nodes:      slices.Clone(nodes),
		byID:       make(map[string]*Node, len(nodes)),
		byRole:     make(map[Role][]*Node),
	}
	for _, n := range nodes {
		if _, dup := t.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s for %s", n.ID, n.Key.String())
		}
		t.byID[n.ID] = n
		t.byRole[n.Role] = append(t.byRole[n.Role], n)
	}
	if len(order) != len(nodes) {
		return nil, fmt.Errorf("order lists %d nodes, topology has %d", len(order), len(nodes))
	}
	for _, id := range order {
		n, ok := t.byID[id]
		if !ok {
			return nil, fmt.Errorf("order references unknown node %s", id)
		}
		t.order = append(t.order, n)
	}
	return t, nil
}

// Cluster returns the cluster name.
func (t *Topology) Cluster() string { return t.cluster }

// ControlURL is the URL workers and the job runner use to reach the
// controllers.
func (t *Topology) ControlURL() string { return t.controlURL }

// Nodes returns all nodes in allocation order.
func (t *Topology) Nodes() []*Node { return slices.Clone(t.nodes) }

// Len returns the number of nodes.
func (t *Topology) Len() int { return len(t.nodes) }

// ByRole returns the nodes of a role in allocation order.
func (t *Topology) ByRole(r Role) []*Node { return slices.Clone(t.byRole[r]) }

// Node looks a node up by ID.
func (t *Topology) Node(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Lookup finds a node by its key, e.g. `analytics.worker[1]`.
func (t *Topology) Lookup(key string) (*Node, error) {
	addr, err := nodeid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("invalid node key %q: %w", key, err)
	}
	for _, n := range t.nodes {
		if n.Key.Equal(addr) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("no node with key %q", key)
}

// Order returns the nodes so that every node comes after the nodes it
// references.
func (t *Topology) Order() []*Node { return slices.Clone(t.order) }

// Roles returns the set of roles that own at least one node.
func (t *Topology) Roles() RoleSet {
	var present []Role
	for _, r := range slices.Sorted(maps.Keys(t.byRole)) {
		if len(t.byRole[r]) > 0 {
			present = append(present, r)
		}
	}
	return NewRoleSet(present...)
}
