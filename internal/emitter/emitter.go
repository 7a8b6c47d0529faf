// Package emitter hands a synthesized plan to a deployment platform. It only
// resolves role sets to node IDs and external endpoints; everything else was
// decided during synthesis.
package emitter

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/synth"
)

// Emit sends plan to p: every node in construction order, then the internal
// and egress permissions, then the public exposures and finally Deploy. It
// stops at the first platform error.
func Emit(ctx context.Context, plan *synth.Plan, p platform.Platform) error {
	logger := ctxlog.FromContext(ctx).With("cluster", plan.Topology.Cluster())

	for _, n := range plan.Topology.Order() {
		if err := p.CreateNode(ctx, NodeSpec(n)); err != nil {
			return fmt.Errorf("failed to create node %s: %w", n.Key.String(), err)
		}
	}
	logger.Debug("Emit: Nodes created.", "count", plan.Topology.Len())

	r := newResolver(plan)
	allowed := 0
	for _, d := range []cluster.Direction{cluster.Internal, cluster.Egress} {
		for _, rule := range plan.Rules.Filter(d) {
			perms, err := r.permissions(rule)
			if err != nil {
				return err
			}
			for _, perm := range perms {
				if err := p.Allow(ctx, perm); err != nil {
					return fmt.Errorf("failed to allow %s: %w", rule, err)
				}
				allowed++
			}
		}
	}
	logger.Debug("Emit: Permissions sent.", "count", allowed)

	exposed := 0
	for _, rule := range plan.Rules.Filter(cluster.Ingress) {
		exp := platform.Exposure{To: r.nodes(rule.To), Port: rule.Port}
		if err := p.ExposePublic(ctx, exp); err != nil {
			return fmt.Errorf("failed to expose %s: %w", rule, err)
		}
		exposed++
	}
	logger.Debug("Emit: Exposures sent.", "count", exposed)

	if err := p.Deploy(ctx); err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}
	logger.Info("Emit: Deployment handed to platform.", "nodes", plan.Topology.Len(), "permissions", allowed, "exposures", exposed)
	return nil
}

// NodeSpec converts a built node to its platform form.
func NodeSpec(n *cluster.Node) platform.NodeSpec {
	spec := platform.NodeSpec{
		ID:       n.ID,
		Key:      n.Key.String(),
		Role:     n.Role.String(),
		Hostname: n.Address,
		Image:    n.Image,
		Command:  slices.Clone(n.Command),
		Env:      maps.Clone(n.Env),
		Files:    maps.Clone(n.ConfigArtifacts),
	}
	if n.Job != nil {
		spec.Job = n.Job.Command
	}
	return spec
}

type resolver struct {
	topo         *cluster.Topology
	storageHost  string
	// coordination maps a peer port to its distinct hosts in peer order.
	coordination map[int][]string
}

func newResolver(plan *synth.Plan) *resolver {
	r := &resolver{topo: plan.Topology}
	if s := plan.Spec.Storage; s != nil {
		// The storage URI was validated during synthesis.
		r.storageHost, _, _ = s.Endpoint()
	}
	if c := plan.Spec.Coordination; c != nil {
		r.coordination = make(map[int][]string)
		for _, addr := range c.Addresses() {
			host, port, err := cluster.SplitPeer(addr)
			if err != nil || slices.Contains(r.coordination[port], host) {
				continue
			}
			r.coordination[port] = append(r.coordination[port], host)
		}
	}
	return r
}

// nodes resolves the node-owning roles of s to node IDs in allocation order.
func (r *resolver) nodes(s cluster.RoleSet) platform.Endpoint {
	var ids []string
	for _, role := range s.Roles() {
		for _, n := range r.topo.ByRole(role) {
			ids = append(ids, n.ID)
		}
	}
	return platform.Endpoint{Nodes: ids}
}

// permissions turns a rule into platform permissions. A rule towards the
// coordination service yields one permission per peer host listening on the
// rule port.
func (r *resolver) permissions(rule cluster.AccessRule) ([]platform.Permission, error) {
	from := r.nodes(rule.From)
	if rule.Direction == cluster.Internal {
		return []platform.Permission{{From: from, To: r.nodes(rule.To), Port: rule.Port}}, nil
	}

	var targets []string
	switch {
	case rule.To.Has(cluster.PublicInternet):
		targets = []string{platform.ExternalPublic}
	case rule.To.Has(cluster.StorageCluster):
		if r.storageHost == "" {
			return nil, fmt.Errorf("rule %s targets storage but no storage is configured", rule)
		}
		targets = []string{platform.StorageEndpoint(r.storageHost)}
	case rule.To.Has(cluster.CoordinationService):
		hosts := r.coordination[rule.Port]
		if len(hosts) == 0 {
			return nil, fmt.Errorf("rule %s targets coordination but no peer listens on port %d", rule, rule.Port)
		}
		for _, peer := range hosts {
			targets = append(targets, platform.CoordinationEndpoint(peer))
		}
	default:
		return nil, fmt.Errorf("egress rule %s has no external destination", rule)
	}

	perms := make([]platform.Permission, len(targets))
	for i, t := range targets {
		perms[i] = platform.Permission{From: from, To: platform.Endpoint{External: t}, Port: rule.Port}
	}
	return perms, nil
}
