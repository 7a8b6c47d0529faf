package policy

import (
	"github.com/vk/clustergrid/internal/cluster"
)

// Options are the integrations that add rules beyond the internal ones.
type Options struct {
	// PublicEgress lets workload roles reach the public network on
	// MetadataPorts. It exists so nodes can look up their own public address.
	PublicEgress  bool
	MetadataPorts []int
	// StoragePorts is empty when no storage cluster is configured.
	StoragePorts []int
	// CoordinationPorts holds the distinct ports of the coordination peers.
	// It is empty when no coordination service is configured.
	CoordinationPorts []int
	ExposeUI          bool
}

// OptionsFromSpec derives the options of a validated spec.
func OptionsFromSpec(s cluster.Spec) (Options, error) {
	opts := Options{
		PublicEgress:  s.PublicEgress,
		MetadataPorts: s.MetadataPorts,
		ExposeUI:      s.ExposeUI,
	}
	if s.Storage != nil {
		_, ports, err := s.Storage.Endpoint()
		if err != nil {
			return Options{}, err
		}
		opts.StoragePorts = ports
	}
	if s.Coordination != nil {
		opts.CoordinationPorts = s.Coordination.Ports()
	}
	return opts, nil
}

type ruleTemplate struct {
	from, to cluster.RoleSet
	port     int
}

var (
	controller = cluster.NewRoleSet(cluster.Controller)
	worker     = cluster.NewRoleSet(cluster.Worker)
	jobRunner  = cluster.NewRoleSet(cluster.JobRunner)
	workload   = cluster.NewRoleSet(cluster.Controller, cluster.Worker, cluster.JobRunner)
	public     = cluster.NewRoleSet(cluster.PublicInternet)
	storage    = cluster.NewRoleSet(cluster.StorageCluster)
	coordinate = cluster.NewRoleSet(cluster.CoordinationService)
	electors   = cluster.NewRoleSet(cluster.Controller, cluster.JobRunner)
)

var internalRules = []ruleTemplate{
	{worker, controller, cluster.ControlPort},
	{worker, worker, cluster.BlockTransferPort},
	{worker, jobRunner, cluster.JobCallbackPort},
	{worker, jobRunner, cluster.BlockTransferPort},
	{jobRunner, controller, cluster.ControlPort},
	{jobRunner, worker, cluster.BlockTransferPort},
}

var uiRules = []ruleTemplate{
	{public, controller, cluster.ControllerUIPort},
	{public, worker, cluster.WorkerUIPort},
	{public, jobRunner, cluster.JobHistoryPort},
	{public, jobRunner, cluster.JobUIPort},
}

// Synthesize returns the rule set for topo. Rules whose node-owning
// endpoints have no nodes are left out; synthesizing the same input twice
// yields equal sets.
func Synthesize(topo *cluster.Topology, opts Options) *RuleSet {
	present := topo.Roles()
	set := NewRuleSet()
	add := func(from, to cluster.RoleSet, port int, d cluster.Direction) {
		from, to = restrict(from, present), restrict(to, present)
		if from.Empty() || to.Empty() {
			return
		}
		set.Add(cluster.AccessRule{From: from, To: to, Port: port, Direction: d})
	}

	for _, t := range internalRules {
		add(t.from, t.to, t.port, cluster.Internal)
	}
	if opts.PublicEgress {
		for _, p := range opts.MetadataPorts {
			add(workload, public, p, cluster.Egress)
		}
	}
	for _, p := range opts.StoragePorts {
		add(workload, storage, p, cluster.Egress)
	}
	for _, p := range opts.CoordinationPorts {
		add(electors, coordinate, p, cluster.Egress)
	}

	if opts.ExposeUI {
		ExposeUI(set, topo)
	}
	return set
}

// ExposeUI adds the ingress rules that open the dashboards of the roles
// present in topo. It only ever adds rules.
func ExposeUI(set *RuleSet, topo *cluster.Topology) *RuleSet {
	present := topo.Roles()
	for _, t := range uiRules {
		to := restrict(t.to, present)
		if to.Empty() {
			continue
		}
		set.Add(cluster.AccessRule{From: t.from, To: to, Port: t.port, Direction: cluster.Ingress})
	}
	return set
}

// restrict drops the node-owning roles that have no nodes. External roles are
// always kept.
func restrict(s, present cluster.RoleSet) cluster.RoleSet {
	return s.Filter(func(r cluster.Role) bool {
		return r.External() || present.Has(r)
	})
}
