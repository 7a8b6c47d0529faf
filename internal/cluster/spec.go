package cluster

import (
	"math"
	"net"
	"net/url"
	"regexp"
	"slices"
	"strconv"
)

// MemorySource says where the per-node memory budget comes from. At most one
// field may be set; when neither is, the default executor memory applies.
type MemorySource struct {
	// ExplicitMiB is used as-is after rounding to an integer.
	ExplicitMiB *float64
	// Machine derives the budget from the machine's RAM.
	Machine *Machine
}

// Machine describes the host a node runs on. RAMGiB may be left zero when
// InstanceType is set; it is then filled in by a machine catalog before the
// build.
type Machine struct {
	Provider     string
	InstanceType string
	RAMGiB       float64
}

// Coordination references an already running coordination service.
type Coordination struct {
	Peers []string
	Port  int
}

// Storage references the external storage cluster by endpoint URI.
type Storage struct {
	URI   string
	Ports []int
}

// JobDirective is a job the JobRunner submits once it boots.
type JobDirective struct {
	Command string
}

// Spec is the cluster description consumed by the synthesis pipeline.
type Spec struct {
	Name         string
	Image        string
	Domain       string
	Controllers  int
	Workers      int
	JobRunner    bool
	Memory       MemorySource
	Coordination *Coordination
	Storage      *Storage
	Job          *JobDirective

	// ExposeUI opens the operator dashboards to the public network.
	ExposeUI bool
	// PublicEgress lets workload nodes reach the public network on the
	// metadata ports. Nodes use it to discover their own public address; it is
	// a workaround and can be switched off once the address is injected.
	PublicEgress  bool
	MetadataPorts []int

	ExtraEnv map[string]string
	// Templates overrides base template text by template name.
	Templates map[string]string
}

// DefaultSpec returns the spec a description starts from before its own
// attributes are applied.
func DefaultSpec(name string) Spec {
	return Spec{
		Name:          name,
		Image:         DefaultImage,
		Domain:        DefaultDomain,
		Controllers:   1,
		JobRunner:     true,
		PublicEgress:  true,
		MetadataPorts: []int{MetadataPort},
	}
}

var labelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

// Validate checks the spec and returns an *InvalidSpecError on the first
// problem found.
func (s *Spec) Validate() error {
	if s.Name == "" || !labelRegex.MatchString(s.Name) {
		return invalid("name", "%q is not a valid cluster name", s.Name)
	}
	if s.Image == "" {
		return invalid("image", "must not be empty")
	}
	if s.Domain == "" {
		return invalid("domain", "must not be empty")
	}
	if s.Controllers < 1 {
		return invalid("controllers", "at least one controller is required, got %d", s.Controllers)
	}
	if s.Workers < 0 {
		return invalid("workers", "worker count must not be negative, got %d", s.Workers)
	}
	if s.Controllers > 1 && s.Coordination == nil {
		return invalid("coordination", "%d controllers need a coordination service for leader election", s.Controllers)
	}
	if s.Memory.ExplicitMiB != nil && s.Memory.Machine != nil {
		return invalid("memory", "set either an explicit amount or a machine, not both")
	}
	if v := s.Memory.ExplicitMiB; v != nil && !finite(*v) {
		return invalid("memory", "explicit amount %v is not a finite number", *v)
	}
	if v := s.Memory.ExplicitMiB; v != nil && math.Abs(*v) > MaxMemoryMiB {
		return invalid("memory", "explicit amount %v MiB exceeds %d MiB", *v, int64(MaxMemoryMiB))
	}
	if m := s.Memory.Machine; m != nil && !finite(m.RAMGiB) {
		return invalid("memory", "machine RAM %v GiB is not a finite number", m.RAMGiB)
	}
	if m := s.Memory.Machine; m != nil && math.Abs(m.RAMGiB) > MaxMemoryMiB/1024 {
		return invalid("memory", "machine RAM %v GiB exceeds %d GiB", m.RAMGiB, int64(MaxMemoryMiB/1024))
	}
	if m := s.Memory.Machine; m != nil && m.RAMGiB <= 0 && m.InstanceType == "" {
		return invalid("memory.machine", "needs ram_gib or instance_type")
	}
	if c := s.Coordination; c != nil {
		if len(c.Peers) == 0 {
			return invalid("coordination.peers", "must list at least one peer")
		}
		if !validPort(c.Port) {
			return invalid("coordination.port", "%d is not a valid port", c.Port)
		}
		for _, addr := range c.Addresses() {
			host, port, err := SplitPeer(addr)
			if err != nil || host == "" || !validPort(port) {
				return invalid("coordination.peers", "%q is not a valid host or host:port", addr)
			}
		}
	}
	if s.Storage != nil {
		if _, _, err := s.Storage.Endpoint(); err != nil {
			return err
		}
	}
	if s.PublicEgress {
		if len(s.MetadataPorts) == 0 {
			return invalid("metadata_ports", "public egress needs at least one port")
		}
		for _, p := range s.MetadataPorts {
			if !validPort(p) {
				return invalid("metadata_ports", "%d is not a valid port", p)
			}
		}
	}
	if s.Job != nil && !s.JobRunner {
		return invalid("job", "a job directive needs the job runner")
	}
	return nil
}

// Endpoint parses the storage URI into its host and the ports the workload
// needs to reach. Explicit ports come first, the URI port is appended when
// not already listed.
func (s *Storage) Endpoint() (string, []int, error) {
	u, err := url.Parse(s.URI)
	if err != nil {
		return "", nil, invalid("storage.uri", "%v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", nil, invalid("storage.uri", "%q must be an absolute URI with a host", s.URI)
	}

	host := u.Hostname()
	ports := slices.Clone(s.Ports)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", nil, invalid("storage.uri", "bad port %q", p)
		}
		if !slices.Contains(ports, n) {
			ports = append(ports, n)
		}
	}
	if len(ports) == 0 {
		return "", nil, invalid("storage.ports", "no port in %q and none listed", s.URI)
	}
	for _, p := range ports {
		if !validPort(p) {
			return "", nil, invalid("storage.ports", "%d is not a valid port", p)
		}
	}
	return host, ports, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// Addresses returns the peers as host:port, using Port for peers that do not
// carry one.
func (c *Coordination) Addresses() []string {
	out := make([]string, len(c.Peers))
	for i, p := range c.Peers {
		if _, _, err := net.SplitHostPort(p); err == nil {
			out[i] = p
			continue
		}
		out[i] = net.JoinHostPort(p, strconv.Itoa(c.Port))
	}
	return out
}

// Ports returns the distinct ports the peers listen on, sorted.
func (c *Coordination) Ports() []int {
	var ports []int
	for _, addr := range c.Addresses() {
		if _, port, err := SplitPeer(addr); err == nil && !slices.Contains(ports, port) {
			ports = append(ports, port)
		}
	}
	slices.Sort(ports)
	return ports
}

// SplitPeer splits a peer address as returned by Addresses into host and port.
func SplitPeer(addr string) (string, int, error) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
