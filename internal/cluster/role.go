package cluster

import (
	"fmt"
	"strings"
)

// Role is the function a node (or an external endpoint) plays in the cluster.
type Role int

const (
	// Controller performs cluster-wide scheduling.
	Controller Role = iota
	// Worker executes tasks and exchanges blocks with peers.
	Worker
	// JobRunner is the operator's entry point for submitting work.
	JobRunner
	// CoordinationService provides leader election for multiple controllers.
	CoordinationService
	// StorageCluster is the external persistent storage backend.
	StorageCluster
	// PublicInternet is the pseudo-role standing for external ingress/egress.
	PublicInternet
)

var roleNames = map[Role]string{
	Controller:          "controller",
	Worker:              "worker",
	JobRunner:           "jobrunner",
	CoordinationService: "coordination",
	StorageCluster:      "storage",
	PublicInternet:      "public",
}

// String returns the stable, lowercase name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// External reports whether the role never owns nodes built by this system.
func (r Role) External() bool {
	return r == CoordinationService || r == StorageCluster || r == PublicInternet
}

// ParseRole is the inverse of Role.String.
func ParseRole(name string) (Role, error) {
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// RoleSet is an immutable set of roles. Its zero value is the empty set and it
// is comparable, so it can be part of a map key.
type RoleSet struct {
	bits uint8
}

// NewRoleSet builds a set from the given roles; duplicates collapse.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s.bits |= 1 << uint(r)
	}
	return s
}

// Has reports whether the role is a member of the set.
func (s RoleSet) Has(r Role) bool {
	return s.bits&(1<<uint(r)) != 0
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s.bits == 0
}

// Roles returns the members in canonical (declaration) order.
func (s RoleSet) Roles() []Role {
	var roles []Role
	for r := Controller; r <= PublicInternet; r++ {
		if s.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// Filter keeps only the roles for which keep returns true.
func (s RoleSet) Filter(keep func(Role) bool) RoleSet {
	var out RoleSet
	for _, r := range s.Roles() {
		if keep(r) {
			out.bits |= 1 << uint(r)
		}
	}
	return out
}

// String renders the set as `{controller,worker}`.
func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Less orders role sets canonically by their lowest member first.
func (s RoleSet) Less(other RoleSet) bool {
	a, b := s.Roles(), other.Roles()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
