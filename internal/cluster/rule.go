package cluster

import "fmt"

// Direction classifies an access rule by where its endpoints live.
type Direction int

const (
	// Internal rules connect workload roles.
	Internal Direction = iota
	// Egress rules let workload roles reach an external endpoint.
	Egress
	// Ingress rules let the public network reach workload roles.
	Ingress
)

func (d Direction) String() string {
	switch d {
	case Internal:
		return "internal"
	case Egress:
		return "egress"
	case Ingress:
		return "ingress"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// AccessRule permits traffic from one role set to another on a single port.
// The struct is comparable and its value is its identity.
type AccessRule struct {
	From      RoleSet
	To        RoleSet
	Port      int
	Direction Direction
}

func (r AccessRule) String() string {
	return fmt.Sprintf("%s -> %s:%d/%s", r.From, r.To, r.Port, r.Direction)
}

// Less orders rules by direction, then source, destination and port.
func (r AccessRule) Less(o AccessRule) bool {
	if r.Direction != o.Direction {
		return r.Direction < o.Direction
	}
	if r.From != o.From {
		return r.From.Less(o.From)
	}
	if r.To != o.To {
		return r.To.Less(o.To)
	}
	return r.Port < o.Port
}
