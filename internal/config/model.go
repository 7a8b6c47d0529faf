package config

import (
	"errors"

	"github.com/vk/clustergrid/internal/cluster"
)

// Model is the unified, format-agnostic representation of a cluster
// description.
type Model struct {
	// Cluster has the loader defaults applied but is not validated yet.
	Cluster cluster.Spec
	// Consul, when set, replaces the static coordination peers with the
	// healthy instances of a service.
	Consul *ConsulSource
	// TemplatesDir holds template overrides, resolved against the directory
	// of the file that declared it.
	TemplatesDir string
	// Platform is nil when the description names none.
	Platform *Platform
}

// ConsulSource locates the coordination service through a Consul catalog.
type ConsulSource struct {
	Address    string
	Datacenter string
	Service    string
	Tag        string
}

// Platform is the deployment platform selected by a description. The
// format-specific body is decoded lazily into the platform module's input.
type Platform struct {
	Type   string
	decode func(target any) error
}

// ErrNoPlatformBody is returned by Decode when the platform has no body.
var ErrNoPlatformBody = errors.New("platform block has no body")

// NewPlatform creates a platform whose body is decoded by decode. A nil
// decode means the block had no body.
func NewPlatform(typ string, decode func(target any) error) *Platform {
	return &Platform{Type: typ, decode: decode}
}

// Decode fills target, a pointer to a module input struct, from the body.
func (p *Platform) Decode(target any) error {
	if p.decode == nil {
		return ErrNoPlatformBody
	}
	return p.decode(target)
}
