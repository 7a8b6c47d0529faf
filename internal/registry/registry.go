package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
)

// Module is the interface that all platform modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Env carries process-level resources a platform may write to.
type Env struct {
	Stdout io.Writer
}

// RegisteredPlatform holds the compiled Go parts of a platform module.
type RegisteredPlatform struct {
	// NewInput returns a pointer to the struct the platform block decodes
	// into. It may be nil for platforms without settings.
	NewInput func() any
	// New builds the platform from the decoded input.
	New func(ctx context.Context, input any, env Env) (platform.Platform, error)
}

// Registry holds all the registered platforms for a single application
// instance.
type Registry struct {
	platforms map[string]*RegisteredPlatform
}

// New creates a registry and registers the given modules.
func New(modules ...Module) *Registry {
	r := &Registry{platforms: make(map[string]*RegisteredPlatform)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterPlatform registers a platform module under name.
func (r *Registry) RegisterPlatform(name string, p *RegisteredPlatform) {
	if _, exists := r.platforms[name]; exists {
		panic(fmt.Sprintf("platform with name '%s' already registered", name))
	}
	slog.Debug("Registering platform.", "name", name)
	r.platforms[name] = p
}

// Names returns the registered platform names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.platforms))
}

// Platform builds the platform selected by cfg. An input left without a body
// keeps the zero values its NewInput returns.
func (r *Registry) Platform(ctx context.Context, cfg *config.Platform, env Env) (platform.Platform, error) {
	reg, ok := r.platforms[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q, registered: %v", cfg.Type, r.Names())
	}

	var input any
	if reg.NewInput != nil {
		input = reg.NewInput()
		if err := cfg.Decode(input); err != nil && !errors.Is(err, config.ErrNoPlatformBody) {
			return nil, err
		}
	}

	ctxlog.FromContext(ctx).Debug("Building platform.", "platform", cfg.Type)
	p, err := reg.New(ctx, input, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform %q: %w", cfg.Type, err)
	}
	return p, nil
}
