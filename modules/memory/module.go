// Package memory registers the in-memory recording platform. Nothing leaves
// the process; the summary is logged on deploy.
package memory

import (
	"context"

	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/inmemoryplatform"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Platform records every call and logs a summary when deployed.
type Platform struct {
	*inmemoryplatform.Recorder
}

// Deploy implements platform.Platform.
func (p *Platform) Deploy(ctx context.Context) error {
	if err := p.Recorder.Deploy(ctx); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Dry run recorded.",
		"platform", "memory",
		"nodes", len(p.Nodes()),
		"permissions", len(p.Permissions()),
		"exposures", len(p.Exposures()),
	)
	return nil
}

// NewPlatform is the factory for the memory platform.
func NewPlatform(_ context.Context, _ any, _ registry.Env) (platform.Platform, error) {
	return &Platform{Recorder: inmemoryplatform.New()}, nil
}

// Register registers the platform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlatform("memory", &registry.RegisteredPlatform{New: NewPlatform})
}
