// Package machine resolves the RAM size of a machine descriptor that only
// names an instance type.
package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
)

// ErrUnknownInstance is returned when a resolver does not know the instance
// type.
var ErrUnknownInstance = errors.New("unknown instance type")

// Resolver looks up the RAM of an instance type in GiB.
type Resolver interface {
	RAMGiB(ctx context.Context, provider, instanceType string) (float64, error)
}

// Chain asks each resolver in turn and returns the first answer. Only
// ErrUnknownInstance moves on to the next resolver.
type Chain []Resolver

// RAMGiB implements Resolver.
func (c Chain) RAMGiB(ctx context.Context, provider, instanceType string) (float64, error) {
	for _, r := range c {
		gib, err := r.RAMGiB(ctx, provider, instanceType)
		if err == nil {
			return gib, nil
		}
		if !errors.Is(err, ErrUnknownInstance) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceType)
}

// Resolve fills in the RAM of spec's machine descriptor when it names an
// instance type without a size. Other specs are left alone.
func Resolve(ctx context.Context, r Resolver, spec *cluster.Spec) error {
	m := spec.Memory.Machine
	if m == nil || m.RAMGiB > 0 || m.InstanceType == "" {
		return nil
	}
	gib, err := r.RAMGiB(ctx, m.Provider, m.InstanceType)
	if err != nil {
		return fmt.Errorf("failed to resolve machine %q: %w", m.InstanceType, err)
	}
	resolved := *m
	resolved.RAMGiB = gib
	spec.Memory.Machine = &resolved
	ctxlog.FromContext(ctx).Debug("Resolved machine size.", "instance_type", m.InstanceType, "ram_gib", gib)
	return nil
}
