// Package synth runs the synthesis pipeline: memory budget, configuration
// templates, topology and network policy. It either returns a complete plan or
// an error, never a partial result.
package synth

import (
	"context"
	"strconv"
	"strings"

	"github.com/vk/clustergrid/internal/builder"
	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/memory"
	"github.com/vk/clustergrid/internal/policy"
	"github.com/vk/clustergrid/internal/templater"
)

// Plan is the immutable result of a synthesis.
type Plan struct {
	Spec      cluster.Spec
	MemoryMiB int64
	Topology  *cluster.Topology
	Rules     *policy.RuleSet
	Artifacts map[string]cluster.Artifact
	Warnings  []templater.GapWarning
}

// Build synthesizes the plan for spec. Machine descriptors must already have
// their RAM resolved.
func Build(ctx context.Context, spec cluster.Spec) (*Plan, error) {
	logger := ctxlog.FromContext(ctx).With("cluster", spec.Name)

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	mib, err := memory.Budget(spec.Memory)
	if err != nil {
		return nil, err
	}
	logger.Debug("Synth: Memory budget computed.", "memory_mib", mib)

	templates, err := templater.Override(templater.Defaults(), spec.Templates)
	if err != nil {
		return nil, err
	}
	artifacts, gaps := templater.Render(templates, Values(spec, mib))
	for _, g := range gaps {
		logger.Warn("Synth: Template placeholder has no value.", "path", g.Path, "placeholder", g.Placeholder)
	}
	logger.Debug("Synth: Artifacts rendered.", "artifacts", len(artifacts), "gaps", len(gaps))

	topo, err := builder.Build(ctx, builder.Input{Spec: spec, MemoryMiB: mib, Artifacts: artifacts})
	if err != nil {
		return nil, err
	}

	opts, err := policy.OptionsFromSpec(spec)
	if err != nil {
		return nil, err
	}
	rules := policy.Synthesize(topo, opts)
	logger.Debug("Synth: Access rules synthesized.", "rules", rules.Len())

	return &Plan{
		Spec:      spec,
		MemoryMiB: mib,
		Topology:  topo,
		Rules:     rules,
		Artifacts: artifacts,
		Warnings:  gaps,
	}, nil
}

// Values returns the template values for spec and its memory budget.
func Values(spec cluster.Spec, memoryMiB int64) templater.Values {
	v := templater.Values{
		templater.ValueMemoryMiB:   strconv.FormatInt(memoryMiB, 10),
		templater.ValueClusterName: spec.Name,
	}
	if spec.Storage != nil {
		v[templater.ValueStorageURI] = spec.Storage.URI
	}
	if spec.Coordination != nil {
		v[templater.ValueCoordinationPeers] = strings.Join(spec.Coordination.Addresses(), ",")
	}
	return v
}
