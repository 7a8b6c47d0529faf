package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/schema"
)

// translateCluster converts the HCL cluster schema into the agnostic model.
// Relative paths are resolved against baseDir.
func translateCluster(ctx context.Context, c *schema.Cluster, baseDir string) (*config.Model, error) {
	spec := cluster.DefaultSpec(c.Name)
	m := &config.Model{}

	setIf(&spec.Image, c.Image)
	setIf(&spec.Domain, c.Domain)
	setIf(&spec.Controllers, c.Controllers)
	spec.Workers = c.Workers
	setIf(&spec.JobRunner, c.JobRunner)
	spec.ExposeUI = c.ExposeUI
	setIf(&spec.PublicEgress, c.PublicEgress)
	if c.MetadataPorts != nil {
		spec.MetadataPorts = c.MetadataPorts
	}

	var env map[string]string
	if _, err := decodeExpr(ctx, c.Env, &env); err != nil {
		return nil, fmt.Errorf("cluster %q: env: %w", c.Name, err)
	}
	spec.ExtraEnv = env

	if c.TemplatesDir != nil {
		m.TemplatesDir = resolvePath(baseDir, *c.TemplatesDir)
	}

	if mem := c.Memory; mem != nil {
		spec.Memory.ExplicitMiB = mem.MiB
		if mc := mem.Machine; mc != nil {
			machine := &cluster.Machine{}
			setIf(&machine.Provider, mc.Provider)
			setIf(&machine.InstanceType, mc.InstanceType)
			setIf(&machine.RAMGiB, mc.RAMGiB)
			spec.Memory.Machine = machine
		}
	}

	if co := c.Coordination; co != nil {
		coord := &cluster.Coordination{Peers: co.Peers, Port: cluster.CoordinationPort}
		setIf(&coord.Port, co.Port)
		spec.Coordination = coord
		if cs := co.Consul; cs != nil {
			src := &config.ConsulSource{Service: cs.Service}
			setIf(&src.Address, cs.Address)
			setIf(&src.Datacenter, cs.Datacenter)
			setIf(&src.Tag, cs.Tag)
			m.Consul = src
		}
	}

	if s := c.Storage; s != nil {
		spec.Storage = &cluster.Storage{URI: s.URI, Ports: s.Ports}
	}
	if j := c.Job; j != nil {
		spec.Job = &cluster.JobDirective{Command: j.Command}
	}

	m.Cluster = spec
	return m, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
