package app

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/coordination"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/fsutil"
	"github.com/vk/clustergrid/internal/hcl"
	"github.com/vk/clustergrid/internal/machine"
	"github.com/vk/clustergrid/internal/templater"
	"github.com/vk/clustergrid/internal/yamlcfg"
)

// selectLoader picks the loader by file extension. A directory is read as
// YAML only when it holds YAML files and no HCL files.
func selectLoader(path string) (config.Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if !info.IsDir() {
		switch {
		case yamlcfg.IsYAML(path):
			return yamlcfg.NewLoader(), nil
		case filepath.Ext(path) == hcl.Extension:
			return hcl.NewLoader(), nil
		default:
			return nil, fmt.Errorf("unsupported description file %s", path)
		}
	}

	hclFiles, err := fsutil.FindFiles(path, hcl.Extension)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if len(hclFiles) > 0 {
		return hcl.NewLoader(), nil
	}
	yamlFiles, err := fsutil.FindFiles(path, yamlcfg.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}
	if len(yamlFiles) > 0 {
		return yamlcfg.NewLoader(), nil
	}
	return hcl.NewLoader(), nil
}

// load reads the description and resolves everything the synthesis core
// expects to be known up front: coordination peers, machine sizes and
// template overrides.
func (a *App) load(ctx context.Context) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "cluster", model.Cluster.Name)

	if err := a.resolvePeers(ctx, model); err != nil {
		return nil, err
	}
	if err := machine.Resolve(ctx, a.machines, &model.Cluster); err != nil {
		return nil, err
	}
	if err := loadTemplates(ctx, model); err != nil {
		return nil, err
	}
	return model, nil
}

func (a *App) resolvePeers(ctx context.Context, model *config.Model) error {
	spec := &model.Cluster
	if spec.Coordination == nil {
		return nil
	}

	var r coordination.Resolver = coordination.Static(spec.Coordination.Peers)
	if model.Consul != nil {
		c, err := a.consul(*model.Consul)
		if err != nil {
			return err
		}
		r = c
	}

	peers, err := r.Peers(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve coordination peers: %w", err)
	}
	coord := *spec.Coordination
	coord.Peers = peers
	spec.Coordination = &coord
	ctxlog.FromContext(ctx).Debug("Coordination peers resolved.", "peers", peers)
	return nil
}

// loadTemplates reads the templates directory. Inline overrides from the
// description win over files.
func loadTemplates(ctx context.Context, model *config.Model) error {
	if model.TemplatesDir == "" {
		return nil
	}
	texts, err := templater.LoadDir(model.TemplatesDir)
	if err != nil {
		return err
	}
	maps.Copy(texts, model.Cluster.Templates)
	model.Cluster.Templates = texts
	ctxlog.FromContext(ctx).Debug("Template overrides loaded.", "dir", model.TemplatesDir, "count", len(texts))
	return nil
}

// describe returns a one-line summary used in logs.
func describe(spec cluster.Spec) []any {
	return []any{"cluster", spec.Name, "controllers", spec.Controllers, "workers", spec.Workers, "job_runner", spec.JobRunner}
}
