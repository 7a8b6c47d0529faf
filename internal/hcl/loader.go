package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/fsutil"
	"github.com/vk/clustergrid/internal/schema"
)

// Extension is the file extension the loader picks up.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths. Exactly one `cluster` block and
// at most one `platform` block may appear across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.Collect(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", Extension, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		model       *config.Model
		clusterFile string
		platform    *config.Platform
	)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, c := range root.Clusters {
			if model != nil {
				return nil, fmt.Errorf("cluster %q in %s: only one cluster block is allowed, %q already declared in %s",
					c.Name, file, model.Cluster.Name, clusterFile)
			}
			model, err = translateCluster(ctx, c, filepath.Dir(file))
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			clusterFile = file
		}
		for _, p := range root.Platforms {
			if platform != nil {
				return nil, fmt.Errorf("platform %q in %s: only one platform block is allowed", p.Type, file)
			}
			platform = translatePlatform(p)
		}
	}

	if model == nil {
		return nil, fmt.Errorf("no cluster block found in %v", paths)
	}
	model.Platform = platform

	logger.Debug("HCL loading complete.", "cluster", model.Cluster.Name, "platform", platform != nil)
	return model, nil
}

func translatePlatform(p *schema.Platform) *config.Platform {
	body := p.Body
	return config.NewPlatform(p.Type, func(target any) error {
		if diags := gohcl.DecodeBody(body, nil, target); diags.HasErrors() {
			return fmt.Errorf("failed to decode platform %q: %w", p.Type, diags)
		}
		return nil
	})
}

