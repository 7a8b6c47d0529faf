package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/fsutil"
)

// Extensions are the file extensions the loader picks up.
var Extensions = []string{".yaml", ".yml"}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// IsYAML reports whether path has a YAML extension.
func IsYAML(path string) bool {
	return slices.Contains(Extensions, filepath.Ext(path))
}

// Load reads every YAML file under paths. A file may hold several documents.
// Exactly one cluster and at most one platform may be declared overall.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.Collect(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in %v", paths)
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	var (
		model    *config.Model
		platform *config.Platform
	)
	for _, file := range files {
		docs, err := readDocuments(file)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if doc.Cluster != nil {
				if model != nil {
					return nil, fmt.Errorf("cluster %q in %s: only one cluster is allowed, %q already declared",
						doc.Cluster.Name, file, model.Cluster.Name)
				}
				model = translateCluster(doc.Cluster, filepath.Dir(file))
			}
			if doc.Platform != nil {
				if platform != nil {
					return nil, fmt.Errorf("platform %q in %s: only one platform is allowed", doc.Platform.Type, file)
				}
				platform = translatePlatform(doc.Platform)
			}
		}
	}

	if model == nil {
		return nil, fmt.Errorf("no cluster found in %v", paths)
	}
	model.Platform = platform
	logger.Debug("YAML loading complete.", "cluster", model.Cluster.Name, "platform", platform != nil)
	return model, nil
}

func readDocuments(file string) ([]*document, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var docs []*document
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
		}
		docs = append(docs, &doc)
	}
}

func translateCluster(c *clusterDoc, baseDir string) *config.Model {
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
	spec.ExtraEnv = c.Env

	if c.TemplatesDir != nil {
		dir := *c.TemplatesDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		m.TemplatesDir = dir
	}

	if mem := c.Memory; mem != nil {
		spec.Memory.ExplicitMiB = mem.MiB
		if mc := mem.Machine; mc != nil {
			spec.Memory.Machine = &cluster.Machine{
				Provider:     mc.Provider,
				InstanceType: mc.InstanceType,
				RAMGiB:       mc.RAMGiB,
			}
		}
	}
	if co := c.Coordination; co != nil {
		coord := &cluster.Coordination{Peers: co.Peers, Port: cluster.CoordinationPort}
		setIf(&coord.Port, co.Port)
		spec.Coordination = coord
		if cs := co.Consul; cs != nil {
			m.Consul = &config.ConsulSource{
				Address:    cs.Address,
				Datacenter: cs.Datacenter,
				Service:    cs.Service,
				Tag:        cs.Tag,
			}
		}
	}
	if s := c.Storage; s != nil {
		spec.Storage = &cluster.Storage{URI: s.URI, Ports: s.Ports}
	}
	if j := c.Job; j != nil {
		spec.Job = &cluster.JobDirective{Command: j.Command}
	}

	m.Cluster = spec
	return m
}

func translatePlatform(p *platformDoc) *config.Platform {
	if p.Config.Kind == 0 {
		return config.NewPlatform(p.Type, nil)
	}
	node := p.Config
	return config.NewPlatform(p.Type, func(target any) error {
		if err := node.Decode(target); err != nil {
			return fmt.Errorf("failed to decode platform %q: %w", p.Type, err)
		}
		return nil
	})
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
