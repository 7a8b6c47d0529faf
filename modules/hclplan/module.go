// Package hclplan provides the "hcl" platform. It renders the deployment as an
// HCL document with one block per node, permission and exposure.
package hclplan

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

// Name is the platform type of this module.
const Name = "hcl"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `platform "hcl"` block.
type Input struct {
	// Path is the output file. Empty means the command's standard output.
	Path string `hcl:"path,optional" yaml:"path"`
}

// Platform accumulates blocks and writes the document on Deploy.
type Platform struct {
	mu   sync.Mutex
	path string
	w    io.Writer
	file *hclwrite.File
	keys map[string]string
}

// New creates a platform writing to path, or to w when path is empty.
func New(path string, w io.Writer) *Platform {
	return &Platform{
		path: path,
		w:    w,
		file: hclwrite.NewEmptyFile(),
		keys: make(map[string]string),
	}
}

// CreateNode implements platform.Platform.
func (p *Platform) CreateNode(_ context.Context, n platform.NodeSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys[n.ID] = n.Key
	body := p.file.Body()
	if len(body.Blocks()) > 0 {
		body.AppendNewline()
	}
	b := body.AppendNewBlock("node", []string{n.Key}).Body()
	b.SetAttributeValue("id", cty.StringVal(n.ID))
	b.SetAttributeValue("role", cty.StringVal(n.Role))
	b.SetAttributeValue("hostname", cty.StringVal(n.Hostname))
	b.SetAttributeValue("image", cty.StringVal(n.Image))
	b.SetAttributeValue("command", stringList(n.Command))
	b.SetAttributeValue("env", stringMap(n.Env))
	if n.Job != "" {
		b.SetAttributeValue("job", cty.StringVal(n.Job))
	}
	for _, path := range sortedKeys(n.Files) {
		f := b.AppendNewBlock("file", []string{path}).Body()
		f.SetAttributeValue("content", cty.StringVal(n.Files[path]))
	}
	return nil
}

// Allow implements platform.Platform.
func (p *Platform) Allow(_ context.Context, perm platform.Permission) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.file.Body().AppendNewline()
	b := p.file.Body().AppendNewBlock("allow", nil).Body()
	b.SetAttributeValue("from", p.endpoint(perm.From))
	b.SetAttributeValue("to", p.endpoint(perm.To))
	b.SetAttributeValue("port", cty.NumberIntVal(int64(perm.Port)))
	return nil
}

// ExposePublic implements platform.Platform.
func (p *Platform) ExposePublic(_ context.Context, e platform.Exposure) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.file.Body().AppendNewline()
	b := p.file.Body().AppendNewBlock("expose", nil).Body()
	b.SetAttributeValue("to", p.endpoint(e.To))
	b.SetAttributeValue("port", cty.NumberIntVal(int64(e.Port)))
	return nil
}

// Deploy writes the document.
func (p *Platform) Deploy(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.file.Bytes()
	if p.path == "" {
		if _, err := p.w.Write(out); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(p.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write plan to %s: %w", p.path, err)
	}
	ctxlog.FromContext(ctx).Info("Plan written.", "path", p.path, "bytes", len(out))
	return nil
}

// endpoint renders node endpoints as a list of node keys and external ones as
// a plain string.
func (p *Platform) endpoint(e platform.Endpoint) cty.Value {
	if e.IsExternal() {
		return cty.StringVal(e.External)
	}
	keys := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		if k, ok := p.keys[id]; ok {
			keys[i] = k
		} else {
			keys[i] = id
		}
	}
	return stringList(keys)
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, s := range items {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

func stringMap(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.MapVal(vals)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register registers the platform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlatform(Name, &registry.RegisteredPlatform{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, input any, env registry.Env) (platform.Platform, error) {
			w := env.Stdout
			if w == nil {
				w = os.Stdout
			}
			return New(input.(*Input).Path, w), nil
		},
	})
}
