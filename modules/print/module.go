// Package print provides a platform that writes a human-readable line per
// call. It is meant for eyeballing a deployment before sending it anywhere.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `platform "print"` block.
type Input struct {
	// ShowFiles prints the artifact contents as well.
	ShowFiles bool `hcl:"show_files,optional" yaml:"show_files"`
}

// Platform prints every call to w.
type Platform struct {
	w         io.Writer
	showFiles bool
	keys      map[string]string
}

// New creates a print platform writing to w.
func New(w io.Writer, showFiles bool) *Platform {
	return &Platform{w: w, showFiles: showFiles, keys: map[string]string{}}
}

// CreateNode implements platform.Platform.
func (p *Platform) CreateNode(_ context.Context, n platform.NodeSpec) error {
	p.keys[n.ID] = n.Key
	fmt.Fprintf(p.w, "node %s\n", n.Key)
	fmt.Fprintf(p.w, "      hostname: %s\n", n.Hostname)
	fmt.Fprintf(p.w, "      image:    %s\n", n.Image)
	fmt.Fprintf(p.w, "      command:  %s\n", strings.Join(n.Command, " "))

	// Sort keys for consistent output
	for _, k := range sortedKeys(n.Env) {
		fmt.Fprintf(p.w, "      env %s=%s\n", k, n.Env[k])
	}
	for _, path := range sortedKeys(n.Files) {
		fmt.Fprintf(p.w, "      file %s\n", path)
		if p.showFiles {
			for _, line := range strings.Split(strings.TrimRight(n.Files[path], "\n"), "\n") {
				fmt.Fprintf(p.w, "        | %s\n", line)
			}
		}
	}
	return nil
}

// Allow implements platform.Platform.
func (p *Platform) Allow(_ context.Context, perm platform.Permission) error {
	_, err := fmt.Fprintf(p.w, "allow %s -> %s :%d\n", p.endpoint(perm.From), p.endpoint(perm.To), perm.Port)
	return err
}

// ExposePublic implements platform.Platform.
func (p *Platform) ExposePublic(_ context.Context, e platform.Exposure) error {
	_, err := fmt.Fprintf(p.w, "expose %s :%d\n", p.endpoint(e.To), e.Port)
	return err
}

// Deploy implements platform.Platform.
func (p *Platform) Deploy(_ context.Context) error {
	_, err := fmt.Fprintln(p.w, "deploy")
	return err
}

func (p *Platform) endpoint(e platform.Endpoint) string {
	if e.IsExternal() {
		return e.External
	}
	names := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		if k, ok := p.keys[id]; ok {
			names[i] = k
		} else {
			names[i] = id
		}
	}
	return "[" + strings.Join(names, ", ") + "]"
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
	r.RegisterPlatform("print", &registry.RegisteredPlatform{
		NewInput: func() any { return new(Input) },
		New: func(_ context.Context, input any, env registry.Env) (platform.Platform, error) {
			w := env.Stdout
			if w == nil {
				w = os.Stdout
			}
			return New(w, input.(*Input).ShowFiles), nil
		},
	})
}
