package inmemoryplatform

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/clustergrid/internal/platform"
)

// Call kinds, in the order a well-behaved emitter makes them.
const (
	KindCreateNode = "create_node"
	KindAllow      = "allow"
	KindExpose     = "expose"
	KindDeploy     = "deploy"
)

// Call is one recorded platform call. Only the field matching Kind is set.
type Call struct {
	Kind       string
	Node       platform.NodeSpec
	Permission platform.Permission
	Exposure   platform.Exposure
}

// Recorder records every call. FailOn makes the call of the given kind fail
// with the given error, after recording it.
type Recorder struct {
	mu       sync.RWMutex
	calls    []Call
	deployed bool

	FailOn map[string]error
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deployed {
		return fmt.Errorf("%s after deploy", c.Kind)
	}
	r.calls = append(r.calls, c)
	if c.Kind == KindDeploy {
		r.deployed = true
	}
	return r.FailOn[c.Kind]
}

// CreateNode implements platform.Platform.
func (r *Recorder) CreateNode(ctx context.Context, n platform.NodeSpec) error {
	return r.record(Call{Kind: KindCreateNode, Node: n})
}

// Allow implements platform.Platform.
func (r *Recorder) Allow(ctx context.Context, p platform.Permission) error {
	return r.record(Call{Kind: KindAllow, Permission: p})
}

// ExposePublic implements platform.Platform.
func (r *Recorder) ExposePublic(ctx context.Context, e platform.Exposure) error {
	return r.record(Call{Kind: KindExpose, Exposure: e})
}

// Deploy implements platform.Platform.
func (r *Recorder) Deploy(ctx context.Context) error {
	return r.record(Call{Kind: KindDeploy})
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.calls)
}

// Kinds returns the kind of every recorded call in order.
func (r *Recorder) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Kind
	}
	return out
}

// Nodes returns the created nodes in order.
func (r *Recorder) Nodes() []platform.NodeSpec {
	var out []platform.NodeSpec
	for _, c := range r.Calls() {
		if c.Kind == KindCreateNode {
			out = append(out, c.Node)
		}
	}
	return out
}

// Permissions returns the allowed permissions in order.
func (r *Recorder) Permissions() []platform.Permission {
	var out []platform.Permission
	for _, c := range r.Calls() {
		if c.Kind == KindAllow {
			out = append(out, c.Permission)
		}
	}
	return out
}

// Exposures returns the public exposures in order.
func (r *Recorder) Exposures() []platform.Exposure {
	var out []platform.Exposure
	for _, c := range r.Calls() {
		if c.Kind == KindExpose {
			out = append(out, c.Exposure)
		}
	}
	return out
}

// Deployed reports whether Deploy was called.
func (r *Recorder) Deployed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deployed
}
