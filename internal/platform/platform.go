// Package platform defines the boundary to the deployment platform that turns
// nodes and access rules into machines, containers and firewall entries.
package platform

import (
	"context"
	"strings"
)

// External endpoint names.
const (
	ExternalPublic             = "public"
	externalStoragePrefix      = "storage:"
	externalCoordinationPrefix = "coordination:"
)

// StorageEndpoint names the storage cluster reached at host.
func StorageEndpoint(host string) string { return externalStoragePrefix + host }

// CoordinationEndpoint names one coordination service peer.
func CoordinationEndpoint(peer string) string { return externalCoordinationPrefix + peer }

// NodeSpec is everything the platform needs to create one node.
type NodeSpec struct {
	ID       string            `msgpack:"id" json:"id"`
	Key      string            `msgpack:"key" json:"key"`
	Role     string            `msgpack:"role" json:"role"`
	Hostname string            `msgpack:"hostname" json:"hostname"`
	Image    string            `msgpack:"image" json:"image"`
	Command  []string          `msgpack:"command" json:"command"`
	Env      map[string]string `msgpack:"env" json:"env"`
	Files    map[string]string `msgpack:"files" json:"files"`
	Job      string            `msgpack:"job,omitempty" json:"job,omitempty"`
}

// Endpoint is one side of a permission. Exactly one of Nodes and External is
// set.
type Endpoint struct {
	Nodes    []string `msgpack:"nodes,omitempty" json:"nodes,omitempty"`
	External string   `msgpack:"external,omitempty" json:"external,omitempty"`
}

// IsExternal reports whether the endpoint lies outside the cluster.
func (e Endpoint) IsExternal() bool { return e.External != "" }

func (e Endpoint) String() string {
	if e.IsExternal() {
		return e.External
	}
	return "[" + strings.Join(e.Nodes, ",") + "]"
}

// Permission allows traffic from one endpoint to another on a port.
type Permission struct {
	From Endpoint `msgpack:"from" json:"from"`
	To   Endpoint `msgpack:"to" json:"to"`
	Port int      `msgpack:"port" json:"port"`
}

// Exposure opens a port of some nodes to the public network.
type Exposure struct {
	To   Endpoint `msgpack:"to" json:"to"`
	Port int      `msgpack:"port" json:"port"`
}

// Platform receives the synthesized deployment. Calls arrive in a fixed
// order: every CreateNode, then every Allow, then every ExposePublic and
// finally Deploy.
type Platform interface {
	CreateNode(ctx context.Context, n NodeSpec) error
	Allow(ctx context.Context, p Permission) error
	ExposePublic(ctx context.Context, e Exposure) error
	Deploy(ctx context.Context) error
}

// Closer is implemented by platforms holding connections.
type Closer interface {
	Close() error
}
