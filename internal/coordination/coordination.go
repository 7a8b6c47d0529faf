// Package coordination resolves the peers of the coordination service the
// controllers use for leader election. Resolution happens before the build;
// the builder only sees the resulting peer list.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/hashicorp/consul/api"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
)

// ErrNoPeers is returned when a resolver finds no peer.
var ErrNoPeers = errors.New("no coordination peers found")

// Resolver returns the coordination peers as host or host:port strings.
type Resolver interface {
	Peers(ctx context.Context) ([]string, error)
}

// Static is a fixed peer list.
type Static []string

// Peers implements Resolver.
func (s Static) Peers(ctx context.Context) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoPeers
	}
	return slices.Clone(s), nil
}

// Consul resolves peers to the passing instances of a service registered in
// Consul.
type Consul struct {
	client *api.Client
	src    config.ConsulSource
}

// NewConsul creates a resolver for src. An empty address falls back to the
// Consul client defaults, which honor CONSUL_HTTP_ADDR.
func NewConsul(src config.ConsulSource) (*Consul, error) {
	if src.Service == "" {
		return nil, errors.New("consul: service name is required")
	}
	cfg := api.DefaultConfig()
	if src.Address != "" {
		cfg.Address = src.Address
	}
	if src.Datacenter != "" {
		cfg.Datacenter = src.Datacenter
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul: failed to create client: %w", err)
	}
	return &Consul{client: client, src: src}, nil
}

// Peers implements Resolver. Peers are sorted so repeated builds see the same
// list.
func (c *Consul) Peers(ctx context.Context) ([]string, error) {
	logger := ctxlog.FromContext(ctx).With("service", c.src.Service)

	opts := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.client.Health().Service(c.src.Service, c.src.Tag, true, opts)
	if err != nil {
		return nil, fmt.Errorf("consul: failed to query service %q: %w", c.src.Service, err)
	}

	peers := make([]string, 0, len(entries))
	for _, e := range entries {
		host := e.Service.Address
		if host == "" && e.Node != nil {
			host = e.Node.Address
		}
		if host == "" {
			logger.Warn("Consul instance has no address, skipping.", "service_id", e.Service.ID)
			continue
		}
		if e.Service.Port != 0 {
			host = net.JoinHostPort(host, strconv.Itoa(e.Service.Port))
		}
		peers = append(peers, host)
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("consul: service %q: %w", c.src.Service, ErrNoPeers)
	}
	slices.Sort(peers)
	logger.Debug("Resolved coordination peers from Consul.", "peers", peers)
	return peers, nil
}
