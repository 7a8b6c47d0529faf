// Package nats provides a platform that publishes the deployment on NATS
// subjects as msgpack messages.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

// Subject suffixes appended to the configured subject.
const (
	SuffixNode   = "node"
	SuffixAllow  = "allow"
	SuffixExpose = "expose"
	SuffixDeploy = "deploy"
)

const (
	defaultSubject = "clustergrid"
	defaultTimeout = 10 * time.Second
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `platform "nats"` block.
type Input struct {
	URL     string `hcl:"url,optional" yaml:"url"`
	Subject string `hcl:"subject,optional" yaml:"subject"`
	Timeout string `hcl:"timeout,optional" yaml:"timeout"`
}

// conn is the part of *nats.Conn the platform uses.
type conn interface {
	Publish(subj string, data []byte) error
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	Flush() error
	Close()
}

// DeployRequest is the body of the deploy request.
type DeployRequest struct {
	Nodes       int `msgpack:"nodes"`
	Permissions int `msgpack:"permissions"`
	Exposures   int `msgpack:"exposures"`
}

// DeployReply is the deployer's answer. A non-empty Error fails the deploy.
type DeployReply struct {
	OK    bool   `msgpack:"ok"`
	Error string `msgpack:"error,omitempty"`
}

// Platform publishes every call on its own subject.
type Platform struct {
	nc      conn
	subject string
	timeout time.Duration
	sent    DeployRequest
}

// New wraps an established connection.
func New(nc conn, subject string, timeout time.Duration) *Platform {
	if subject == "" {
		subject = defaultSubject
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Platform{nc: nc, subject: subject, timeout: timeout}
}

// Connect dials the NATS server described by input.
func Connect(ctx context.Context, input *Input) (*Platform, error) {
	timeout := defaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timeout: %w", err)
		}
		timeout = d
	}
	addr := input.URL
	if addr == "" {
		addr = nats.DefaultURL
	}

	nc, err := nats.Connect(addr, nats.Name("clustergrid"), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", addr, err)
	}
	ctxlog.FromContext(ctx).Info("Connected to NATS.", "url", nc.ConnectedUrl())
	return New(nc, input.Subject, timeout), nil
}

func (p *Platform) subjectFor(suffix string) string {
	return p.subject + "." + suffix
}

func (p *Platform) publish(ctx context.Context, suffix string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", suffix, err)
	}
	subj := p.subjectFor(suffix)
	ctxlog.FromContext(ctx).Debug("Publishing.", "subject", subj, "bytes", len(data))
	if err := p.nc.Publish(subj, data); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", subj, err)
	}
	return nil
}

// CreateNode implements platform.Platform.
func (p *Platform) CreateNode(ctx context.Context, n platform.NodeSpec) error {
	if err := p.publish(ctx, SuffixNode, n); err != nil {
		return err
	}
	p.sent.Nodes++
	return nil
}

// Allow implements platform.Platform.
func (p *Platform) Allow(ctx context.Context, perm platform.Permission) error {
	if err := p.publish(ctx, SuffixAllow, perm); err != nil {
		return err
	}
	p.sent.Permissions++
	return nil
}

// ExposePublic implements platform.Platform.
func (p *Platform) ExposePublic(ctx context.Context, e platform.Exposure) error {
	if err := p.publish(ctx, SuffixExpose, e); err != nil {
		return err
	}
	p.sent.Exposures++
	return nil
}

// Deploy flushes the published messages and asks the deployer to confirm the
// counts it received.
func (p *Platform) Deploy(ctx context.Context) error {
	if err := p.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	data, err := msgpack.Marshal(p.sent)
	if err != nil {
		return fmt.Errorf("failed to encode deploy request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	subj := p.subjectFor(SuffixDeploy)
	msg, err := p.nc.RequestWithContext(reqCtx, subj, data)
	if err != nil {
		return fmt.Errorf("deploy request on %s failed: %w", subj, err)
	}

	var reply DeployReply
	if err := msgpack.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("failed to decode deploy reply: %w", err)
	}
	if !reply.OK {
		if reply.Error == "" {
			reply.Error = "rejected"
		}
		return fmt.Errorf("deployer refused: %s", reply.Error)
	}
	ctxlog.FromContext(ctx).Info("Deployer confirmed.", "subject", subj)
	return nil
}

// Close closes the connection.
func (p *Platform) Close() error {
	p.nc.Close()
	return nil
}

// Register registers the platform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlatform("nats", &registry.RegisteredPlatform{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any, _ registry.Env) (platform.Platform, error) {
			return Connect(ctx, input.(*Input))
		},
	})
}
