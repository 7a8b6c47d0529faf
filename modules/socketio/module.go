// Package socketio provides a platform that streams the deployment to a
// socket.io deployer service, one event per call.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

// Event names emitted to the deployer.
const (
	EventCreateNode = "node:create"
	EventAllow      = "rule:allow"
	EventExpose     = "rule:expose"
	EventDeploy     = "deploy"
	EventDeployAck  = "deploy:ack"
)

const defaultTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `platform "socketio"` block.
type Input struct {
	URL                string `hcl:"url" yaml:"url"`
	Namespace          string `hcl:"namespace,optional" yaml:"namespace"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional" yaml:"insecure_skip_verify"`
	Timeout            string `hcl:"timeout,optional" yaml:"timeout"`
}

// timeout parses Timeout, falling back to the default when it is empty.
func (in *Input) timeout() (time.Duration, error) {
	if in.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(in.Timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to parse timeout: %w", err)
	}
	return d, nil
}

// Platform is a connected socket.io client.
type Platform struct {
	io      *socket.Socket
	timeout time.Duration
}

// notify reports the first connection outcome; later ones are dropped once
// Connect has stopped waiting.
func notify(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// Connect dials the deployer and waits for the namespace connection.
func Connect(ctx context.Context, input *Input) (*Platform, error) {
	logger := ctxlog.FromContext(ctx).With("platform", "socketio", "url", input.URL)

	timeout, err := input.timeout()
	if err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q must be absolute", input.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to deployer.", "sid", io.Id())
		notify(connectChan, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		notify(connectChan, err)
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Platform{io: io, timeout: timeout}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}
}

func (p *Platform) emit(ctx context.Context, event string, data any) error {
	if !p.io.Connected() {
		return fmt.Errorf("socket.io client is not connected")
	}
	ctxlog.FromContext(ctx).Debug("Emitting event.", "event", event)
	p.io.Emit(event, data)
	return nil
}

// CreateNode implements platform.Platform.
func (p *Platform) CreateNode(ctx context.Context, n platform.NodeSpec) error {
	return p.emit(ctx, EventCreateNode, n)
}

// Allow implements platform.Platform.
func (p *Platform) Allow(ctx context.Context, perm platform.Permission) error {
	return p.emit(ctx, EventAllow, perm)
}

// ExposePublic implements platform.Platform.
func (p *Platform) ExposePublic(ctx context.Context, e platform.Exposure) error {
	return p.emit(ctx, EventExpose, e)
}

// Deploy emits the deploy event and waits for the deployer's acknowledgement.
func (p *Platform) Deploy(ctx context.Context) error {
	done := make(chan struct{}, 1)
	p.io.Once(types.EventName(EventDeployAck), func(...any) {
		done <- struct{}{}
	})
	if err := p.emit(ctx, EventDeploy, nil); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	select {
	case <-done:
		ctxlog.FromContext(ctx).Info("Deployer acknowledged.", "sid", p.io.Id())
		return nil
	case <-opCtx.Done():
		return fmt.Errorf("timed out after %v waiting for event '%s'", p.timeout, EventDeployAck)
	}
}

// Close disconnects from the deployer.
func (p *Platform) Close() error {
	p.io.Disconnect()
	return nil
}

// Register registers the platform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlatform("socketio", &registry.RegisteredPlatform{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any, _ registry.Env) (platform.Platform, error) {
			return Connect(ctx, input.(*Input))
		},
	})
}
