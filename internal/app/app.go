package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/coordination"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/machine"
	"github.com/vk/clustergrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
	loader   config.Loader

	machines machine.Resolver
	consul   func(config.ConsulSource) (coordination.Resolver, error)
}

// Option customizes an App.
type Option func(*App)

// WithModules replaces the compiled-in platform modules.
func WithModules(modules ...registry.Module) Option {
	return func(a *App) { a.registry = registry.New(modules...) }
}

// WithMachineResolver replaces the instance type resolver.
func WithMachineResolver(r machine.Resolver) Option {
	return func(a *App) { a.machines = r }
}

// WithConsul replaces the factory used for consul-backed coordination.
func WithConsul(f func(config.ConsulSource) (coordination.Resolver, error)) Option {
	return func(a *App) { a.consul = f }
}

// NewApp is the constructor for the main application. Plans go to outW and
// logs to logW.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	loader, err := selectLoader(cfg.Path)
	if err != nil {
		return nil, err
	}

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
		consul: func(src config.ConsulSource) (coordination.Resolver, error) {
			return coordination.NewConsul(src)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = registry.New(coreModules...)
	}
	logger.Debug("Platform modules registered.", "platforms", a.registry.Names())

	if err := a.registry.ValidateRegistry(ctx); err != nil {
		// A mismatch between module code and its tags is a programmer error.
		panic(err)
	}

	if a.machines == nil {
		chain := machine.Chain{machine.DefaultCatalog()}
		if cfg.AWSPricing {
			lookup, err := machine.NewPricingLookup(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to set up AWS pricing lookup: %w", err)
			}
			chain = append(chain, lookup)
		}
		a.machines = chain
	}

	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
