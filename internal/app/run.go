package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/emitter"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
	"github.com/vk/clustergrid/internal/synth"
	"github.com/vk/clustergrid/modules/hclplan"
)

// Synthesize loads the description and runs the synthesis pipeline.
func (a *App) Synthesize(ctx context.Context) (*synth.Plan, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	model, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return a.synthesize(ctx, model)
}

func (a *App) synthesize(ctx context.Context, model *config.Model) (*synth.Plan, error) {
	a.logger.Info("Synthesizing cluster.", describe(model.Cluster)...)
	plan, err := synth.Build(ctx, model.Cluster)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}
	a.logger.Info("Cluster synthesized.",
		"nodes", plan.Topology.Len(),
		"rules", plan.Rules.Len(),
		"memory_mib", plan.MemoryMiB,
		"warnings", len(plan.Warnings),
	)
	return plan, nil
}

// Plan synthesizes the cluster and writes it as an HCL document to the
// configured output, ignoring the description's platform.
func (a *App) Plan(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	model, err := a.load(ctx)
	if err != nil {
		return err
	}
	plan, err := a.synthesize(ctx, model)
	if err != nil {
		return err
	}

	out := a.config.Out
	cfg := config.NewPlatform(hclplan.Name, func(target any) error {
		target.(*hclplan.Input).Path = out
		return nil
	})
	return a.emit(ctx, plan, cfg)
}

// Deploy synthesizes the cluster and emits it to the selected platform.
func (a *App) Deploy(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	model, err := a.load(ctx)
	if err != nil {
		return err
	}
	plan, err := a.synthesize(ctx, model)
	if err != nil {
		return err
	}
	return a.emit(ctx, plan, a.selectPlatform(model))
}

// selectPlatform applies the override. An override naming the description's
// own platform keeps its settings.
func (a *App) selectPlatform(model *config.Model) *config.Platform {
	p := model.Platform
	if o := a.config.Platform; o != "" && (p == nil || p.Type != o) {
		p = config.NewPlatform(o, nil)
	}
	if p == nil {
		p = config.NewPlatform(defaultPlatform, nil)
	}
	return p
}

func (a *App) emit(ctx context.Context, plan *synth.Plan, cfg *config.Platform) (err error) {
	p, err := a.registry.Platform(ctx, cfg, registry.Env{Stdout: a.outW})
	if err != nil {
		return err
	}
	if c, ok := p.(platform.Closer); ok {
		defer func() {
			err = errors.Join(err, c.Close())
		}()
	}

	a.logger.Debug("Emitting deployment.", "platform", cfg.Type)
	if err := emitter.Emit(ctx, plan, p); err != nil {
		return fmt.Errorf("emission failed: %w", err)
	}
	a.logger.Info("Deployment emitted.", "platform", cfg.Type)
	return nil
}
