package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/registry"
)

func TestModule(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	r := registry.New(&Module{})
	require.NoError(t, r.ValidateRegistry(ctx))

	p, err := r.Platform(ctx, config.NewPlatform("memory", nil), registry.Env{})
	require.NoError(t, err)

	require.NoError(t, p.CreateNode(ctx, platform.NodeSpec{ID: "a"}))
	require.NoError(t, p.Deploy(ctx))

	mp := p.(*Platform)
	assert.True(t, mp.Deployed())
	assert.Len(t, mp.Nodes(), 1)
}
