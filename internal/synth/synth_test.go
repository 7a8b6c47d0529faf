package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/memory"
	"github.com/vk/clustergrid/internal/templater"
)

func testSpec() cluster.Spec {
	s := cluster.DefaultSpec("analytics")
	s.Workers = 2
	return s
}

func TestBuild(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	spec := testSpec()
	spec.Memory = cluster.MemorySource{Machine: &cluster.Machine{RAMGiB: 5}}

	plan, err := Build(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, int64(4096), plan.MemoryMiB)
	assert.Equal(t, 4, plan.Topology.Len())
	assert.Empty(t, plan.Warnings)
	assert.Contains(t, plan.Artifacts, cluster.DefaultsFilePath)
	assert.NotContains(t, plan.Artifacts, cluster.FilesystemFilePath)
	assert.Equal(t, 7, plan.Rules.Len())

	for _, n := range plan.Topology.Nodes() {
		assert.Contains(t, n.ConfigArtifacts[cluster.DefaultsFilePath], "4096m")
	}
}

func TestBuild_Storage(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	without, err := Build(ctx, testSpec())
	require.NoError(t, err)

	spec := testSpec()
	spec.Storage = &cluster.Storage{URI: "hdfs://namenode.q:9000"}
	with, err := Build(ctx, spec)
	require.NoError(t, err)

	assert.Len(t, with.Artifacts, len(without.Artifacts)+1)
	require.Contains(t, with.Artifacts, cluster.FilesystemFilePath)
	assert.Contains(t, with.Artifacts[cluster.FilesystemFilePath].Content, "hdfs://namenode.q:9000")
	assert.Equal(t, without.Rules.Len()+1, with.Rules.Len())
	for _, r := range without.Rules.Rules() {
		assert.True(t, with.Rules.Contains(r))
	}
}

func TestBuild_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("invalid spec", func(t *testing.T) {
		spec := testSpec()
		spec.Workers = -1
		plan, err := Build(ctx, spec)
		assert.Nil(t, plan)
		var invalid *cluster.InvalidSpecError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("insufficient memory", func(t *testing.T) {
		spec := testSpec()
		spec.Memory = cluster.MemorySource{Machine: &cluster.Machine{RAMGiB: 1}}
		plan, err := Build(ctx, spec)
		assert.Nil(t, plan)
		var insufficient *memory.InsufficientResourceError
		assert.True(t, errors.As(err, &insufficient))
	})

	t.Run("unknown template override", func(t *testing.T) {
		spec := testSpec()
		spec.Templates = map[string]string{"bogus": "x"}
		plan, err := Build(ctx, spec)
		assert.Nil(t, plan)
		assert.ErrorContains(t, err, "bogus")
	})
}

func TestBuild_GapWarnings(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	spec := testSpec()
	spec.Templates = map[string]string{"logging": "root={{log_level}}"}

	plan, err := Build(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, []templater.GapWarning{{Path: cluster.LoggingFilePath, Placeholder: "log_level"}}, plan.Warnings)
	assert.Equal(t, "root={{log_level}}", plan.Artifacts[cluster.LoggingFilePath].Content)
}

func TestValues(t *testing.T) {
	spec := testSpec()
	spec.Coordination = &cluster.Coordination{Peers: []string{"zk-0.q", "zk-1.q"}, Port: 2181}
	spec.Storage = &cluster.Storage{URI: "hdfs://nn:9000"}

	v := Values(spec, 1500)
	assert.Equal(t, templater.Values{
		templater.ValueMemoryMiB:         "1500",
		templater.ValueClusterName:       "analytics",
		templater.ValueStorageURI:        "hdfs://nn:9000",
		templater.ValueCoordinationPeers: "zk-0.q:2181,zk-1.q:2181",
	}, v)
}
