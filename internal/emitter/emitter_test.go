package emitter

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/inmemoryplatform"
	"github.com/vk/clustergrid/internal/platform"
	"github.com/vk/clustergrid/internal/synth"
)

func testPlan(t *testing.T, mutate func(*cluster.Spec)) *synth.Plan {
	t.Helper()
	spec := cluster.DefaultSpec("analytics")
	spec.Workers = 2
	if mutate != nil {
		mutate(&spec)
	}
	plan, err := synth.Build(ctxlog.Discard(context.Background()), spec)
	require.NoError(t, err)
	return plan
}

func TestEmit_CallOrder(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	plan := testPlan(t, func(s *cluster.Spec) { s.ExposeUI = true })
	rec := inmemoryplatform.New()

	require.NoError(t, Emit(ctx, plan, rec))

	kinds := rec.Kinds()
	require.NotEmpty(t, kinds)
	last := map[string]int{}
	first := map[string]int{}
	for i, k := range kinds {
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		last[k] = i
	}
	assert.Less(t, last[inmemoryplatform.KindCreateNode], first[inmemoryplatform.KindAllow])
	assert.Less(t, last[inmemoryplatform.KindAllow], first[inmemoryplatform.KindExpose])
	assert.Equal(t, len(kinds)-1, first[inmemoryplatform.KindDeploy])

	assert.Len(t, rec.Nodes(), plan.Topology.Len())
	assert.Len(t, rec.Exposures(), 4)
	assert.True(t, rec.Deployed())

	var order []string
	for _, n := range plan.Topology.Order() {
		order = append(order, n.ID)
	}
	var created []string
	for _, n := range rec.Nodes() {
		created = append(created, n.ID)
	}
	assert.Equal(t, order, created)
}

func TestEmit_ResolvesEndpoints(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	testCases := []struct {
		name  string
		peers []string
		want  map[string][]int
	}{
		{
			name:  "default peer port",
			peers: []string{"zk-0.q", "zk-1.q"},
			want: map[string][]int{
				platform.CoordinationEndpoint("zk-0.q"): {2181},
				platform.CoordinationEndpoint("zk-1.q"): {2181},
			},
		},
		{
			name:  "peers carrying their own port",
			peers: []string{"zk-0.q:2182", "zk-1.q:2182"},
			want: map[string][]int{
				platform.CoordinationEndpoint("zk-0.q"): {2182},
				platform.CoordinationEndpoint("zk-1.q"): {2182},
			},
		},
		{
			name:  "one host on two ports",
			peers: []string{"zk-0.q:2182", "zk-0.q:2183", "zk-0.q:2182"},
			want: map[string][]int{
				platform.CoordinationEndpoint("zk-0.q"): {2182, 2183},
			},
		},
		{
			name:  "mixed default and explicit ports",
			peers: []string{"zk-0.q", "zk-1.q:2888"},
			want: map[string][]int{
				platform.CoordinationEndpoint("zk-0.q"): {2181},
				platform.CoordinationEndpoint("zk-1.q"): {2888},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan := testPlan(t, func(s *cluster.Spec) {
				s.Controllers = 2
				s.Coordination = &cluster.Coordination{Peers: tc.peers, Port: 2181}
				s.Storage = &cluster.Storage{URI: "hdfs://namenode.q:9000"}
			})
			rec := inmemoryplatform.New()

			require.NoError(t, Emit(ctx, plan, rec))

			externals := map[string][]int{}
			for _, p := range rec.Permissions() {
				if p.To.IsExternal() {
					externals[p.To.External] = append(externals[p.To.External], p.Port)
					assert.NotEmpty(t, p.From.Nodes)
				} else {
					assert.NotEmpty(t, p.To.Nodes)
				}
			}
			want := map[string][]int{
				platform.ExternalPublic:                {80},
				platform.StorageEndpoint("namenode.q"): {9000},
			}
			maps.Copy(want, tc.want)
			assert.Equal(t, want, externals)

			// Worker -> controller reaches both controllers.
			for _, p := range rec.Permissions() {
				if p.Port == cluster.ControlPort && len(p.From.Nodes) == 2 {
					assert.Len(t, p.To.Nodes, 2)
				}
			}
		})
	}
}

func TestEmit_StopsAtFirstError(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	plan := testPlan(t, nil)
	boom := errors.New("firewall unavailable")
	rec := inmemoryplatform.New()
	rec.FailOn = map[string]error{inmemoryplatform.KindAllow: boom}

	err := Emit(ctx, plan, rec)

	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.Permissions(), 1)
	assert.Empty(t, rec.Exposures())
	assert.False(t, rec.Deployed())
}

func TestNodeSpec(t *testing.T) {
	plan := testPlan(t, func(s *cluster.Spec) { s.Job = &cluster.JobDirective{Command: "run-example SparkPi"} })
	runner := plan.Topology.ByRole(cluster.JobRunner)[0]

	spec := NodeSpec(runner)
	assert.Equal(t, runner.ID, spec.ID)
	assert.Equal(t, "analytics.jobrunner[0]", spec.Key)
	assert.Equal(t, "jobrunner", spec.Role)
	assert.Equal(t, runner.Address, spec.Hostname)
	assert.Equal(t, "run-example SparkPi", spec.Job)
	assert.Equal(t, runner.ConfigArtifacts, spec.Files)

	spec.Env["MUTATED"] = "yes"
	assert.NotContains(t, runner.Env, "MUTATED")
}
