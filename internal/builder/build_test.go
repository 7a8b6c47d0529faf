package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/nodeid"
)

func testInput(workers int) Input {
	spec := cluster.DefaultSpec("analytics")
	spec.Workers = workers
	return Input{
		Spec:      spec,
		MemoryMiB: 4096,
		Artifacts: map[string]cluster.Artifact{
			cluster.EnvFilePath: {Path: cluster.EnvFilePath, Content: "export X=1"},
		},
	}
}

func keys(nodes []*cluster.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key.String()
	}
	return out
}

func TestBuild_Basic(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	topo, err := Build(ctx, testInput(3))
	require.NoError(t, err)

	require.Len(t, topo.ByRole(cluster.Controller), 1)
	require.Len(t, topo.ByRole(cluster.Worker), 3)
	require.Len(t, topo.ByRole(cluster.JobRunner), 1)

	ctrl := topo.ByRole(cluster.Controller)[0]
	assert.Equal(t, "analytics-controller.q", ctrl.Address)
	assert.Equal(t, "spark://analytics-controller.q:7077", topo.ControlURL())

	for i, w := range topo.ByRole(cluster.Worker) {
		assert.Equal(t, Hostname("analytics", cluster.Worker, i, 3, "q"), w.Address)
		assert.Equal(t, "spark://"+ctrl.Address+":7077", w.Env[cluster.EnvControlURL])
		assert.Equal(t, "4096m", w.Env[cluster.EnvWorkerMemory])
		assert.Equal(t, topo.ControlURL(), w.Command[len(w.Command)-1])
		assert.Equal(t, map[string]string{cluster.EnvFilePath: "export X=1"}, w.ConfigArtifacts)
		assert.Equal(t, "keldaio/spark", w.Image)
	}

	runner := topo.ByRole(cluster.JobRunner)[0]
	assert.Equal(t, "analytics-jobrunner.q", runner.Address)
	assert.Equal(t, topo.ControlURL(), runner.Env[cluster.EnvControlURL])
	assert.Nil(t, runner.Job)
	assert.Equal(t, []string{"sh", "-c", "/spark/sbin/start-history-server.sh && tail -f /dev/null"}, runner.Command)

	wantOrder := []string{
		"analytics.controller[0]",
		"analytics.worker[0]",
		"analytics.worker[1]",
		"analytics.worker[2]",
		"analytics.jobrunner[0]",
	}
	assert.Equal(t, wantOrder, keys(topo.Order()))
}

func TestBuild_ZeroWorkers(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	in := testInput(0)
	in.Spec.JobRunner = false

	topo, err := Build(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, topo.Len())
	assert.Equal(t, cluster.NewRoleSet(cluster.Controller), topo.Roles())
}

func TestBuild_InvalidSpec(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	testCases := []struct {
		name      string
		mutate    func(*cluster.Spec)
		wantField string
	}{
		{"negative workers", func(s *cluster.Spec) { s.Workers = -1 }, "workers"},
		{"zero controllers", func(s *cluster.Spec) { s.Controllers = 0 }, "controllers"},
		{"multi controller without coordination", func(s *cluster.Spec) { s.Controllers = 3 }, "coordination"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := testInput(2)
			tc.mutate(&in.Spec)

			topo, err := Build(ctx, in)
			require.Nil(t, topo)
			var invalid *cluster.InvalidSpecError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.wantField, invalid.Field)
		})
	}
}

func TestBuild_MultipleControllers(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	in := testInput(1)
	in.Spec.Controllers = 2
	in.Spec.Coordination = &cluster.Coordination{Peers: []string{"zk-0.q", "zk-1.q"}, Port: 2181}

	topo, err := Build(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "spark://analytics-controller-0.q:7077,analytics-controller-1.q:7077", topo.ControlURL())
	for _, c := range topo.ByRole(cluster.Controller) {
		opts := c.Env[cluster.EnvDaemonOptions]
		assert.Contains(t, opts, "-Dspark.deploy.recoveryMode=ZOOKEEPER")
		assert.Contains(t, opts, "-Dspark.deploy.zookeeper.url=zk-0.q:2181,zk-1.q:2181")
		assert.Contains(t, opts, "-Dspark.deploy.zookeeper.dir=/analytics")
	}
	assert.NotContains(t, topo.ByRole(cluster.Worker)[0].Env, cluster.EnvDaemonOptions)
}

func TestBuild_ExtraEnvAndJob(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	in := testInput(1)
	in.Spec.ExtraEnv = map[string]string{"SPARK_LOCAL_DIRS": "/tmp", cluster.EnvControlURL: "spark://elsewhere:1"}
	in.Spec.Job = &cluster.JobDirective{Command: "run-example SparkPi"}

	topo, err := Build(ctx, in)
	require.NoError(t, err)

	for _, n := range topo.Nodes() {
		assert.Equal(t, "/tmp", n.Env["SPARK_LOCAL_DIRS"], n.Key.String())
	}
	w := topo.ByRole(cluster.Worker)[0]
	assert.Equal(t, topo.ControlURL(), w.Env[cluster.EnvControlURL], "computed keys win over extra env")

	runner := topo.ByRole(cluster.JobRunner)[0]
	require.NotNil(t, runner.Job)
	assert.Equal(t, "run-example SparkPi", runner.Job.Command)
	assert.Equal(t, "run-example SparkPi", runner.Env[cluster.EnvJobCommand])
	assert.Contains(t, runner.Command[2], "/spark/bin/$JOB_COMMAND")
}

func TestBuild_Deterministic(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	a, err := Build(ctx, testInput(4))
	require.NoError(t, err)
	b, err := Build(ctx, testInput(4))
	require.NoError(t, err)

	ids := func(nodes []*cluster.Node) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.ID + "@" + n.Address
		}
		return out
	}
	if diff := cmp.Diff(ids(a.Nodes()), ids(b.Nodes())); diff != "" {
		t.Errorf("node identities differ between builds (-first +second):\n%s", diff)
	}
}

func TestBind_OrderingViolation(t *testing.T) {
	b := newBuilder(testInput(1))
	ctrl := &cluster.Node{ID: "not-allocated", Key: nodeid.ForNode("analytics", "controller", 0), Address: "x"}
	w := b.allocate(cluster.Worker, 0, 1)

	err := b.bind(w, []*cluster.Node{ctrl}, nil)

	var violation *OrderingViolationError
	require.True(t, errors.As(err, &violation), "got %v", err)
	assert.Equal(t, "analytics.worker[0]", violation.Node)
	assert.Equal(t, "analytics.controller[0]", violation.Missing)
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "analytics-worker-0.q", Hostname("analytics", cluster.Worker, 0, 1, "q"))
	assert.Equal(t, "analytics-controller.q", Hostname("analytics", cluster.Controller, 0, 1, "q"))
	assert.Equal(t, "my-cluster-controller-1.q", Hostname("My_Cluster", cluster.Controller, 1, 2, "q"))
}
