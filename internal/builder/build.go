package builder

import (
	"context"
	"fmt"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/ctxlog"
	"github.com/vk/clustergrid/internal/dag"
)

// Build constructs the topology for in.Spec. It returns an
// *cluster.InvalidSpecError before creating any node if the spec is invalid.
func Build(ctx context.Context, in Input) (*cluster.Topology, error) {
	logger := ctxlog.FromContext(ctx)

	if err := in.Spec.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Build: Starting topology construction.", "cluster", in.Spec.Name)
	b := newBuilder(in)

	// First pass: controllers.
	controllers := make([]*cluster.Node, 0, in.Spec.Controllers)
	for i := 0; i < in.Spec.Controllers; i++ {
		n := b.allocate(cluster.Controller, i, in.Spec.Controllers)
		controllers = append(controllers, n)
	}
	b.controlURL = controlURL(controllers)
	for _, n := range controllers {
		if err := b.bind(n, nil, b.controllerEnv()); err != nil {
			return nil, err
		}
		n.Command = []string{"/spark/bin/spark-class", "org.apache.spark.deploy.master.Master"}
	}
	logger.Debug("Build: Controllers bound.", "count", len(controllers), "control_url", b.controlURL)

	// Second pass: workers reference every controller.
	for i := 0; i < in.Spec.Workers; i++ {
		n := b.allocate(cluster.Worker, i, in.Spec.Workers)
		if err := b.bind(n, controllers, b.workerEnv()); err != nil {
			return nil, err
		}
		n.Command = []string{"/spark/bin/spark-class", "org.apache.spark.deploy.worker.Worker", b.controlURL}
	}
	logger.Debug("Build: Workers bound.", "count", in.Spec.Workers)

	// Third pass: the job runner comes after all workers.
	if in.Spec.JobRunner {
		n := b.allocate(cluster.JobRunner, 0, 1)
		if err := b.bind(n, controllers, b.jobRunnerEnv()); err != nil {
			return nil, err
		}
		n.Command = jobRunnerCommand(in.Spec.Job)
		if in.Spec.Job != nil {
			job := *in.Spec.Job
			n.Job = &job
		}
		logger.Debug("Build: Job runner bound.", "job", n.Job != nil)
	}

	if err := b.graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating node references: %w", err)
	}
	order, err := b.graph.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("error ordering nodes: %w", err)
	}

	topo, err := cluster.NewTopology(in.Spec.Name, b.controlURL, b.nodes, order)
	if err != nil {
		return nil, fmt.Errorf("error assembling topology: %w", err)
	}
	logger.Info("Build: Topology construction successful.", "cluster", in.Spec.Name, "nodes", topo.Len())
	return topo, nil
}

type builder struct {
	spec       cluster.Spec
	memoryMiB  int64
	artifacts  map[string]cluster.Artifact
	graph      *dag.Graph
	nodes      []*cluster.Node
	controlURL string
}

func newBuilder(in Input) *builder {
	return &builder{
		spec:      in.Spec,
		memoryMiB: in.MemoryMiB,
		artifacts: in.Artifacts,
		graph:     dag.New(),
	}
}
