package builder

import (
	"fmt"

	"github.com/vk/clustergrid/internal/cluster"
)

// Input is everything the builder needs. The spec must be validated, the
// memory budget computed and the artifacts rendered before the build.
type Input struct {
	Spec      cluster.Spec
	MemoryMiB int64
	// Artifacts are shared by every workload node, keyed by target path.
	Artifacts map[string]cluster.Artifact
}

// OrderingViolationError means a node was bound before a node it references
// was allocated. Build never produces it; it guards the allocation order.
type OrderingViolationError struct {
	Node    string
	Missing string
}

func (e *OrderingViolationError) Error() string {
	return fmt.Sprintf("node %s references %s, which is not allocated yet", e.Node, e.Missing)
}
