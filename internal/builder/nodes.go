package builder

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/nodeid"
)

// nodeNamespace seeds the name-based node IDs.
var nodeNamespace = uuid.MustParse("5d1a6a43-3c59-4c1e-9b1e-6f0b8a9f2e10")

// NodeID derives the opaque node ID from its key.
func NodeID(key nodeid.Address) string {
	return uuid.NewSHA1(nodeNamespace, []byte(key.String())).String()
}

// Hostname returns `<cluster>-<role>[-<i>].<domain>`, lowercased with
// underscores turned into dashes. The index is left out for roles that have a
// single instance, except for workers.
func Hostname(clusterName string, role cluster.Role, index, count int, domain string) string {
	var sb strings.Builder
	sb.WriteString(clusterName)
	sb.WriteByte('-')
	sb.WriteString(role.String())
	if count > 1 || role == cluster.Worker {
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(index))
	}
	sb.WriteByte('.')
	sb.WriteString(domain)
	return strings.ToLower(strings.ReplaceAll(sb.String(), "_", "-"))
}

// allocate creates the node with its identity and address only.
func (b *builder) allocate(role cluster.Role, index, count int) *cluster.Node {
	key := nodeid.ForNode(b.spec.Name, role.String(), index)
	n := &cluster.Node{
		ID:      NodeID(key),
		Key:     key,
		Role:    role,
		Address: Hostname(b.spec.Name, role, index, count, b.spec.Domain),
		Image:   b.spec.Image,
	}
	b.graph.AddNode(n.ID)
	b.nodes = append(b.nodes, n)
	return n
}

// bind fills in the node's environment and artifacts. Every node in refs must
// already be allocated; each reference becomes an edge in the graph.
func (b *builder) bind(n *cluster.Node, refs []*cluster.Node, env map[string]string) error {
	for _, ref := range refs {
		if !b.graph.Has(ref.ID) || ref.Address == "" {
			return &OrderingViolationError{Node: n.Key.String(), Missing: ref.Key.String()}
		}
		if err := b.graph.AddEdge(ref.ID, n.ID); err != nil {
			return fmt.Errorf("failed to link %s to %s: %w", n.Key.String(), ref.Key.String(), err)
		}
	}

	merged := make(map[string]string, len(b.spec.ExtraEnv)+len(env))
	maps.Copy(merged, b.spec.ExtraEnv)
	maps.Copy(merged, env)
	n.Env = merged

	n.ConfigArtifacts = make(map[string]string, len(b.artifacts))
	for path, a := range b.artifacts {
		n.ConfigArtifacts[path] = a.Content
	}
	return nil
}

func (b *builder) controllerEnv() map[string]string {
	env := map[string]string{}
	if c := b.spec.Coordination; c != nil {
		env[cluster.EnvDaemonOptions] = strings.Join([]string{
			"-Dspark.deploy.recoveryMode=ZOOKEEPER",
			"-Dspark.deploy.zookeeper.url=" + strings.Join(c.Addresses(), ","),
			"-Dspark.deploy.zookeeper.dir=/" + b.spec.Name,
		}, " ")
	}
	return env
}

func (b *builder) workerEnv() map[string]string {
	return map[string]string{
		cluster.EnvControlURL:   b.controlURL,
		cluster.EnvWorkerMemory: strconv.FormatInt(b.memoryMiB, 10) + "m",
	}
}

func (b *builder) jobRunnerEnv() map[string]string {
	env := map[string]string{cluster.EnvControlURL: b.controlURL}
	if b.spec.Job != nil {
		env[cluster.EnvJobCommand] = b.spec.Job.Command
	}
	return env
}

// controlURL lists every controller, as in spark://h1:7077,h2:7077.
func controlURL(controllers []*cluster.Node) string {
	hosts := make([]string, len(controllers))
	for i, c := range controllers {
		hosts[i] = c.Address + ":" + strconv.Itoa(cluster.ControlPort)
	}
	return "spark://" + strings.Join(hosts, ",")
}

// jobRunnerCommand starts the history server and keeps the node alive. With a
// job directive the job is submitted in between.
func jobRunnerCommand(job *cluster.JobDirective) []string {
	script := "/spark/sbin/start-history-server.sh"
	if job != nil {
		script += " && /spark/bin/$" + cluster.EnvJobCommand
	}
	return []string{"sh", "-c", script + " && tail -f /dev/null"}
}
