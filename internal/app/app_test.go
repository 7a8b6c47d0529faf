package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/config"
	"github.com/vk/clustergrid/internal/coordination"
	"github.com/vk/clustergrid/internal/hcl"
	"github.com/vk/clustergrid/internal/testutil"
	"github.com/vk/clustergrid/internal/yamlcfg"
)

const baseCluster = `
cluster "analytics" {
  workers = 2

  memory {
    machine {
      instance_type = "m4.large"
    }
  }
}
`

// setupApp writes files to a temp dir and builds an App reading it.
func setupApp(t *testing.T, files map[string]string, cfg Config, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	cfg.Path = testutil.WriteFiles(t, files)
	cfg.LogLevel = "debug"
	c, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(context.Background(), out, logs, c, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("CLUSTERGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestPlan_WritesHCLToStdout(t *testing.T) {
	a, out, logs := setupApp(t, map[string]string{"cluster.hcl": baseCluster}, Config{})

	require.NoError(t, a.Plan(context.Background()))

	got := out.String()
	assert.Contains(t, got, `node "analytics.controller[0]"`)
	assert.Contains(t, got, `node "analytics.worker[0]"`)
	assert.Contains(t, got, `node "analytics.worker[1]"`)
	assert.Contains(t, got, "7168m")
	assert.Contains(t, got, "allow {")
	assert.Contains(t, logs.String(), "Cluster synthesized.")
}

func TestPlan_WritesToOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.hcl")
	a, out, _ := setupApp(t, map[string]string{"cluster.hcl": baseCluster}, Config{Out: path})

	require.NoError(t, a.Plan(context.Background()))

	assert.Empty(t, out.String())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `node "analytics.worker[1]"`)
}

func TestDeploy_UsesDescribedPlatform(t *testing.T) {
	a, out, _ := setupApp(t, map[string]string{
		"cluster.hcl":  baseCluster,
		"platform.hcl": `platform "print" {}`,
	}, Config{})

	require.NoError(t, a.Deploy(context.Background()))

	got := out.String()
	assert.Contains(t, got, "node analytics.worker[0]\n")
	assert.Contains(t, got, "allow [analytics.worker[0], analytics.worker[1]] -> [analytics.controller[0]] :7077\n")
	assert.Contains(t, got, "\ndeploy\n")
}

func TestDeploy_PlatformOverride(t *testing.T) {
	a, out, _ := setupApp(t, map[string]string{
		"cluster.hcl":  baseCluster,
		"platform.hcl": `platform "socketio" { url = "http://deployer.invalid:3000" }`,
	}, Config{Platform: "print"})

	require.NoError(t, a.Deploy(context.Background()))
	assert.Contains(t, out.String(), "\ndeploy\n")
}

func TestDeploy_UnknownPlatform(t *testing.T) {
	a, _, _ := setupApp(t, map[string]string{"cluster.hcl": baseCluster}, Config{Platform: "carrier-pigeon"})

	err := a.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown platform "carrier-pigeon"`)
}

func TestSynthesize_ConsulPeers(t *testing.T) {
	var asked config.ConsulSource
	consul := func(src config.ConsulSource) (coordination.Resolver, error) {
		asked = src
		return coordination.Static{"zk-b.q", "zk-a.q:2182"}, nil
	}
	a, _, _ := setupApp(t, map[string]string{"cluster.hcl": `
cluster "analytics" {
  controllers = 2
  workers     = 1

  coordination {
    consul {
      address = "127.0.0.1:8500"
      service = "zookeeper"
    }
  }
}
`}, Config{}, WithConsul(consul))

	plan, err := a.Synthesize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "zookeeper", asked.Service)
	standby, err := plan.Topology.Lookup("analytics.controller[1]")
	require.NoError(t, err)
	assert.Equal(t, "analytics-controller-1.q", standby.Address)
	require.Contains(t, plan.Artifacts, cluster.RecoveryFilePath)
	assert.Contains(t, plan.Artifacts[cluster.RecoveryFilePath].Content, "zk-b.q:2181,zk-a.q:2182")
}

func TestSynthesize_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		hcl   string
		check func(t *testing.T, err error)
	}{
		{
			name: "invalid spec",
			hcl:  `cluster "analytics" { workers = -1 }`,
			check: func(t *testing.T, err error) {
				var target *cluster.InvalidSpecError
				assert.True(t, errors.As(err, &target))
			},
		},
		{
			name: "unknown instance type",
			hcl: `cluster "analytics" {
  memory {
    machine {
      instance_type = "z9.colossal"
    }
  }
}`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "z9.colossal")
			},
		},
		{
			name: "multiple controllers without peers",
			hcl:  `cluster "analytics" { controllers = 3 }`,
			check: func(t *testing.T, err error) {
				var target *cluster.InvalidSpecError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "coordination", target.Field)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _, _ := setupApp(t, map[string]string{"cluster.hcl": tc.hcl}, Config{})
			plan, err := a.Synthesize(context.Background())
			require.Error(t, err)
			assert.Nil(t, plan)
			tc.check(t, err)
		})
	}
}

func TestSynthesize_TemplatesDir(t *testing.T) {
	a, _, _ := setupApp(t, map[string]string{
		"cluster.hcl": `
cluster "analytics" {
  templates_dir = "./tmpl"
}
`,
		"tmpl/logging.tmpl": "log4j.rootCategory=WARN, console # {{cluster_name}}\n",
	}, Config{})

	plan, err := a.Synthesize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "log4j.rootCategory=WARN, console # analytics\n", plan.Artifacts[cluster.LoggingFilePath].Content)
}

func TestSelectLoader(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"yaml/cluster.yml": "cluster:\n  name: a\n",
		"hcl/cluster.hcl":  `cluster "a" {}`,
		"mixed/a.hcl":      `cluster "a" {}`,
		"mixed/b.yaml":     "platform:\n  type: print\n",
		"empty/README":     "",
		"notes.txt":        "",
	})

	testCases := []struct {
		path    string
		want    config.Loader
		wantErr string
	}{
		{path: "yaml", want: yamlcfg.NewLoader()},
		{path: "yaml/cluster.yml", want: yamlcfg.NewLoader()},
		{path: "hcl", want: hcl.NewLoader()},
		{path: "hcl/cluster.hcl", want: hcl.NewLoader()},
		{path: "mixed", want: hcl.NewLoader()},
		{path: "empty", want: hcl.NewLoader()},
		{path: "notes.txt", wantErr: "unsupported description file"},
		{path: "missing", wantErr: "error accessing path"},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, err := selectLoader(filepath.Join(dir, tc.path))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, got)
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	_, err = NewConfig(Config{})
	assert.Error(t, err)
	_, err = NewConfig(Config{Path: "x", LogLevel: "loud"})
	assert.ErrorContains(t, err, "invalid log level")
	_, err = NewConfig(Config{Path: "x", LogFormat: "xml"})
	assert.ErrorContains(t, err, "invalid log format")
}
