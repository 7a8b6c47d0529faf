package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(dir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	return dir
}

func TestFindFiles(t *testing.T) {
	dir := writeTree(t, "b.yaml", "a.yml", "nested/c.yaml", ".git/d.yaml", "e.hcl", "f.yaml.bak")

	got, err := FindFiles(dir, ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, got)
}

func TestFindFiles_PanicsWithoutExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFiles(t.TempDir()) })
}

func TestCollect(t *testing.T) {
	dir := writeTree(t, "one.hcl", "two.hcl", "notes.txt")
	explicit := filepath.Join(dir, "notes.txt")

	got, err := Collect([]string{dir, explicit, filepath.Join(dir, "one.hcl")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		explicit,
		filepath.Join(dir, "one.hcl"),
		filepath.Join(dir, "two.hcl"),
	}, got)

	_, err = Collect([]string{filepath.Join(dir, "missing")}, ".hcl")
	assert.ErrorContains(t, err, "error accessing path")
}
