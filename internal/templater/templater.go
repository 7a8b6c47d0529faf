// Package templater renders the per-node configuration artifacts from static
// template text and a handful of computed values.
package templater

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/vk/clustergrid/internal/cluster"
	"github.com/vk/clustergrid/internal/fsutil"
)

// Value names understood by the base templates.
const (
	ValueMemoryMiB         = "memory_mib"
	ValueStorageURI        = "storage_uri"
	ValueCoordinationPeers = "coordination_peers"
	ValueClusterName       = "cluster_name"
)

// TemplateExt is the file extension of template files.
const TemplateExt = ".tmpl"

//go:embed templates/*.tmpl
var baseFS embed.FS

// Template is a piece of static text rendered into one artifact.
type Template struct {
	Name string
	Path string
	Text string
	// Requires names values that must be supplied for the artifact to exist
	// at all.
	Requires []string
}

// Values maps a value name to its rendered form.
type Values map[string]string

// GapWarning reports a placeholder that had no value and was left verbatim.
type GapWarning struct {
	Path        string
	Placeholder string
}

func (w GapWarning) String() string {
	return fmt.Sprintf("%s: no value for {{%s}}", w.Path, w.Placeholder)
}

var baseTemplates = []struct {
	name     string
	path     string
	requires []string
}{
	{"env", cluster.EnvFilePath, nil},
	{"defaults", cluster.DefaultsFilePath, nil},
	{"logging", cluster.LoggingFilePath, nil},
	{"filesystem", cluster.FilesystemFilePath, []string{ValueStorageURI}},
	{"recovery", cluster.RecoveryFilePath, []string{ValueCoordinationPeers}},
}

// Defaults returns the embedded base template set.
func Defaults() []Template {
	out := make([]Template, 0, len(baseTemplates))
	for _, b := range baseTemplates {
		text, err := baseFS.ReadFile("templates/" + b.name + TemplateExt)
		if err != nil {
			panic(fmt.Sprintf("embedded template %s missing: %v", b.name, err))
		}
		out = append(out, Template{
			Name:     b.name,
			Path:     b.path,
			Text:     string(text),
			Requires: slices.Clone(b.requires),
		})
	}
	return out
}

// Override replaces the text of templates by name. Overriding a name that is
// not in base is an error.
func Override(base []Template, texts map[string]string) ([]Template, error) {
	out := slices.Clone(base)
	for name, text := range texts {
		i := slices.IndexFunc(out, func(t Template) bool { return t.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("template override %q does not match any template", name)
		}
		out[i].Text = text
	}
	return out, nil
}

// LoadDir reads every template file under dir. The template name is the file
// name without the extension.
func LoadDir(dir string) (map[string]string, error) {
	files, err := fsutil.FindFiles(dir, TemplateExt)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates in %s: %w", dir, err)
	}
	texts := make(map[string]string, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", f, err)
		}
		texts[strings.TrimSuffix(filepath.Base(f), TemplateExt)] = string(b)
	}
	return texts, nil
}

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes values into every template whose requirements are met.
// Placeholders without a value are kept as they are and reported, once per
// placeholder and artifact.
func Render(templates []Template, values Values) (map[string]cluster.Artifact, []GapWarning) {
	artifacts := make(map[string]cluster.Artifact, len(templates))
	var gaps []GapWarning

	for _, t := range templates {
		if !satisfied(t.Requires, values) {
			continue
		}
		var missing []string
		content := placeholderRegex.ReplaceAllStringFunc(t.Text, func(m string) string {
			name := placeholderRegex.FindStringSubmatch(m)[1]
			if v, ok := values[name]; ok {
				return v
			}
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return m
		})
		for _, name := range missing {
			gaps = append(gaps, GapWarning{Path: t.Path, Placeholder: name})
		}
		artifacts[t.Path] = cluster.Artifact{Path: t.Path, Content: content}
	}
	return artifacts, gaps
}

func satisfied(requires []string, values Values) bool {
	for _, r := range requires {
		if _, ok := values[r]; !ok {
			return false
		}
	}
	return true
}
