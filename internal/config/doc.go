// Package config defines the format-agnostic configuration model and the
// Loader interface implemented by the format-specific loaders.
//
// The `config.Model` is the single source of truth for the app: it carries the
// cluster spec with defaults applied, where to resolve collaborators from and
// which deployment platform to emit to. Concrete loaders for HCL and YAML live
// in separate packages.
package config
