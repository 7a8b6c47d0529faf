package app

import (
	"errors"
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Path is a description file or a directory of them.
	Path string

	LogFormat string
	LogLevel  string

	// Platform overrides the platform type named by the description.
	Platform string
	// AWSPricing enables instance type lookups against the AWS Price List
	// API for types missing from the built-in catalog.
	AWSPricing bool
	// Out is the file the plan command writes to. Empty means stdout.
	Out string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" {
		return nil, errors.New("a cluster description path is required")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q, want one of %v", cfg.LogLevel, logLevels)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q, want one of %v", cfg.LogFormat, logFormats)
	}
	return &cfg, nil
}
