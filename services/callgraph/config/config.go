// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates analysis run configuration.
//
// Defaults are embedded in the binary; an optional user config file
// overrides them field by field. CLI flags apply on top of the loaded
// config in cmd/javacg.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// Supported export formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ErrInvalidConfig is the sentinel wrapped by all validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tunables for one analysis run.
type Config struct {
	// MaxFileSizeBytes caps the size of a single Java source file.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	// Workers is the number of files analyzed concurrently. 0 selects
	// one worker per CPU.
	Workers int `yaml:"workers"`

	// Exclude lists glob patterns skipped during file discovery.
	Exclude []string `yaml:"exclude"`

	// OutputFormat is the combined-graph export format: dot or json.
	OutputFormat string `yaml:"output_format"`

	// PerFile additionally writes one <file>.dot next to each input.
	PerFile bool `yaml:"per_file"`

	// ReportUnresolved logs every unresolved or ambiguous call site.
	ReportUnresolved bool `yaml:"report_unresolved"`
}

// Default returns the embedded baseline configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	return &cfg, nil
}

// Load returns the defaults overridden by the YAML file at path.
//
// An empty path returns the defaults unchanged. The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values, returning the first violation wrapped
// in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("%w: max_file_size_bytes must be positive, got %d",
			ErrInvalidConfig, c.MaxFileSizeBytes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.OutputFormat != FormatDOT && c.OutputFormat != FormatJSON {
		return fmt.Errorf("%w: output_format must be %q or %q, got %q",
			ErrInvalidConfig, FormatDOT, FormatJSON, c.OutputFormat)
	}
	return nil
}
