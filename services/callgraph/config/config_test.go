// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("embedded defaults are valid", func(t *testing.T) {
		cfg, err := Default()
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, FormatDOT, cfg.OutputFormat)
		assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSizeBytes)
		assert.Equal(t, 0, cfg.Workers)
		assert.NotEmpty(t, cfg.Exclude, "defaults should exclude build directories")
		assert.False(t, cfg.PerFile)
	})

	t.Run("file overrides defaults field by field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 4\noutput_format: json\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, FormatJSON, cfg.OutputFormat)
		assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSizeBytes,
			"untouched defaults must survive the override")
	})

	t.Run("empty path loads defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, FormatDOT, cfg.OutputFormat)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid file values rejected on load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output_format: svg\n"), 0o600))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("validation rejects bad values", func(t *testing.T) {
		cases := []struct {
			name string
			cfg  Config
		}{
			{"zero max size", Config{MaxFileSizeBytes: 0, OutputFormat: FormatDOT}},
			{"negative workers", Config{MaxFileSizeBytes: 1, Workers: -1, OutputFormat: FormatDOT}},
			{"unknown format", Config{MaxFileSizeBytes: 1, OutputFormat: "svg"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.ErrorIs(t, tc.cfg.Validate(), ErrInvalidConfig)
			})
		}
	})
}
