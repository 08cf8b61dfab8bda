// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err, "should read embedded migrations directory")

	expectedFiles := []string{
		"000001_initial.up.sql",
		"000001_initial.down.sql",
	}

	fileNames := make(map[string]bool)
	for _, entry := range entries {
		fileNames[entry.Name()] = true
	}

	for _, expected := range expectedFiles {
		assert.True(t, fileNames[expected], "should contain %s", expected)
	}

	// Every up migration needs a matching down migration.
	assert.Zero(t, len(entries)%2, "migrations must come in up/down pairs")

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		assert.True(t, pattern.MatchString(entry.Name()),
			"file %s should match pattern NNNNNN_name.(up|down).sql", entry.Name())
	}
}
