package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_EveryUpHasDown(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	for name := range names {
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			assert.True(t, names[base+".down.sql"], "missing down migration for %s", name)
		}
		if base, ok := strings.CutSuffix(name, ".down.sql"); ok {
			assert.True(t, names[base+".up.sql"], "missing up migration for %s", name)
		}
	}
}

func TestFS_CatalogSchema(t *testing.T) {
	up, err := fs.ReadFile(FS, "001_catalog_runs.up.sql")
	require.NoError(t, err)

	sql := string(up)
	assert.Contains(t, sql, "engine_catalog_runs")
	assert.Contains(t, sql, "engine_catalog_tables")
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
