package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetgrid/facetgrid/fetch"
	"github.com/facetgrid/facetgrid/filter"
)

func TestLoadValidDefinition(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "products", def.Name)
	assert.Equal(t, "products", def.Table)
	assert.Equal(t, []string{"id", "name", "status", "price", "tags"}, def.Columns)
	assert.Equal(t, []string{"name", "description"}, def.SearchColumns)
	assert.Equal(t, "name:asc", def.DefaultSort)
	assert.Equal(t, 20, def.DefaultLimit)
	assert.Equal(t, fetch.StrategyClassic, def.Strategy)

	require.Len(t, def.Filters, 2)
	status := def.Filters[0]
	assert.Equal(t, "status", status.ID)
	assert.Equal(t, filter.ModeSingle, status.Mode)
	assert.Equal(t, "active", status.DefaultValue)
	require.Len(t, status.Options, 2)
	assert.Equal(t, filter.Option{Label: "Active", Value: "active"}, status.Options[0])

	tags := def.Filters[1]
	assert.Equal(t, filter.ModeMultiple, tags.Mode)
	assert.True(t, tags.Searchable)
	assert.Equal(t, 4, tags.Options[0].Count)
}

func TestColumnMappings(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "products.yaml"))
	require.NoError(t, err)

	mappings := def.ColumnMappings()
	require.Len(t, mappings, 2)
	assert.Equal(t, "status", mappings[0].FilterID)
	assert.Equal(t, filter.OpEq, mappings[0].Operator)
	assert.Equal(t, filter.OpContains, mappings[1].Operator)
	assert.Nil(t, mappings[0].Transform, "transforms are attached in code, never in YAML")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Path, "nope.yaml")
}

func TestLoadInvalidDefinitions(t *testing.T) {
	tests := []struct {
		file     string
		expected string
	}{
		{"bad_operator.yaml", "operator"},
		{"missing_name.yaml", "name"},
		{"bad_strategy.yaml", "strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", "invalid", tt.file))
			require.Error(t, err)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Contains(t, le.Error(), tt.expected)
		})
	}
}

func TestLoadDir(t *testing.T) {
	defs, err := LoadDir(filepath.Join("testdata", "definitions"))
	require.NoError(t, err)

	require.Len(t, defs, 2)
	assert.Equal(t, "orders", defs[0].Name, "definitions load in sorted path order")
	assert.Equal(t, "products", defs[1].Name)
	assert.Equal(t, fetch.StrategyLoadMore, defs[0].Strategy)
}

func TestLoadDirFailsOnInvalid(t *testing.T) {
	_, err := LoadDir(filepath.Join("testdata", "invalid"))
	require.Error(t, err)
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(filepath.Join("testdata", "nope"))
	require.Error(t, err)
}

func TestValidateBytes(t *testing.T) {
	valid := []byte("name: minimal\n")
	assert.NoError(t, ValidateBytes("minimal.yaml", valid))

	invalid := []byte("name: bad\ndefault_limit: 0\n")
	err := ValidateBytes("bad.yaml", invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_limit")
}
