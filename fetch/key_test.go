package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetgrid/facetgrid/querystate"
)

func keyState() querystate.State {
	return querystate.State{
		Search:  "bolt",
		Filters: map[string][]string{"status": {"active"}},
		Sort:    "name:asc",
		Page:    1,
		Limit:   20,
	}
}

func TestComputeKeyDeterministic(t *testing.T) {
	k1, err := computeKey("products", []string{"id", "name"}, keyState(), map[string]any{})
	require.NoError(t, err)
	k2, err := computeKey("products", []string{"id", "name"}, keyState(), map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
}

func TestComputeKeyExcludesPageAndLimit(t *testing.T) {
	base, err := computeKey("products", nil, keyState(), nil)
	require.NoError(t, err)

	paged := keyState()
	paged.Page = 7
	paged.Limit = 100
	k, err := computeKey("products", nil, paged, nil)
	require.NoError(t, err)

	assert.Equal(t, base, k, "page and limit never invalidate the cache key")
}

func TestComputeKeySensitivity(t *testing.T) {
	base, err := computeKey("products", []string{"id"}, keyState(), map[string]any{"transform": uint64(0)})
	require.NoError(t, err)

	tests := []struct {
		name     string
		table    string
		columns  []string
		mutate   func(*querystate.State)
		counters map[string]any
	}{
		{"table", "orders", []string{"id"}, nil, map[string]any{"transform": uint64(0)}},
		{"columns", "products", []string{"id", "sku"}, nil, map[string]any{"transform": uint64(0)}},
		{
			"search", "products", []string{"id"},
			func(st *querystate.State) { st.Search = "nut" },
			map[string]any{"transform": uint64(0)},
		},
		{
			"filters", "products", []string{"id"},
			func(st *querystate.State) { st.Filters["status"] = []string{"archived"} },
			map[string]any{"transform": uint64(0)},
		},
		{
			"filter value order", "products", []string{"id"},
			func(st *querystate.State) { st.Filters["status"] = []string{"active", "archived"} },
			map[string]any{"transform": uint64(0)},
		},
		{
			"sort", "products", []string{"id"},
			func(st *querystate.State) { st.Sort = "name:desc" },
			map[string]any{"transform": uint64(0)},
		},
		{"counters", "products", []string{"id"}, nil, map[string]any{"transform": uint64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := keyState()
			if tt.mutate != nil {
				tt.mutate(&st)
			}
			k, err := computeKey(tt.table, tt.columns, st, tt.counters)
			require.NoError(t, err)
			assert.NotEqual(t, base, k)
		})
	}
}

func TestComputeKeyNilColumnsEqualsEmpty(t *testing.T) {
	k1, err := computeKey("products", nil, keyState(), nil)
	require.NoError(t, err)
	k2, err := computeKey("products", []string{}, keyState(), nil)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}
