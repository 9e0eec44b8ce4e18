package source

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetgrid/facetgrid/query"
)

func TestCompileSelectBare(t *testing.T) {
	sql, params, err := CompileSelect(query.Request{
		Table: "products",
		Range: query.Range{From: 0, To: 19},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM products LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{20, 0}, params)
}

func TestCompileSelectColumnsAndOrder(t *testing.T) {
	sql, params, err := CompileSelect(query.Request{
		Table:   "products",
		Columns: []string{"id", "name", "price"},
		Order:   &query.Order{Column: "price", Descending: true},
		Range:   query.Range{From: 40, To: 59},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name, price FROM products ORDER BY price DESC LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{20, 40}, params)
}

func TestCompileSelectParameterizesValues(t *testing.T) {
	sql, params, err := CompileSelect(query.Request{
		Table: "products",
		Where: []query.Predicate{
			query.Cmp{Column: "status", Op: "=", Value: "active"},
		},
		Range: query.Range{From: 0, To: 9},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "active", "values are parameterized, never interpolated")
	assert.Equal(t, []any{"active", 10, 0}, params)
}

func TestCompileSelectEmptyWindow(t *testing.T) {
	// An inverted range clamps to LIMIT 0 rather than a negative limit.
	sql, params, err := CompileSelect(query.Request{
		Table: "products",
		Range: query.Range{From: 10, To: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM products LIMIT ? OFFSET ?", sql)
	assert.Equal(t, []any{0, 10}, params)
}

func TestCompileSelectNoTable(t *testing.T) {
	_, _, err := CompileSelect(query.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table")
}

func TestCompileCount(t *testing.T) {
	sql, params, err := CompileCount(query.Request{
		Table: "products",
		Where: []query.Predicate{
			query.Cmp{Column: "status", Op: "=", Value: "active"},
		},
		Order: &query.Order{Column: "name"},
		Range: query.Range{From: 20, To: 39},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM products WHERE status = ?", sql)
	assert.Equal(t, []any{"active"}, params,
		"count carries the predicates but no ordering or window")
}

func TestCompilePredicates(t *testing.T) {
	tests := []struct {
		name           string
		pred           query.Predicate
		expectedSQL    string
		expectedParams []any
	}{
		{
			"cmp",
			query.Cmp{Column: "qty", Op: ">=", Value: 10},
			"qty >= ?",
			[]any{10},
		},
		{
			"match case sensitive",
			query.Match{Column: "name", Pattern: "Wid%", CaseSensitive: true},
			"name LIKE ?",
			[]any{"Wid%"},
		},
		{
			"match case insensitive",
			query.Match{Column: "name", Pattern: "%wid%"},
			"LOWER(name) LIKE LOWER(?)",
			[]any{"%wid%"},
		},
		{
			"in",
			query.In{Column: "status", Values: []any{"a", "b", "c"}},
			"status IN (?, ?, ?)",
			[]any{"a", "b", "c"},
		},
		{
			"empty in matches nothing",
			query.In{Column: "status"},
			"1 = 0",
			nil,
		},
		{
			"is null",
			query.Is{Column: "deleted_at"},
			"deleted_at IS NULL",
			nil,
		},
		{
			"is value",
			query.Is{Column: "archived", Value: true},
			"archived IS ?",
			[]any{true},
		},
		{
			"contains",
			query.Contains{Column: "tags", Value: []string{"red", "blue"}},
			"(EXISTS (SELECT 1 FROM json_each(tags) WHERE json_each.value = ?)" +
				" AND EXISTS (SELECT 1 FROM json_each(tags) WHERE json_each.value = ?))",
			[]any{"red", "blue"},
		},
		{
			"empty contains is vacuous",
			query.Contains{Column: "tags"},
			"1 = 1",
			nil,
		},
		{
			"or",
			query.Or{Predicates: []query.Predicate{
				query.Match{Column: "name", Pattern: "%x%"},
				query.Match{Column: "sku", Pattern: "%x%"},
			}},
			"(LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?))",
			[]any{"%x%", "%x%"},
		},
		{
			"empty or is vacuous",
			query.Or{},
			"1 = 1",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compilePredicate(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSQL, sql)
			assert.Equal(t, tt.expectedParams, params)
		})
	}
}

func TestCompileWhereConjunction(t *testing.T) {
	sql, params, err := CompileSelect(query.Request{
		Table: "products",
		Where: []query.Predicate{
			query.Cmp{Column: "status", Op: "=", Value: "active"},
			query.In{Column: "category", Values: []any{"tools", "parts"}},
		},
		Range: query.Range{From: 0, To: 19},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products WHERE status = ? AND category IN (?, ?) LIMIT ? OFFSET ?",
		sql)
	assert.Equal(t, []any{"active", "tools", "parts", 20, 0}, params)
}

// TestCompileGolden pins the full rendered form of representative
// queries. Regenerate with: go test ./source -update
func TestCompileGolden(t *testing.T) {
	cases := []struct {
		name string
		req  query.Request
	}{
		{
			"listing_first_page",
			query.Request{
				Table:   "products",
				Columns: []string{"id", "name", "status"},
				Order:   &query.Order{Column: "name"},
				Range:   query.Range{From: 0, To: 19},
			},
		},
		{
			"filtered_search_page_three",
			query.Request{
				Table: "products",
				Where: []query.Predicate{
					query.Cmp{Column: "status", Op: "=", Value: "active"},
					query.Or{Predicates: []query.Predicate{
						query.Match{Column: "name", Pattern: "%bolt%"},
						query.Match{Column: "description", Pattern: "%bolt%"},
					}},
				},
				Order: &query.Order{Column: "price", Descending: true},
				Range: query.Range{From: 40, To: 59},
			},
		},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		selectSQL, selectParams, err := CompileSelect(c.req)
		require.NoError(t, err)
		countSQL, countParams, err := CompileCount(c.req)
		require.NoError(t, err)

		fmt.Fprintf(&buf, "-- %s\n", c.name)
		fmt.Fprintf(&buf, "select: %s\n", selectSQL)
		fmt.Fprintf(&buf, "select params: %v\n", selectParams)
		fmt.Fprintf(&buf, "count: %s\n", countSQL)
		fmt.Fprintf(&buf, "count params: %v\n\n", countParams)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "compile_queries", buf.Bytes())
}
