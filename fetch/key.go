package fetch

import (
	"github.com/facetgrid/facetgrid/internal/canonical"
	"github.com/facetgrid/facetgrid/querystate"
)

// keyDomain versions the cache key algorithm so a future change cannot
// collide with persisted or logged keys.
const keyDomain = "facetgrid/querykey/v1"

// computeKey fingerprints every input that must trigger a refetch when
// it changes: table identity, selected columns, filters, search, sort,
// and the callback identity counters. Page and limit are deliberately
// excluded; page changes are handled as their own transition.
func computeKey(table string, columns []string, st querystate.State, counters map[string]any) (string, error) {
	if columns == nil {
		columns = []string{}
	}
	obj := map[string]any{
		"table":     table,
		"columns":   columns,
		"filters":   st.Filters,
		"search":    st.Search,
		"sort":      st.Sort,
		"callbacks": counters,
	}
	return canonical.Hash(keyDomain, obj)
}
