// Package query compiles declarative filter, search, sort, and
// pagination state into a backend-agnostic Request. Build is a pure
// function; all leniency rules (unmapped filters skipped, blank search
// skipped, malformed sort ignored) live here so adapters stay strict.
package query

import (
	"strings"

	"github.com/facetgrid/facetgrid/filter"
)

// Input is everything Build needs to compile one request.
type Input struct {
	Table   string
	Columns []string

	// Filters maps group ID to its active values. Absent key = empty set.
	Filters  map[string][]string
	Mappings []filter.ColumnMapping

	Search        string
	SearchColumns []string

	// Sort is "column:direction"; empty falls back to DefaultSort;
	// both empty leaves ordering to the backend.
	Sort        string
	DefaultSort string

	Skip     int
	PageSize int
}

// Build compiles Input into a Request.
//
// Leniency policy (accepted, not an error path):
//   - mappings for inactive or unknown filter IDs produce nothing
//   - unknown operators are skipped
//   - single-mode groups may carry extra values; only index 0 is used
//     for scalar operators
func Build(in Input) Request {
	req := Request{
		Table:   in.Table,
		Columns: in.Columns,
		Range:   Range{From: in.Skip, To: in.Skip + in.PageSize - 1},
	}

	for _, m := range in.Mappings {
		values := in.Filters[m.FilterID]
		if len(values) == 0 {
			continue
		}
		if p := compileMapping(m, values); p != nil {
			req.Where = append(req.Where, p)
		}
	}

	if p := compileSearch(in.Search, in.SearchColumns); p != nil {
		req.Where = append(req.Where, p)
	}

	if o := ParseOrder(in.Sort); o != nil {
		req.Order = o
	} else {
		req.Order = ParseOrder(in.DefaultSort)
	}

	return req
}

// compileMapping turns one active mapping into exactly one predicate.
// Set operators (in, contains, is) receive the transformed value set;
// scalar operators always use the raw first value.
func compileMapping(m filter.ColumnMapping, values []string) Predicate {
	switch m.Operator {
	case filter.OpEq:
		return Cmp{Column: m.Column, Op: "=", Value: values[0]}
	case filter.OpNeq:
		return Cmp{Column: m.Column, Op: "<>", Value: values[0]}
	case filter.OpGt:
		return Cmp{Column: m.Column, Op: ">", Value: values[0]}
	case filter.OpGte:
		return Cmp{Column: m.Column, Op: ">=", Value: values[0]}
	case filter.OpLt:
		return Cmp{Column: m.Column, Op: "<", Value: values[0]}
	case filter.OpLte:
		return Cmp{Column: m.Column, Op: "<=", Value: values[0]}
	case filter.OpLike:
		return Match{Column: m.Column, Pattern: values[0], CaseSensitive: true}
	case filter.OpILike:
		return Match{Column: m.Column, Pattern: values[0]}
	case filter.OpIn:
		return In{Column: m.Column, Values: transformSet(m, values)}
	case filter.OpContains:
		return Contains{Column: m.Column, Value: transformScalar(m, values)}
	case filter.OpIs:
		return Is{Column: m.Column, Value: transformFirst(m, values)}
	default:
		// Unknown operator: skip silently.
		return nil
	}
}

func transformSet(m filter.ColumnMapping, values []string) []any {
	if m.Transform != nil {
		if out, ok := m.Transform(values).([]any); ok {
			return out
		}
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func transformScalar(m filter.ColumnMapping, values []string) any {
	if m.Transform != nil {
		return m.Transform(values)
	}
	return values
}

func transformFirst(m filter.ColumnMapping, values []string) any {
	if m.Transform != nil {
		return m.Transform(values)
	}
	return values[0]
}

// compileSearch builds the free-text predicate. Blank (after trimming)
// means no predicate. One target column is a single case-insensitive
// partial match; several columns are ORed.
func compileSearch(search string, columns []string) Predicate {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return nil
	}

	pattern := "%" + search + "%"
	if len(columns) == 1 {
		return Match{Column: columns[0], Pattern: pattern}
	}

	or := Or{Predicates: make([]Predicate, 0, len(columns))}
	for _, col := range columns {
		or.Predicates = append(or.Predicates, Match{Column: col, Pattern: pattern})
	}
	return or
}
