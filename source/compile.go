package source

import (
	"fmt"
	"strings"

	"github.com/facetgrid/facetgrid/query"
)

// CompileSelect renders a Request as a parameterized SQLite SELECT with
// the inclusive row window applied as LIMIT/OFFSET.
//
// Values are always parameterized, never interpolated. Column and table
// identifiers come from the declarative mapping table, not from user
// input, so they are emitted verbatim.
func CompileSelect(req query.Request) (string, []any, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("cannot compile select: no table")
	}

	columns := "*"
	if len(req.Columns) > 0 {
		columns = strings.Join(req.Columns, ", ")
	}

	whereSQL, params, err := compileWhere(req.Where)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s", columns, req.Table, whereSQL)

	if req.Order != nil {
		dir := "ASC"
		if req.Order.Descending {
			dir = "DESC"
		}
		sql += fmt.Sprintf(" ORDER BY %s %s", req.Order.Column, dir)
	}

	limit := req.Range.To - req.Range.From + 1
	if limit < 0 {
		limit = 0
	}
	sql += " LIMIT ? OFFSET ?"
	params = append(params, limit, req.Range.From)

	return sql, params, nil
}

// CompileCount renders the exact-count companion query: same table and
// predicates, no ordering or window.
func CompileCount(req query.Request) (string, []any, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("cannot compile count: no table")
	}

	whereSQL, params, err := compileWhere(req.Where)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", req.Table, whereSQL), params, nil
}

func compileWhere(preds []query.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	var parts []string
	var params []any
	for _, p := range preds {
		sql, ps, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return " WHERE " + strings.Join(parts, " AND "), params, nil
}

func compilePredicate(p query.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case query.Cmp:
		return fmt.Sprintf("%s %s ?", pred.Column, pred.Op), []any{pred.Value}, nil

	case query.Match:
		// SQLite's LIKE is already case-insensitive for ASCII; LOWER()
		// makes the insensitive variant explicit and extends it to the
		// parameter side.
		if pred.CaseSensitive {
			return fmt.Sprintf("%s LIKE ?", pred.Column), []any{pred.Pattern}, nil
		}
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", pred.Column), []any{pred.Pattern}, nil

	case query.In:
		if len(pred.Values) == 0 {
			return "1 = 0", nil, nil // Empty set matches nothing
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(pred.Values)), ", ")
		return fmt.Sprintf("%s IN (%s)", pred.Column, placeholders), pred.Values, nil

	case query.Contains:
		return compileContains(pred)

	case query.Is:
		if pred.Value == nil {
			return fmt.Sprintf("%s IS NULL", pred.Column), nil, nil
		}
		return fmt.Sprintf("%s IS ?", pred.Column), []any{pred.Value}, nil

	case query.Or:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil // Vacuous truth
		}
		var parts []string
		var params []any
		for _, sub := range pred.Predicates {
			sql, ps, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, ps...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", params, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileContains emulates array containment over a JSON-array column
// using the json_each table-valued function: every element of the
// wanted set must appear in the column's array.
func compileContains(pred query.Contains) (string, []any, error) {
	elems, err := containsElements(pred.Value)
	if err != nil {
		return "", nil, err
	}
	if len(elems) == 0 {
		return "1 = 1", nil, nil
	}

	clause := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)",
		pred.Column,
	)
	parts := make([]string, len(elems))
	for i := range elems {
		parts[i] = clause
	}
	return "(" + strings.Join(parts, " AND ") + ")", elems, nil
}

func containsElements(v any) ([]any, error) {
	switch val := v.(type) {
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case []any:
		return val, nil
	case nil:
		return nil, nil
	default:
		return []any{val}, nil
	}
}
