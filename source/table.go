package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// RowScanner maps one result row to an item. The rows cursor is
// positioned on the row to scan; implementations must not advance it.
type RowScanner[T any] func(rows *sql.Rows) (T, error)

// Table is the relational-backed Source. It compiles each request to
// parameterized SQL, runs the exact-count query and the windowed select
// against the provided database handle, and scans rows with the
// caller's scanner.
//
// The handle is an explicit dependency: there is no package-level
// default client.
type Table[T any] struct {
	db   *sql.DB
	scan RowScanner[T]
}

// NewTable creates a table-backed source.
func NewTable[T any](db *sql.DB, scan RowScanner[T]) (*Table[T], error) {
	if db == nil {
		return nil, fmt.Errorf("table source: nil database handle")
	}
	if scan == nil {
		return nil, fmt.Errorf("table source: nil row scanner")
	}
	return &Table[T]{db: db, scan: scan}, nil
}

// Fetch runs the compiled request. Count is exact (a COUNT(*) over the
// same predicates), matching the range-paginated select.
func (t *Table[T]) Fetch(ctx context.Context, fc FetchContext) (Result[T], error) {
	countSQL, countParams, err := CompileCount(fc.Query)
	if err != nil {
		return Result[T]{}, fmt.Errorf("compile count: %w", err)
	}

	var count int
	if err := t.db.QueryRowContext(ctx, countSQL, countParams...).Scan(&count); err != nil {
		return Result[T]{}, fmt.Errorf("count %s: %w", fc.Query.Table, err)
	}

	selectSQL, selectParams, err := CompileSelect(fc.Query)
	if err != nil {
		return Result[T]{}, fmt.Errorf("compile select: %w", err)
	}

	slog.Debug("table fetch",
		"table", fc.Query.Table,
		"skip", fc.Skip,
		"page_size", fc.PageSize,
		"predicates", len(fc.Query.Where),
	)

	rows, err := t.db.QueryContext(ctx, selectSQL, selectParams...)
	if err != nil {
		return Result[T]{}, fmt.Errorf("query %s: %w", fc.Query.Table, err)
	}
	defer rows.Close()

	items := make([]T, 0, fc.PageSize)
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return Result[T]{}, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Result[T]{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Result[T]{Items: items, Count: count}, nil
}
