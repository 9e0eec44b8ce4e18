// Package source defines the data-source capability consumed by the
// fetch engine: a single Fetch operation taking an immutable per-request
// context and returning one page of items with an exact total count.
//
// Two adapters ship with the package: Func wraps a custom fetch
// function, and Table compiles requests to parameterized SQL against an
// explicit *sql.DB. The engine is adapter-agnostic.
package source

import (
	"context"

	"github.com/facetgrid/facetgrid/query"
)

// FetchContext is the immutable per-request snapshot handed to a
// source. It is constructed from the latest state at fetch-issue time
// and never mutated afterwards, so staggered async resolution cannot
// apply a newer state's parameters under an older request's results.
type FetchContext struct {
	Page     int
	PageSize int
	Skip     int

	// Filters, Search, and Sort are the logical inputs, for custom
	// fetchers that talk to non-relational backends.
	Filters map[string][]string
	Search  string
	Sort    string

	// Query is the compiled request, for adapters that consume the
	// predicate form directly.
	Query query.Request
}

// Result is one fetched page. Count is the exact total across all
// pages, not the page length.
type Result[T any] struct {
	Items []T
	Count int
}

// Source fetches one page of records.
type Source[T any] interface {
	Fetch(ctx context.Context, fc FetchContext) (Result[T], error)
}

// Func adapts a plain function to Source.
type Func[T any] func(ctx context.Context, fc FetchContext) (Result[T], error)

func (f Func[T]) Fetch(ctx context.Context, fc FetchContext) (Result[T], error) {
	return f(ctx, fc)
}
