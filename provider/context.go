package provider

import (
	"context"
	"fmt"
)

type ctxKey struct{}

// NewContext embeds a provider in a context for consumption by display
// primitives further down the call tree.
func NewContext[T any](ctx context.Context, p *Provider[T]) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext retrieves the provider. Accessing the facade outside an
// active provider scope (or with a mismatched item type) is a
// configuration error and fails loudly.
func FromContext[T any](ctx context.Context) (*Provider[T], error) {
	p, ok := ctx.Value(ctxKey{}).(*Provider[T])
	if !ok {
		return nil, fmt.Errorf("facetgrid: facade accessed outside an active provider scope (wrap the context with provider.NewContext)")
	}
	return p, nil
}

// MustFromContext is FromContext that panics on misuse. Intended for
// call sites where a missing provider is a programming error.
func MustFromContext[T any](ctx context.Context) *Provider[T] {
	p, err := FromContext[T](ctx)
	if err != nil {
		panic(err)
	}
	return p
}
