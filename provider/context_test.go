package provider

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextOutsideScope(t *testing.T) {
	_, err := FromContext[string](context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside an active provider scope")
}

func TestFromContextRoundTrip(t *testing.T) {
	src := &catalog{total: 5}
	p, err := New(url.Values{}, testOptions(src))
	require.NoError(t, err)
	t.Cleanup(p.Close)

	ctx := NewContext(context.Background(), p)

	got, err := FromContext[string](ctx)
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestFromContextTypeMismatch(t *testing.T) {
	src := &catalog{total: 5}
	p, err := New(url.Values{}, testOptions(src))
	require.NoError(t, err)
	t.Cleanup(p.Close)

	ctx := NewContext(context.Background(), p)

	_, err = FromContext[int](ctx)
	require.Error(t, err, "a mismatched item type is the same misuse as a missing provider")
}

func TestMustFromContextPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustFromContext[string](context.Background())
	})
}
