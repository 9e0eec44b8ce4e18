package provider

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facetgrid/facetgrid/fetch"
	"github.com/facetgrid/facetgrid/filter"
	"github.com/facetgrid/facetgrid/querystate"
	"github.com/facetgrid/facetgrid/source"
)

// catalog serves fmt.Sprintf("item-%02d", i) rows and records every
// fetch context it sees.
type catalog struct {
	mu    sync.Mutex
	total int
	calls []source.FetchContext
}

func (c *catalog) Fetch(ctx context.Context, fc source.FetchContext) (source.Result[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fc)

	items := make([]string, 0, fc.PageSize)
	for i := fc.Skip; i < c.total && len(items) < fc.PageSize; i++ {
		items = append(items, fmt.Sprintf("item-%02d", i))
	}
	return source.Result[string]{Items: items, Count: c.total}, nil
}

func (c *catalog) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *catalog) lastCall() source.FetchContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

func testOptions(src source.Source[string]) Options[string] {
	return Options[string]{
		Table: "products",
		Groups: []filter.Group{
			{ID: "status", Mode: filter.ModeSingle},
			{ID: "tags", Mode: filter.ModeMultiple},
		},
		Mappings: []filter.ColumnMapping{
			{FilterID: "status", Column: "status", Operator: filter.OpEq},
			{FilterID: "tags", Column: "tags", Operator: filter.OpIn},
		},
		SearchColumns: []string{"name"},
		DefaultLimit:  10,
		Source:        src,
	}
}

func newTestProvider(t *testing.T, initial url.Values, opts Options[string]) *Provider[string] {
	t.Helper()
	p, err := New(initial, opts)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	require.NoError(t, p.Sync(context.Background()))
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := New(url.Values{}, Options[string]{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table name and no custom fetch function")

	_, err = New(url.Values{}, Options[string]{Table: "products"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database handle")
}

func TestProviderInitialFetch(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))

	fs := p.FetchState()
	assert.Len(t, fs.Data, 10)
	assert.Equal(t, 25, fs.Count)
	assert.Equal(t, 25, p.TotalCount())
	assert.Equal(t, 3, p.TotalPages())
}

func TestProviderInitialURLState(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{
		"q":      {"bolt"},
		"status": {"active"},
		"page":   {"2"},
	}, testOptions(src))

	st := p.QueryState()
	assert.Equal(t, "bolt", st.Search)
	assert.Equal(t, []string{"active"}, st.Filters["status"])
	assert.Equal(t, 2, st.Page)

	fc := src.lastCall()
	assert.Equal(t, "bolt", fc.Search)
	assert.Equal(t, 10, fc.Skip, "a deep link primes at its own page offset")
	assert.Equal(t, "item-10", p.FetchState().Data[0])
}

func TestProviderSetSearchResetsAndFetches(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{"page": {"3"}}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.SetSearch(ctx, "bolt"))

	assert.Equal(t, 1, p.QueryState().Page)
	assert.Equal(t, "bolt", src.lastCall().Search)
	assert.Equal(t, 2, src.callCount())
}

func TestProviderSetPageClassic(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.SetPage(ctx, 3))

	assert.Equal(t, 20, src.lastCall().Skip)
	assert.Equal(t, "item-20", p.FetchState().Data[0])
	assert.False(t, p.HasMore(), "page 3 of 3 has nothing beyond it")

	require.NoError(t, p.SetPage(ctx, 1))
	assert.True(t, p.HasMore())
}

func TestProviderToggleFilterSingleMode(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.ToggleFilterValue(ctx, "status", "active"))
	assert.Equal(t, []string{"active"}, p.QueryState().Filters["status"])

	require.NoError(t, p.ToggleFilterValue(ctx, "status", "archived"))
	assert.Equal(t, []string{"archived"}, p.QueryState().Filters["status"],
		"single mode replaces the active value")

	require.NoError(t, p.ToggleFilterValue(ctx, "status", "archived"))
	assert.Empty(t, p.QueryState().Filters["status"],
		"re-toggling the active value clears the group")
}

func TestProviderToggleFilterMultipleMode(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.ToggleFilterValue(ctx, "tags", "red"))
	require.NoError(t, p.ToggleFilterValue(ctx, "tags", "blue"))
	assert.Equal(t, []string{"red", "blue"}, p.QueryState().Filters["tags"])

	require.NoError(t, p.ToggleFilterValue(ctx, "tags", "red"))
	assert.Equal(t, []string{"blue"}, p.QueryState().Filters["tags"])
}

func TestProviderClearFilters(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{
		"status": {"active"},
		"tags":   {"red,blue"},
		"page":   {"2"},
	}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.ClearFilters(ctx))

	st := p.QueryState()
	assert.Empty(t, st.Filters)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 2, src.callCount(), "clearing all groups is one state change, one fetch")
}

func TestProviderSetSortFetches(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.SetSort(ctx, "name:desc"))

	fc := src.lastCall()
	require.NotNil(t, fc.Query.Order)
	assert.True(t, fc.Query.Order.Descending)
}

func TestProviderSetLimit(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.SetLimit(ctx, 5))

	assert.Equal(t, 5, p.QueryState().Limit)
	assert.Len(t, p.FetchState().Data, 5)
	assert.Equal(t, 5, p.TotalPages())
}

func TestProviderHasMoreAccumulating(t *testing.T) {
	src := &catalog{total: 25}
	opts := testOptions(src)
	opts.Strategy = fetch.StrategyLoadMore
	p := newTestProvider(t, url.Values{}, opts)
	ctx := context.Background()

	assert.True(t, p.HasMore())

	p.FetchNextPage(ctx)
	p.FetchNextPage(ctx)

	assert.Len(t, p.FetchState().Data, 25)
	assert.False(t, p.HasMore(), "everything accumulated, nothing more to load")
}

func TestProviderSyncIdempotent(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))
	ctx := context.Background()

	require.NoError(t, p.Sync(ctx))
	require.NoError(t, p.Sync(ctx))

	assert.Equal(t, 1, src.callCount())
}

func TestProviderSeed(t *testing.T) {
	src := &catalog{total: 25}
	opts := testOptions(src)
	opts.SeedItems = []string{"seed-00", "seed-01"}
	opts.SeedCount = 25
	p := newTestProvider(t, url.Values{}, opts)

	assert.Equal(t, 0, src.callCount())
	assert.Equal(t, []string{"seed-00", "seed-01"}, p.FetchState().Data)
	assert.Equal(t, 25, p.TotalCount())
}

func TestProviderOnRefetchReady(t *testing.T) {
	src := &catalog{total: 25}
	opts := testOptions(src)

	var refetch func(ctx context.Context)
	opts.OnRefetchReady = func(fn func(ctx context.Context)) { refetch = fn }

	p := newTestProvider(t, url.Values{}, opts)
	require.NotNil(t, refetch, "the refetch hook is handed out during construction")
	require.Equal(t, 1, src.callCount())

	refetch(context.Background())
	assert.Equal(t, 2, src.callCount())
	assert.Len(t, p.FetchState().Data, 10)
}

func TestProviderChangeViewMode(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))

	p.ChangeViewMode(querystate.ViewModeGrid)

	assert.Equal(t, querystate.ViewModeGrid, p.QueryState().ViewMode)
	assert.Equal(t, 1, src.callCount(), "layout changes never refetch")
}

func TestProviderNamespaceIsolation(t *testing.T) {
	srcA := &catalog{total: 25}
	srcB := &catalog{total: 12}

	optsA := testOptions(srcA)
	optsA.Namespace = "a"
	optsB := testOptions(srcB)
	optsB.Namespace = "b"

	shared := url.Values{"a_q": {"bolt"}, "b_page": {"2"}}
	pa := newTestProvider(t, shared, optsA)
	pb := newTestProvider(t, shared, optsB)

	assert.Equal(t, "bolt", pa.QueryState().Search)
	assert.Equal(t, 1, pa.QueryState().Page)
	assert.Equal(t, "", pb.QueryState().Search)
	assert.Equal(t, 2, pb.QueryState().Page)
}

func TestProviderGroups(t *testing.T) {
	src := &catalog{total: 25}
	p := newTestProvider(t, url.Values{}, testOptions(src))

	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "status", groups[0].ID)
	assert.Equal(t, "tags", groups[1].ID)
}
