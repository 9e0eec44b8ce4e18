// Package provider composes the query-state store and the fetch engine
// into the single read/write facade the display primitives consume. The
// provider owns neither state: it reads both through, adds the derived
// fields (HasMore, TotalCount), and threads every handler back through
// the store so a mutation recomputes the cache key and drives the
// engine.
package provider

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"slices"

	"github.com/facetgrid/facetgrid/fetch"
	"github.com/facetgrid/facetgrid/filter"
	"github.com/facetgrid/facetgrid/querystate"
	"github.com/facetgrid/facetgrid/source"
)

// DefaultPageSize applies when Options.DefaultLimit is unset.
const DefaultPageSize = 20

// Options wires a Provider. Either Source, or the DB/Table/Scan trio
// for the built-in relational adapter, must be supplied.
type Options[T any] struct {
	// Namespace prefixes URL parameters so several listings share one URL.
	Namespace string

	// Table and Columns identify the backing relation.
	Table   string
	Columns []string

	Groups        []filter.Group
	Mappings      []filter.ColumnMapping
	SearchColumns []string

	// DefaultSort is "column:direction", applied when the URL has no
	// sort parameter.
	DefaultSort  string
	DefaultLimit int

	Strategy fetch.Strategy

	// ForcedViewMode pins the layout; ChangeViewMode becomes a no-op.
	ForcedViewMode querystate.ViewMode
	ViewStore      querystate.ViewStore

	// KeepPageOnChange disables the page-reset-on-mutation policy
	// (classic pagination keeping its place across filter changes).
	KeepPageOnChange bool

	// Navigate receives coalesced URL updates; nil for tests/tooling.
	Navigate querystate.NavigateFunc

	// Source is the data source. When nil, DB+Table+Scan build a
	// relational adapter.
	Source source.Source[T]
	DB     *sql.DB
	Scan   source.RowScanner[T]

	Modifier  fetch.ModifierFunc
	Transform fetch.TransformFunc[T]

	// SeedItems/SeedCount install server-rendered initial data; a
	// non-empty seed suppresses the first fetch.
	SeedItems []T
	SeedCount int

	// OnRefetchReady hands the engine's refetch to an external caller
	// (a real-time subscription handler, typically).
	OnRefetchReady func(refetch func(ctx context.Context))
}

// Provider is the shared facade.
type Provider[T any] struct {
	opts   Options[T]
	cfg    querystate.ParseConfig
	store  *querystate.Store
	engine *fetch.Engine[T]
	groups map[string]filter.Group
}

// New validates options, builds the state store from the initial URL
// parameters, and constructs the fetch engine. Configuration errors
// (no source, no table for the relational adapter) are returned
// immediately; they are fatal to the caller.
func New[T any](initial url.Values, opts Options[T]) (*Provider[T], error) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultPageSize
	}

	src := opts.Source
	if src == nil {
		if opts.Table == "" {
			return nil, fmt.Errorf("provider: no table name and no custom fetch function configured")
		}
		if opts.DB == nil || opts.Scan == nil {
			return nil, fmt.Errorf("provider: table %q needs a database handle and a row scanner", opts.Table)
		}
		table, err := source.NewTable(opts.DB, opts.Scan)
		if err != nil {
			return nil, fmt.Errorf("provider: %w", err)
		}
		src = table
	}

	cfg := querystate.ParseConfig{
		Namespace:    opts.Namespace,
		Groups:       opts.Groups,
		DefaultLimit: opts.DefaultLimit,
	}

	storeOpts := []querystate.StoreOption{
		querystate.WithPolicy(querystate.Policy{ResetPageOnChange: !opts.KeepPageOnChange}),
	}
	if opts.ViewStore != nil {
		storeOpts = append(storeOpts, querystate.WithViewStore(opts.ViewStore))
	}
	if opts.ForcedViewMode != "" {
		storeOpts = append(storeOpts, querystate.WithForcedViewMode(opts.ForcedViewMode))
	}
	store := querystate.NewStore(initial, cfg, opts.Navigate, storeOpts...)

	engineOpts := []fetch.Option[T]{}
	if len(opts.SeedItems) > 0 {
		engineOpts = append(engineOpts, fetch.WithSeed(opts.SeedItems, opts.SeedCount))
	}
	engine, err := fetch.New(fetch.Config[T]{
		Table:         opts.Table,
		Columns:       opts.Columns,
		Mappings:      opts.Mappings,
		SearchColumns: opts.SearchColumns,
		DefaultSort:   opts.DefaultSort,
		Strategy:      opts.Strategy,
		Source:        src,
		Modifier:      opts.Modifier,
		Transform:     opts.Transform,
	}, engineOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	groups := make(map[string]filter.Group, len(opts.Groups))
	for _, g := range opts.Groups {
		groups[g.ID] = g
	}

	p := &Provider[T]{
		opts:   opts,
		cfg:    cfg,
		store:  store,
		engine: engine,
		groups: groups,
	}

	if opts.OnRefetchReady != nil {
		opts.OnRefetchReady(p.Refetch)
	}
	return p, nil
}

// Close stops the store's navigation applier.
func (p *Provider[T]) Close() {
	p.store.Close()
}

// Sync recomputes the cache key from the current state and lets the
// engine decide whether a fetch is due. Idempotent for unchanged state.
func (p *Provider[T]) Sync(ctx context.Context) error {
	return p.engine.Sync(ctx, p.store.State())
}

// Observe re-registers externally supplied callbacks (see
// fetch.Engine.Observe) and syncs, so a recreated callback identity
// triggers exactly one refetch.
func (p *Provider[T]) Observe(ctx context.Context, modifier fetch.ModifierFunc, transform fetch.TransformFunc[T]) error {
	p.engine.Observe(modifier, nil, transform)
	return p.Sync(ctx)
}

// QueryState returns the current query-state snapshot.
func (p *Provider[T]) QueryState() querystate.State {
	return p.store.State()
}

// FetchState returns the current fetch-state snapshot.
func (p *Provider[T]) FetchState() fetch.State[T] {
	return p.engine.State()
}

// Groups returns the declared filter groups in declaration order.
func (p *Provider[T]) Groups() []filter.Group {
	return p.opts.Groups
}

// Watch exposes the engine's coalesced change notifications.
func (p *Provider[T]) Watch() <-chan struct{} {
	return p.engine.Watch()
}

// Flush blocks until pending URL navigations have been applied.
func (p *Provider[T]) Flush() {
	p.store.Flush()
}

// TotalCount is the exact total reported by the source.
func (p *Provider[T]) TotalCount() int {
	return p.engine.State().Count
}

// TotalPages derives the page count under the current limit.
func (p *Provider[T]) TotalPages() int {
	st := p.store.State()
	if st.Limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(p.engine.State().Count) / float64(st.Limit)))
}

// HasMore reports whether more records exist beyond what is shown:
// under classic strategy, whether a later page exists; under the
// accumulating strategies, whether the total exceeds the accumulated
// length.
func (p *Provider[T]) HasMore() bool {
	fs := p.engine.State()
	if p.opts.Strategy.Accumulates() {
		return fs.Count > len(fs.Data)
	}
	st := p.store.State()
	if st.Limit <= 0 {
		return false
	}
	return st.Page < int(math.Ceil(float64(fs.Count)/float64(st.Limit)))
}

// SetSearch updates the free-text query and syncs.
func (p *Provider[T]) SetSearch(ctx context.Context, q string) error {
	p.store.SetSearch(q)
	return p.Sync(ctx)
}

// SetFilter replaces a group's active values and syncs.
func (p *Provider[T]) SetFilter(ctx context.Context, groupID string, values []string) error {
	p.store.SetFilter(groupID, values)
	return p.Sync(ctx)
}

// ToggleFilterValue flips one option. Single-mode groups replace the
// active value (and clear it when the same value is toggled again);
// multiple-mode groups add or remove the value from the set.
func (p *Provider[T]) ToggleFilterValue(ctx context.Context, groupID, value string) error {
	active := p.store.State().Filters[groupID]

	g, known := p.groups[groupID]
	if known && g.Mode == filter.ModeSingle {
		if len(active) > 0 && active[0] == value {
			p.store.SetFilter(groupID, nil)
		} else {
			p.store.SetFilter(groupID, []string{value})
		}
		return p.Sync(ctx)
	}

	if i := slices.Index(active, value); i >= 0 {
		active = slices.Delete(slices.Clone(active), i, i+1)
	} else {
		active = append(slices.Clone(active), value)
	}
	p.store.SetFilter(groupID, active)
	return p.Sync(ctx)
}

// ClearFilter removes a group's active values and syncs.
func (p *Provider[T]) ClearFilter(ctx context.Context, groupID string) error {
	p.store.SetFilter(groupID, nil)
	return p.Sync(ctx)
}

// ClearFilters removes every group's values in a single coalesced
// navigation and syncs once.
func (p *Provider[T]) ClearFilters(ctx context.Context) error {
	changes := make(map[string]string, len(p.opts.Groups))
	for _, g := range p.opts.Groups {
		changes[g.ID] = ""
	}
	p.store.Update(changes)
	return p.Sync(ctx)
}

// SetSort sets the "column:direction" sort and syncs.
func (p *Provider[T]) SetSort(ctx context.Context, sort string) error {
	p.store.SetSort(sort)
	return p.Sync(ctx)
}

// SetPage navigates to a page and syncs. Page mutations never trigger
// the reset policy.
func (p *Provider[T]) SetPage(ctx context.Context, page int) error {
	p.store.SetPage(page)
	return p.Sync(ctx)
}

// SetLimit changes the page size and syncs.
func (p *Provider[T]) SetLimit(ctx context.Context, limit int) error {
	p.store.SetLimit(limit)
	return p.Sync(ctx)
}

// ChangeViewMode updates the persisted layout preference. No sync: the
// view mode never affects the compiled request.
func (p *Provider[T]) ChangeViewMode(m querystate.ViewMode) {
	p.store.ChangeViewMode(m)
}

// FetchNextPage appends the next page under the accumulating
// strategies; ignored under classic.
func (p *Provider[T]) FetchNextPage(ctx context.Context) {
	p.engine.FetchNextPage(ctx)
}

// Refetch re-issues the first page while keeping current data visible.
func (p *Provider[T]) Refetch(ctx context.Context) {
	p.engine.Refetch(ctx)
}
