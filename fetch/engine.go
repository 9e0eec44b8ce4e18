// Package fetch implements the pagination-mode-aware fetch engine: it
// derives a cache key from the synced query state plus callback identity
// counters, issues fetches when the key (or the page, under classic
// pagination) changes, accumulates or replaces data per strategy, and
// discards results from superseded fetch cycles.
//
// Concurrency model: engine state is single-owner behind a mutex and
// exposed as value snapshots. Fetches run in the caller's goroutine; the
// only suspension points are the source call and the transform call.
// There is no transport-level cancellation of superseded requests -
// their results are discarded by the cycle guard on resolution.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/facetgrid/facetgrid/filter"
	"github.com/facetgrid/facetgrid/query"
	"github.com/facetgrid/facetgrid/querystate"
	"github.com/facetgrid/facetgrid/source"
)

// ModifierFunc post-processes the compiled request before it reaches
// the source (extra predicates, column tweaks). Supplied externally;
// its identity participates in the cache key.
type ModifierFunc func(req query.Request) query.Request

// TransformFunc rewrites a fetched page before it is merged into the
// engine state. A failing transform is treated as a fetch-level error.
type TransformFunc[T any] func(ctx context.Context, items []T, fc source.FetchContext) ([]T, error)

// Config wires an Engine. Source is required; everything else has a
// usable zero value.
type Config[T any] struct {
	// Table and Columns identify the backing relation; both feed the
	// cache key and the compiled request.
	Table   string
	Columns []string

	// Mappings, SearchColumns, and DefaultSort parameterize request
	// compilation.
	Mappings      []filter.ColumnMapping
	SearchColumns []string
	DefaultSort   string

	Strategy Strategy

	Source    source.Source[T]
	Modifier  ModifierFunc
	Transform TransformFunc[T]
}

// Engine owns the fetch lifecycle. Construct with New, drive with Sync
// after every state mutation, and read snapshots with State.
type Engine[T any] struct {
	mu     sync.Mutex
	cfg    Config[T]
	idents *identityTracker
	tokens TokenGenerator

	state     State[T]
	seeded    bool
	primed    bool
	lastKey   string
	lastState querystate.State
	cycle     uint64
	inFlight  bool

	notify chan struct{}
}

// Option configures an Engine at construction.
type Option[T any] func(*Engine[T])

// WithSeed installs server-rendered initial data. A non-empty seed
// suppresses the first fetch: the engine only fetches once a real
// change (cache-key change or explicit page change) is observed.
func WithSeed[T any](items []T, count int) Option[T] {
	return func(e *Engine[T]) {
		e.state = State[T]{
			Data:            items,
			Count:           count,
			IsSuccess:       true,
			HasInitialFetch: true,
		}
		e.seeded = len(items) > 0
	}
}

// WithTokenGenerator overrides the fetch correlation token source.
// Tests use NewFixedGenerator for deterministic log assertions.
func WithTokenGenerator[T any](g TokenGenerator) Option[T] {
	return func(e *Engine[T]) { e.tokens = g }
}

// New validates the config and builds an Engine. A missing source is a
// configuration error: the caller must supply either a table-backed
// adapter or a custom fetch function.
func New[T any](cfg Config[T], opts ...Option[T]) (*Engine[T], error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("fetch engine: no source configured (supply a table adapter or a custom fetch function)")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyClassic
	}
	if !cfg.Strategy.Valid() {
		return nil, fmt.Errorf("fetch engine: unknown strategy %q", cfg.Strategy)
	}

	e := &Engine[T]{
		cfg:    cfg,
		idents: newIdentityTracker(),
		tokens: UUIDv7Generator{},
		state:  State[T]{IsLoading: true},
		notify: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.idents.observe(roleModifier, cfg.Modifier)
	e.idents.observe(roleFetcher, cfg.Source)
	e.idents.observe(roleTransform, cfg.Transform)
	return e, nil
}

// State returns a snapshot of the fetch state.
func (e *Engine[T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Key returns the last computed cache key, for diagnostics.
func (e *Engine[T]) Key() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastKey
}

// Watch returns a coalesced notification channel that fires whenever
// the fetch state changes. Consumers re-read State after each signal.
func (e *Engine[T]) Watch() <-chan struct{} {
	return e.notify
}

// Observe re-registers the externally supplied callbacks, bumping the
// per-role identity counter for each one whose identity changed. A bump
// changes the cache key, so the next Sync refetches even though the
// logical query state is identical.
func (e *Engine[T]) Observe(modifier ModifierFunc, src source.Source[T], transform TransformFunc[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.idents.observe(roleModifier, modifier) {
		slog.Debug("modifier identity changed")
	}
	e.cfg.Modifier = modifier
	if src != nil {
		if e.idents.observe(roleFetcher, src) {
			slog.Debug("fetcher identity changed")
		}
		e.cfg.Source = src
	}
	if e.idents.observe(roleTransform, transform) {
		slog.Debug("transform identity changed")
	}
	e.cfg.Transform = transform
}

// fetchPlan describes how one fetch merges into state.
type fetchPlan struct {
	skip    int
	append  bool
	initial bool // first load: show the loading state, data is empty
}

// Sync is the render-driven effect. Call it after every state mutation
// (and on every re-render); it is idempotent for cache-key-equal
// states. Transitions:
//
//   - cache-key change: reset data, enter Loading, fetch skip 0
//   - page or limit change under classic strategy: fetch that exact
//     page and replace data
//   - otherwise: no fetch
//
// Fetch failures are captured in State().Err, never returned; the error
// return covers key computation only.
func (e *Engine[T]) Sync(ctx context.Context, st querystate.State) error {
	e.mu.Lock()

	key, err := computeKey(e.cfg.Table, e.cfg.Columns, st, e.idents.keyCounters())
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("compute cache key: %w", err)
	}

	switch {
	case !e.primed:
		e.primed = true
		e.lastKey = key
		e.lastState = st.Clone()
		if e.seeded {
			// Seeded state is current until a real change arrives.
			e.mu.Unlock()
			return nil
		}
		e.cycle++
		// A deep link lands on its page directly under classic strategy;
		// accumulating strategies always grow from the start.
		skip := 0
		if e.cfg.Strategy == StrategyClassic && st.Page > 1 && st.Limit > 0 {
			skip = (st.Page - 1) * st.Limit
		}
		e.runFetch(ctx, st, fetchPlan{skip: skip, initial: true})
		return nil

	case key != e.lastKey:
		slog.Debug("cache key changed", "old", e.lastKey, "new", key)
		e.lastKey = key
		e.lastState = st.Clone()
		e.cycle++
		// Any outstanding fetch now belongs to a dead cycle; its result
		// will be discarded on resolution.
		e.inFlight = false
		e.state.Data = nil
		e.state.Count = 0
		e.state.HasInitialFetch = false
		e.state.Err = nil
		e.runFetch(ctx, st, fetchPlan{skip: 0, initial: true})
		return nil

	case st.Page != e.lastState.Page || st.Limit != e.lastState.Limit:
		e.lastState = st.Clone()
		if e.cfg.Strategy != StrategyClassic {
			e.mu.Unlock()
			return nil
		}
		e.runFetch(ctx, st, fetchPlan{skip: (st.Page - 1) * st.Limit})
		return nil

	default:
		// Cache-key-equal repeated render: no fetch.
		e.mu.Unlock()
		return nil
	}
}

// FetchNextPage appends the next page under load-more/infinite-scroll.
// Ignored under classic strategy, while a fetch is in flight, or when
// the accumulated data already covers the last reported count. (The
// count guard does not account for a total that shrank between
// refetches; that matches the documented behavior.)
func (e *Engine[T]) FetchNextPage(ctx context.Context) {
	e.mu.Lock()
	if !e.cfg.Strategy.Accumulates() || !e.primed || e.inFlight {
		e.mu.Unlock()
		return
	}
	if e.state.HasInitialFetch && e.state.Count <= len(e.state.Data) {
		e.mu.Unlock()
		return
	}
	st := e.lastState
	e.runFetch(ctx, st, fetchPlan{skip: len(e.state.Data), append: true})
}

// Refetch re-issues the first page while keeping current data visible
// (IsFetching, not IsLoading), then replaces data wholesale. Exported
// to external refresh triggers such as real-time subscriptions.
func (e *Engine[T]) Refetch(ctx context.Context) {
	e.mu.Lock()
	if !e.primed || e.inFlight {
		e.mu.Unlock()
		return
	}
	e.runFetch(ctx, e.lastState, fetchPlan{skip: 0})
}

// runFetch executes one fetch. Called with e.mu held; unlocks it.
//
// The in-flight flag is set before the source call begins and cleared
// immediately on resolution, strictly before any state publication, so
// a notification-driven Sync cannot observe a half-applied fetch.
func (e *Engine[T]) runFetch(ctx context.Context, st querystate.State, plan fetchPlan) {
	if e.inFlight {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	cycle := e.cycle
	if plan.initial {
		e.state.IsLoading = true
	}
	e.state.IsFetching = true

	token := e.tokens.Generate()
	fc := e.buildContext(st, plan.skip)
	src := e.cfg.Source
	transform := e.cfg.Transform
	e.mu.Unlock()
	e.broadcast()

	slog.Debug("fetch issued",
		"token", token,
		"table", e.cfg.Table,
		"skip", plan.skip,
		"page_size", fc.PageSize,
		"append", plan.append,
	)

	res, err := src.Fetch(ctx, fc)
	if err == nil && transform != nil {
		res.Items, err = transform(ctx, res.Items, fc)
		if err != nil {
			err = fmt.Errorf("transform page: %w", err)
		}
	}

	e.mu.Lock()
	if cycle != e.cycle {
		// Superseded: a newer cycle reset state while we were away.
		e.mu.Unlock()
		slog.Debug("stale fetch discarded", "token", token)
		return
	}
	e.inFlight = false

	if err != nil {
		e.state.Err = err
		e.state.IsLoading = false
		e.state.IsFetching = false
		e.mu.Unlock()
		slog.Error("fetch failed", "token", token, "table", e.cfg.Table, "error", err)
		e.broadcast()
		return
	}

	e.state.Err = nil
	e.state.Count = res.Count
	if plan.append {
		e.state.Data = append(e.state.Data, res.Items...)
	} else {
		e.state.Data = res.Items
	}
	e.state.IsLoading = false
	e.state.IsFetching = false
	e.state.IsSuccess = true
	e.state.HasInitialFetch = true
	size := len(e.state.Data)
	e.mu.Unlock()

	slog.Debug("fetch resolved",
		"token", token,
		"items", len(res.Items),
		"accumulated", size,
		"count", res.Count,
	)
	e.broadcast()
}

// buildContext snapshots the latest state into an immutable per-request
// context. Filter values are deep-copied so a concurrent mutation can
// never alter an issued request.
func (e *Engine[T]) buildContext(st querystate.State, skip int) source.FetchContext {
	snapshot := st.Clone()

	req := query.Build(query.Input{
		Table:         e.cfg.Table,
		Columns:       e.cfg.Columns,
		Filters:       snapshot.Filters,
		Mappings:      e.cfg.Mappings,
		Search:        snapshot.Search,
		SearchColumns: e.cfg.SearchColumns,
		Sort:          snapshot.Sort,
		DefaultSort:   e.cfg.DefaultSort,
		Skip:          skip,
		PageSize:      snapshot.Limit,
	})
	if e.cfg.Modifier != nil {
		req = e.cfg.Modifier(req)
	}

	page := 1
	if snapshot.Limit > 0 {
		page = skip/snapshot.Limit + 1
	}
	return source.FetchContext{
		Page:     page,
		PageSize: snapshot.Limit,
		Skip:     skip,
		Filters:  snapshot.Filters,
		Search:   snapshot.Search,
		Sort:     snapshot.Sort,
		Query:    req,
	}
}

func (e *Engine[T]) broadcast() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}
