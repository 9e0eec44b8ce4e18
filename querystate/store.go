// Package querystate owns the canonical query state: it parses state
// from URL parameters, applies mutations with the page-reset policy,
// defers navigation through a latest-wins applier, and persists the
// view-mode preference in a cookie-like store.
package querystate

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Policy controls cross-cutting mutation behavior.
type Policy struct {
	// ResetPageOnChange deletes the page parameter (defaulting it back
	// to 1) whenever search, filters, or sort change. This is the single
	// mechanism enforcing the page-reset invariant.
	ResetPageOnChange bool
}

// Store owns the query state. All mutation goes through Update or the
// typed setters; reads return value snapshots.
type Store struct {
	mu       sync.Mutex
	cfg      ParseConfig
	policy   Policy
	values   url.Values
	viewMode ViewMode
	forced   ViewMode
	views    ViewStore
	nav      *navigator
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithPolicy overrides the default policy (page reset enabled).
func WithPolicy(p Policy) StoreOption {
	return func(s *Store) { s.policy = p }
}

// WithViewStore sets the durable view-mode store. Without one the view
// preference lives only in memory.
func WithViewStore(vs ViewStore) StoreOption {
	return func(s *Store) { s.views = vs }
}

// WithForcedViewMode pins the view mode. ChangeViewMode becomes a no-op.
func WithForcedViewMode(m ViewMode) StoreOption {
	return func(s *Store) { s.forced = m }
}

// NewStore creates a Store seeded from the given raw parameters.
// navigate receives every coalesced parameter update; pass nil when no
// address bar exists (tests, batch tooling).
func NewStore(initial url.Values, cfg ParseConfig, navigate NavigateFunc, opts ...StoreOption) *Store {
	s := &Store{
		cfg:      cfg,
		policy:   Policy{ResetPageOnChange: true},
		values:   cloneValues(initial),
		viewMode: ViewModeList,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.views != nil {
		if m, ok := s.views.Load(); ok && m.Valid() {
			s.viewMode = m
		}
	}
	if navigate == nil {
		navigate = func(url.Values) {}
	}
	s.nav = newNavigator(navigate)
	return s
}

// Close stops the navigation applier.
func (s *Store) Close() {
	s.nav.Close()
}

// Flush blocks until all pending navigation updates have been applied.
func (s *Store) Flush() {
	s.nav.Flush()
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Parse(s.values, s.cfg)
	st.ViewMode = s.currentViewMode()
	return st
}

// Values returns a copy of the current raw parameter set.
func (s *Store) Values() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.values)
}

// updateOpts carries per-call mutation flags.
type updateOpts struct {
	keepPage bool
}

// UpdateOption adjusts a single Update call.
type UpdateOption func(*updateOpts)

// KeepPage disables the page reset for this mutation even when the
// policy enables it (classic pagination keeping its place).
func KeepPage() UpdateOption {
	return func(o *updateOpts) { o.keepPage = true }
}

// Update merges changes into the parameter set and schedules a
// navigation. Keys are logical names (un-namespaced); an empty value
// deletes the parameter. Unless KeepPage is passed and unless the
// change set itself includes the page key, the page parameter is
// deleted whenever the reset policy is enabled.
func (s *Store) Update(changes map[string]string, opts ...UpdateOption) {
	var o updateOpts
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	next := cloneValues(s.values)
	pageChanged := false
	for k, v := range changes {
		if k == ParamPage {
			pageChanged = true
		}
		physical := s.cfg.Key(k)
		if v == "" {
			next.Del(physical)
		} else {
			next.Set(physical, v)
		}
	}
	if s.policy.ResetPageOnChange && !o.keepPage && !pageChanged {
		next.Del(s.cfg.Key(ParamPage))
	}
	s.values = next
	s.mu.Unlock()

	slog.Debug("query params updated",
		"changed", len(changes),
		"page_reset", s.policy.ResetPageOnChange && !o.keepPage && !pageChanged,
	)
	s.nav.push(cloneValues(next))
}

// SetSearch sets the free-text query. The search alias parameter is
// cleared so the canonical q key wins on the next parse.
func (s *Store) SetSearch(q string, opts ...UpdateOption) {
	s.Update(map[string]string{ParamQ: q, ParamSearch: ""}, opts...)
}

// SetFilter replaces a group's active values. An empty set deletes the
// parameter.
func (s *Store) SetFilter(groupID string, values []string, opts ...UpdateOption) {
	s.Update(map[string]string{groupID: strings.Join(values, filterValueSep)}, opts...)
}

// SetSort sets the "column:direction" sort parameter.
func (s *Store) SetSort(sort string, opts ...UpdateOption) {
	s.Update(map[string]string{ParamSort: sort}, opts...)
}

// SetPage navigates to a page. Page 1 deletes the parameter. A page
// mutation never triggers the reset policy.
func (s *Store) SetPage(page int) {
	if page <= 1 {
		s.Update(map[string]string{ParamPage: ""}, KeepPage())
		return
	}
	s.Update(map[string]string{ParamPage: strconv.Itoa(page)})
}

// SetLimit sets the page size.
func (s *Store) SetLimit(limit int, opts ...UpdateOption) {
	if limit <= 0 {
		s.Update(map[string]string{ParamLimit: ""}, opts...)
		return
	}
	s.Update(map[string]string{ParamLimit: strconv.Itoa(limit)}, opts...)
}

// ChangeViewMode updates and persists the layout preference. A forced
// mode makes this a no-op; invalid modes are ignored.
func (s *Store) ChangeViewMode(m ViewMode) {
	if !m.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forced != "" {
		return
	}
	s.viewMode = m
	if s.views != nil {
		s.views.Save(m)
	}
}

// ViewMode returns the effective view mode (forced mode wins).
func (s *Store) ViewMode() ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentViewMode()
}

func (s *Store) currentViewMode() ViewMode {
	if s.forced != "" {
		return s.forced
	}
	return s.viewMode
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		copied := make([]string, len(vals))
		copy(copied, vals)
		out[k] = copied
	}
	return out
}
