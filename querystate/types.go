package querystate

// ViewMode selects the record layout. It is persisted independently of
// the URL so it survives navigation.
type ViewMode string

const (
	ViewModeList ViewMode = "list"
	ViewModeGrid ViewMode = "grid"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewModeList || m == ViewModeGrid
}

// State is the canonical query state derived from the URL and the view
// preference store. It is exposed by value; mutation goes through the
// Store's setters only.
type State struct {
	// Search is the free-text query. Empty means no text filter.
	Search string

	// Filters maps group ID to its active values in selection order.
	// An absent key is an empty set.
	Filters map[string][]string

	// Sort is "column:direction". Empty falls back to the configured
	// default at compile time.
	Sort string

	Page  int // >= 1
	Limit int // > 0

	ViewMode ViewMode
}

// Clone returns a deep copy. Filter value slices are copied so callers
// cannot mutate the store's view of the state.
func (s State) Clone() State {
	out := s
	out.Filters = make(map[string][]string, len(s.Filters))
	for k, v := range s.Filters {
		vals := make([]string, len(v))
		copy(vals, v)
		out.Filters[k] = vals
	}
	return out
}
