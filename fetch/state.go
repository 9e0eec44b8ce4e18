package fetch

// State is the fetch lifecycle snapshot. It is owned by the Engine and
// handed to consumers by value; Data is copied so consumers cannot
// mutate the engine's accumulation buffer.
type State[T any] struct {
	// Data holds the fetched items: one page under classic strategy,
	// the accumulated pages under load-more/infinite-scroll.
	Data []T

	// Count is the exact total across all pages as reported by the
	// source, not the length of Data.
	Count int

	// IsLoading is true during the initial fetch, before any data has
	// been shown. IsFetching is true during any in-flight fetch,
	// including refetches that keep existing data visible.
	IsLoading  bool
	IsFetching bool

	// IsSuccess is true once a fetch (or a seed) has populated state.
	IsSuccess bool

	// Err holds the last fetch failure. Existing Data is preserved on
	// error; only the flags and Err change.
	Err error

	// HasInitialFetch is true once the first page (or seed) is in.
	HasInitialFetch bool
}

func (s State[T]) clone() State[T] {
	out := s
	out.Data = make([]T, len(s.Data))
	copy(out.Data, s.Data)
	return out
}
