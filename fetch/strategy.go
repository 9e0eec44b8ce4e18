package fetch

// Strategy selects the pagination behavior of the engine.
type Strategy string

const (
	// StrategyClassic fetches discrete pages; every fetch replaces the
	// displayed set.
	StrategyClassic Strategy = "classic"
	// StrategyLoadMore appends pages to an accumulating set on explicit
	// FetchNextPage calls.
	StrategyLoadMore Strategy = "load-more"
	// StrategyInfinite is load-more with a viewport-proximity trigger;
	// the engine treats the two identically.
	StrategyInfinite Strategy = "infinite-scroll"
)

// Accumulates reports whether fetched pages append to the existing
// data rather than replacing it.
func (s Strategy) Accumulates() bool {
	return s == StrategyLoadMore || s == StrategyInfinite
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyClassic || s.Accumulates()
}
