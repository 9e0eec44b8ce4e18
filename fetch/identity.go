package fetch

import "reflect"

// Callback roles tracked for identity changes. Each role carries a
// monotonic counter that increments whenever the supplied callback's
// identity differs from the last observed one. The counters participate
// in the cache key, so a logically-unchanged-but-recreated callback
// forces a refetch without the caller invoking Refetch manually.
const (
	roleModifier  = "modifier"
	roleFetcher   = "fetcher"
	roleTransform = "transform"
)

type identityTracker struct {
	ptrs     map[string]uintptr
	refs     map[string]any
	counters map[string]uint64
}

func newIdentityTracker() *identityTracker {
	return &identityTracker{
		ptrs:     make(map[string]uintptr),
		refs:     make(map[string]any),
		counters: make(map[string]uint64),
	}
}

// observe records the current identity for a role, bumping the role's
// counter when it changed. Returns true on a change.
//
// The observed value itself is retained alongside its pointer: the
// comparison is only sound while the baseline callback stays reachable,
// otherwise a freshly allocated replacement could land at the recycled
// address and read as unchanged.
func (t *identityTracker) observe(role string, v any) bool {
	ptr := identityOf(v)
	prev, seen := t.ptrs[role]
	t.refs[role] = v
	if seen && prev == ptr {
		return false
	}
	t.ptrs[role] = ptr
	if seen {
		t.counters[role]++
		return true
	}
	// First observation establishes the baseline without a bump.
	return false
}

// keyCounters returns the counters in canonical-JSON-marshalable form.
func (t *identityTracker) keyCounters() map[string]any {
	out := make(map[string]any, len(t.counters))
	for role, c := range t.counters {
		out[role] = c
	}
	return out
}

// identityOf reproduces reference-identity change detection portably:
// pointer-like values compare by pointer, nil is zero, and plain value
// types are treated as stable.
func identityOf(v any) uintptr {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0
		}
		return rv.Pointer()
	default:
		return 1
	}
}
