package querystate

import (
	"log/slog"
	"net/url"
	"sync"
)

// NavigateFunc applies a new parameter set to the address bar (or
// whatever stands in for it). It is called from the navigator's own
// goroutine, never from the caller of Update.
type NavigateFunc func(values url.Values)

// navigator defers parameter application through a cooperative,
// latest-wins slot so callers never block on history updates. Multiple
// rapid pushes coalesce: only the newest pending value set is applied.
//
// The capacity-1 signal channel is the same coalescing pattern used for
// event availability elsewhere in the module.
type navigator struct {
	mu       sync.Mutex
	pending  url.Values
	has      bool
	applying bool
	closed   bool
	cond     *sync.Cond
	signal   chan struct{}
	navigate NavigateFunc
}

func newNavigator(fn NavigateFunc) *navigator {
	n := &navigator{
		signal:   make(chan struct{}, 1),
		navigate: fn,
	}
	n.cond = sync.NewCond(&n.mu)
	go n.run()
	return n
}

// push schedules values for application, replacing any pending set.
// The signal send happens under the mutex so it cannot race a
// concurrent Close of the channel.
func (n *navigator) push(values url.Values) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		slog.Debug("navigation dropped: navigator closed")
		return
	}
	n.pending = values
	n.has = true

	select {
	case n.signal <- struct{}{}:
	default:
	}
}

// Flush blocks until every pending navigation has been applied.
// Used by tests and by callers that need the URL settled.
func (n *navigator) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for n.has || n.applying {
		n.cond.Wait()
	}
}

// Close stops the apply loop. Pending navigations are dropped. The
// channel close happens under the same mutex as push's send, so the
// two can never interleave.
func (n *navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.has = false
	close(n.signal)
	n.cond.Broadcast()
}

func (n *navigator) run() {
	for range n.signal {
		for {
			n.mu.Lock()
			if !n.has || n.closed {
				n.mu.Unlock()
				break
			}
			values := n.pending
			n.pending = nil
			n.has = false
			n.applying = true
			n.mu.Unlock()

			n.navigate(values)

			n.mu.Lock()
			n.applying = false
			n.cond.Broadcast()
			n.mu.Unlock()
		}
	}
}
