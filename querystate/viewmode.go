package querystate

import (
	"net/http"
	"sync"
	"time"
)

// DefaultViewCookie is the cookie name used by NewCookieStore callers
// that do not pick their own.
const DefaultViewCookie = "facetgrid_view"

// viewCookieMaxAge keeps the preference for a year, site-wide.
const viewCookieMaxAge = 365 * 24 * time.Hour

// ViewStore persists the view-mode preference across sessions.
type ViewStore interface {
	// Load returns the stored mode and whether one was present.
	Load() (ViewMode, bool)
	// Save stores the mode durably.
	Save(m ViewMode)
}

// CookieStore persists the view mode in an HTTP cookie scoped to the
// whole site with a one-year expiry.
type CookieStore struct {
	Name string
	r    *http.Request
	w    http.ResponseWriter
}

// NewCookieStore builds a CookieStore bound to one request/response
// pair. name defaults to DefaultViewCookie when empty.
func NewCookieStore(name string, r *http.Request, w http.ResponseWriter) *CookieStore {
	if name == "" {
		name = DefaultViewCookie
	}
	return &CookieStore{Name: name, r: r, w: w}
}

func (c *CookieStore) Load() (ViewMode, bool) {
	if c.r == nil {
		return "", false
	}
	cookie, err := c.r.Cookie(c.Name)
	if err != nil {
		return "", false
	}
	m := ViewMode(cookie.Value)
	if !m.Valid() {
		return "", false
	}
	return m, true
}

func (c *CookieStore) Save(m ViewMode) {
	if c.w == nil {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.Name,
		Value:    string(m),
		Path:     "/",
		MaxAge:   int(viewCookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
}

// MemoryStore is an in-process ViewStore for tests and tooling.
type MemoryStore struct {
	mu   sync.Mutex
	mode ViewMode
	set  bool
}

func (m *MemoryStore) Load() (ViewMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode, m.set
}

func (m *MemoryStore) Save(mode ViewMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.set = true
}
