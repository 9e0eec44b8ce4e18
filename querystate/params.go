package querystate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/facetgrid/facetgrid/filter"
)

// Reserved parameter names. Search accepts both aliases, preferring
// ParamQ when both are present.
const (
	ParamQ      = "q"
	ParamSearch = "search"
	ParamSort   = "sort"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

// filterValueSep joins multi-valued filter parameters in the URL.
const filterValueSep = ","

// ParseConfig describes how URL parameters map to a State.
type ParseConfig struct {
	// Namespace prefixes every parameter as "<namespace>_<key>" when
	// non-empty, so several listings can share one URL.
	Namespace string

	// Groups supply filter IDs and default values.
	Groups []filter.Group

	// DefaultLimit is used when the limit parameter is missing or
	// unparsable. Must be > 0.
	DefaultLimit int
}

// Key returns the physical parameter name for a logical key.
func (c ParseConfig) Key(name string) string {
	if c.Namespace == "" {
		return name
	}
	return c.Namespace + "_" + name
}

// Parse reads a State from raw URL parameters.
//
// Malformed numeric values are normalized, never raised: page clamps to
// >= 1, limit falls back to DefaultLimit. Missing filter parameters use
// the group's default value when one is declared.
func Parse(values url.Values, cfg ParseConfig) State {
	st := State{
		Filters: make(map[string][]string, len(cfg.Groups)),
		Page:    1,
		Limit:   cfg.DefaultLimit,
	}

	if q := values.Get(cfg.Key(ParamQ)); q != "" {
		st.Search = q
	} else {
		st.Search = values.Get(cfg.Key(ParamSearch))
	}

	for _, g := range cfg.Groups {
		raw := values.Get(cfg.Key(g.ID))
		if raw == "" {
			if g.DefaultValue != "" {
				st.Filters[g.ID] = []string{g.DefaultValue}
			}
			continue
		}
		st.Filters[g.ID] = splitFilterValues(raw)
	}

	st.Sort = values.Get(cfg.Key(ParamSort))

	if page, err := strconv.Atoi(values.Get(cfg.Key(ParamPage))); err == nil && page > 1 {
		st.Page = page
	}
	if limit, err := strconv.Atoi(values.Get(cfg.Key(ParamLimit))); err == nil && limit > 0 {
		st.Limit = limit
	}

	return st
}

// Serialize writes a State back to URL parameters. Defaults are
// omitted: empty search/sort, empty filter sets, page 1, and a limit
// equal to DefaultLimit produce no parameter. Parse(Serialize(s), cfg)
// yields an equivalent State.
func Serialize(st State, cfg ParseConfig) url.Values {
	values := url.Values{}

	if st.Search != "" {
		values.Set(cfg.Key(ParamQ), st.Search)
	}
	for _, g := range cfg.Groups {
		active := st.Filters[g.ID]
		if len(active) == 0 {
			continue
		}
		if g.DefaultValue != "" && len(active) == 1 && active[0] == g.DefaultValue {
			continue
		}
		values.Set(cfg.Key(g.ID), strings.Join(active, filterValueSep))
	}
	if st.Sort != "" {
		values.Set(cfg.Key(ParamSort), st.Sort)
	}
	if st.Page > 1 {
		values.Set(cfg.Key(ParamPage), strconv.Itoa(st.Page))
	}
	if st.Limit > 0 && st.Limit != cfg.DefaultLimit {
		values.Set(cfg.Key(ParamLimit), strconv.Itoa(st.Limit))
	}

	return values
}

func splitFilterValues(raw string) []string {
	parts := strings.Split(raw, filterValueSep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
