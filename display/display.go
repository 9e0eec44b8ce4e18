// Package display builds view models for the rendering layer: windowed
// pagination controls, load-more state, active filter tags, filter
// menus, and the toolbar. Every builder is a pure function over state
// snapshots; rendering shells consume the models and call the
// provider's handlers.
package display

import (
	"math"
	"strings"

	"github.com/facetgrid/facetgrid/fetch"
	"github.com/facetgrid/facetgrid/filter"
	"github.com/facetgrid/facetgrid/querystate"
)

// PageItem is one slot in a pagination control: a numbered page or an
// ellipsis gap.
type PageItem struct {
	Number   int
	Current  bool
	Ellipsis bool
}

// Pagination is the classic-strategy page control model.
type Pagination struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Items      []PageItem
}

// BuildPagination windows the page numbers around the current page:
// first and last pages always show, `radius` neighbors around the
// current page show, gaps collapse to one ellipsis each.
func BuildPagination(page, count, limit, radius int) Pagination {
	if limit <= 0 {
		return Pagination{Page: page}
	}
	total := int(math.Ceil(float64(count) / float64(limit)))
	p := Pagination{
		Page:       page,
		TotalPages: total,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
	if total <= 0 {
		return p
	}
	if radius < 1 {
		radius = 1
	}

	prev := 0
	for n := 1; n <= total; n++ {
		show := n == 1 || n == total || (n >= page-radius && n <= page+radius)
		if !show {
			continue
		}
		if prev != 0 && n-prev > 1 {
			p.Items = append(p.Items, PageItem{Ellipsis: true})
		}
		p.Items = append(p.Items, PageItem{Number: n, Current: n == page})
		prev = n
	}
	return p
}

// LoadMore is the accumulate-strategy trigger model.
type LoadMore struct {
	Visible   bool
	Loading   bool
	Remaining int
}

// BuildLoadMore derives the load-more control from fetch state.
func BuildLoadMore[T any](fs fetch.State[T]) LoadMore {
	remaining := fs.Count - len(fs.Data)
	if remaining < 0 {
		remaining = 0
	}
	return LoadMore{
		Visible:   remaining > 0,
		Loading:   fs.IsFetching && !fs.IsLoading,
		Remaining: remaining,
	}
}

// Tag is one active filter chip.
type Tag struct {
	GroupID    string
	GroupLabel string
	Value      string
	Label      string
}

// BuildActiveFilters lists the active filter values in group
// declaration order, resolving option labels where declared.
func BuildActiveFilters(st querystate.State, groups []filter.Group) []Tag {
	var tags []Tag
	for _, g := range groups {
		for _, v := range st.Filters[g.ID] {
			tags = append(tags, Tag{
				GroupID:    g.ID,
				GroupLabel: g.Label,
				Value:      v,
				Label:      optionLabel(g, v),
			})
		}
	}
	return tags
}

// MenuOption is one selectable entry in a filter menu.
type MenuOption struct {
	Label  string
	Value  string
	Count  int
	Active bool
}

// Menu is one filter group's dropdown model.
type Menu struct {
	GroupID     string
	Label       string
	Mode        filter.Mode
	Searchable  bool
	ActiveCount int
	Options     []MenuOption
}

// BuildMenu assembles a group's menu. For searchable groups, a
// non-empty optionSearch narrows the option list by a case-insensitive
// label match.
func BuildMenu(g filter.Group, st querystate.State, optionSearch string) Menu {
	active := st.Filters[g.ID]
	m := Menu{
		GroupID:     g.ID,
		Label:       g.Label,
		Mode:        g.Mode,
		Searchable:  g.Searchable,
		ActiveCount: len(active),
	}

	needle := strings.ToLower(strings.TrimSpace(optionSearch))
	for _, opt := range g.Options {
		if g.Searchable && needle != "" &&
			!strings.Contains(strings.ToLower(opt.Label), needle) {
			continue
		}
		m.Options = append(m.Options, MenuOption{
			Label:  opt.Label,
			Value:  opt.Value,
			Count:  opt.Count,
			Active: contains(active, opt.Value),
		})
	}
	return m
}

// SortOption is one entry in the sort menu.
type SortOption struct {
	Label  string
	Value  string // "column:direction"
	Active bool
}

// Toolbar is the top-bar model: search box, sort menu, view toggle.
type Toolbar struct {
	Search     string
	Sort       []SortOption
	ViewMode   querystate.ViewMode
	TotalCount int
	ActiveTags int
}

// BuildToolbar assembles the toolbar from state plus the declared sort
// catalog (label + encoded value pairs).
func BuildToolbar(st querystate.State, groups []filter.Group, sorts []SortOption, totalCount int) Toolbar {
	tb := Toolbar{
		Search:     st.Search,
		ViewMode:   st.ViewMode,
		TotalCount: totalCount,
		ActiveTags: len(BuildActiveFilters(st, groups)),
	}
	for _, s := range sorts {
		s.Active = s.Value == st.Sort
		tb.Sort = append(tb.Sort, s)
	}
	return tb
}

// GridRows chunks items into rows of the given width for grid layout.
// List layout is the degenerate width-1 case.
func GridRows[T any](items []T, width int) [][]T {
	if width < 1 {
		width = 1
	}
	rows := make([][]T, 0, (len(items)+width-1)/width)
	for start := 0; start < len(items); start += width {
		end := min(start+width, len(items))
		rows = append(rows, items[start:end])
	}
	return rows
}

func optionLabel(g filter.Group, value string) string {
	for _, opt := range g.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
