// Package filter defines the declarative filter vocabulary shared by the
// state store, the query compiler, and the display primitives: filter
// groups (what the user can pick), and column mappings (how a picked
// value becomes a backend predicate).
package filter

// Mode controls how many values a group may hold at once.
type Mode string

const (
	// ModeSingle allows at most one active value per group. Selecting a
	// value replaces the previous one.
	ModeSingle Mode = "single"
	// ModeMultiple allows any subset of the group's option values.
	ModeMultiple Mode = "multiple"
)

// Operator is a column-level predicate operator. The set mirrors what
// hosted relational-query services expose on their filter builders.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpLike     Operator = "like"
	OpILike    Operator = "ilike"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
	OpIs       Operator = "is"
)

// Known reports whether op is a supported operator. Unknown operators
// are skipped by the compiler rather than raised (lenient policy).
func (op Operator) Known() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
		OpLike, OpILike, OpIn, OpContains, OpIs:
		return true
	}
	return false
}

// Option is a selectable value within a group. Count, when present,
// is the number of records matching the option (shown as a badge).
type Option struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	Count int    `yaml:"count,omitempty"`
}

// Group declares one logical filter: its identity, its options, and how
// selections behave.
type Group struct {
	// ID uniquely identifies the group. It doubles as the URL parameter
	// name (under the provider's namespace) and the mapping key.
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Mode    Mode     `yaml:"mode"`
	Options []Option `yaml:"options"`

	// Searchable groups get a client-side option search box.
	Searchable bool `yaml:"searchable,omitempty"`

	// DefaultValue is applied when the URL carries no parameter for
	// this group.
	DefaultValue string `yaml:"default,omitempty"`
}

// TransformFunc converts raw selected values before they are handed to
// set-style operators (in, contains, is). Scalar operators always use
// the raw first value.
type TransformFunc func(values []string) any

// ColumnMapping binds a logical filter ID to a physical column and
// operator. Active filters without a mapping are silently ignored.
type ColumnMapping struct {
	FilterID  string
	Column    string
	Operator  Operator
	Transform TransformFunc
}
