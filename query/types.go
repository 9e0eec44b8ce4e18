package query

import "strings"

// Request is the compiled backend request. It is backend-agnostic: the
// source adapters translate it into their native form (the SQL adapter
// renders parameterized SQL, a custom fetcher may inspect it directly).
//
// Predicates in Where are a conjunction. Order nil means the backend's
// default ordering applies.
type Request struct {
	Table   string
	Columns []string // empty = all columns
	Where   []Predicate
	Order   *Order
	Range   Range
}

// Predicate represents one filter condition.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend adapters.
type Predicate interface {
	predicateNode()
}

// Cmp is a scalar comparison: column <op> value.
// Op is one of =, <>, >, >=, <, <=.
type Cmp struct {
	Column string
	Op     string
	Value  any
}

func (Cmp) predicateNode() {}

// Match is a pattern match. CaseSensitive false compiles to the
// backend's case-insensitive partial match (ILIKE or equivalent).
type Match struct {
	Column        string
	Pattern       string
	CaseSensitive bool
}

func (Match) predicateNode() {}

// In is a set membership test: column IN (values...).
type In struct {
	Column string
	Values []any
}

func (In) predicateNode() {}

// Contains matches rows whose column contains every element of Value
// (array/JSON containment on backends that support it).
type Contains struct {
	Column string
	Value  any
}

func (Contains) predicateNode() {}

// Is compares against a non-scalar marker value (NULL, TRUE, FALSE).
type Is struct {
	Column string
	Value  any
}

func (Is) predicateNode() {}

// Or is a disjunction of predicates.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Order is a single ordering directive.
type Order struct {
	Column     string
	Descending bool
}

// Range is an inclusive row window [From, To].
type Range struct {
	From int
	To   int
}

// ParseOrder decodes a "column:direction" sort string. Any direction
// other than the literal "desc" is ascending. Empty input returns nil.
func ParseOrder(sort string) *Order {
	if sort == "" {
		return nil
	}
	column, direction, _ := strings.Cut(sort, ":")
	if column == "" {
		return nil
	}
	return &Order{Column: column, Descending: direction == "desc"}
}

// EncodeOrder is the inverse of ParseOrder.
func EncodeOrder(o *Order) string {
	if o == nil {
		return ""
	}
	if o.Descending {
		return o.Column + ":desc"
	}
	return o.Column + ":asc"
}
