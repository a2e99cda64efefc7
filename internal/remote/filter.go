package remote

import "fmt"

// Op names a predicate operator understood by the remote server.
type Op string

const (
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"

	OpEq          Op = "eq"
	OpNeq         Op = "neq"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpContains    Op = "contains"
	OpNotContains Op = "notContains"
	OpStartsWith  Op = "startsWith"
	OpEndsWith    Op = "endsWith"
	OpIsNull      Op = "isNull"
	OpNotNull     Op = "notNull"
)

// Condition is a remote-evaluable predicate: either a leaf comparing
// one column against a value, or a boolean combination of children.
type Condition struct {
	Op       Op           `json:"op"`
	Column   string       `json:"column,omitempty"`
	Value    any          `json:"value,omitempty"`
	Children []*Condition `json:"children,omitempty"`
}

// And combines both conditions conjunctively. A nil receiver or
// argument returns the other side unwrapped.
func (c *Condition) And(o *Condition) *Condition {
	return combine(OpAnd, c, o)
}

// Or combines both conditions disjunctively. A nil receiver or
// argument returns the other side unwrapped.
func (c *Condition) Or(o *Condition) *Condition {
	return combine(OpOr, c, o)
}

// Not negates the condition.
func (c *Condition) Not() *Condition {
	if c == nil {
		return nil
	}
	return &Condition{Op: OpNot, Children: []*Condition{c}}
}

func combine(op Op, a, b *Condition) *Condition {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	// Fold into an existing node of the same operator to keep the
	// tree flat for left-to-right chains.
	if a.Op == op && a.Column == "" {
		a.Children = append(a.Children, b)
		return a
	}
	return &Condition{Op: op, Children: []*Condition{a, b}}
}

func (c *Condition) String() string {
	if c == nil {
		return "<none>"
	}
	if len(c.Children) > 0 {
		return fmt.Sprintf("(%s %v)", c.Op, c.Children)
	}
	return fmt.Sprintf("(%s %s %v)", c.Column, c.Op, c.Value)
}

// ColumnRef builds per-column leaf predicates keyed by operator.
type ColumnRef string

// Column returns a predicate builder for the named column.
func Column(name string) ColumnRef {
	return ColumnRef(name)
}

func (c ColumnRef) leaf(op Op, v any) *Condition {
	return &Condition{Op: op, Column: string(c), Value: v}
}

func (c ColumnRef) Eq(v any) *Condition          { return c.leaf(OpEq, v) }
func (c ColumnRef) Neq(v any) *Condition         { return c.leaf(OpNeq, v) }
func (c ColumnRef) Gt(v any) *Condition          { return c.leaf(OpGt, v) }
func (c ColumnRef) Gte(v any) *Condition         { return c.leaf(OpGte, v) }
func (c ColumnRef) Lt(v any) *Condition          { return c.leaf(OpLt, v) }
func (c ColumnRef) Lte(v any) *Condition         { return c.leaf(OpLte, v) }
func (c ColumnRef) Contains(v any) *Condition    { return c.leaf(OpContains, v) }
func (c ColumnRef) NotContains(v any) *Condition { return c.leaf(OpNotContains, v) }
func (c ColumnRef) StartsWith(v any) *Condition  { return c.leaf(OpStartsWith, v) }
func (c ColumnRef) EndsWith(v any) *Condition    { return c.leaf(OpEndsWith, v) }
func (c ColumnRef) IsNull() *Condition           { return c.leaf(OpIsNull, nil) }
func (c ColumnRef) NotNull() *Condition          { return c.leaf(OpNotNull, nil) }

// InRange builds an inclusive range predicate: col >= lo AND col <= hi.
func (c ColumnRef) InRange(lo, hi any) *Condition {
	return c.Gte(lo).And(c.Lte(hi))
}
