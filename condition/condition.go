package condition

import (
	"fmt"
	"strings"

	"github.com/truora/miniql/types"
)

// Condition is a node of the immutable filter tree. Leaves compare a field
// with a value; AND and OR hold two or more children and NOT holds exactly
// one. Combining conditions always returns new values.
type Condition struct {
	field    string
	operator Operator
	value    types.Value
	children []Condition
}

func leaf(field string, op Operator, value types.Value) Condition {
	return Condition{field: field, operator: op, value: value}
}

// Eq builds field = value.
func Eq(field string, value types.Value) Condition {
	return leaf(field, EQ, value)
}

// Gt builds field > value.
func Gt(field string, value types.Value) Condition {
	return leaf(field, GT, value)
}

// Gte builds field >= value.
func Gte(field string, value types.Value) Condition {
	return leaf(field, GTE, value)
}

// Lt builds field < value.
func Lt(field string, value types.Value) Condition {
	return leaf(field, LT, value)
}

// Lte builds field <= value.
func Lte(field string, value types.Value) Condition {
	return leaf(field, LTE, value)
}

// Like builds field LIKE pattern.
func Like(field string, pattern types.Value) Condition {
	return leaf(field, LIKE, pattern)
}

// In builds field IN (values...). The value must be a list.
func In(field string, values types.Value) (Condition, error) {
	if values.Kind() != types.KindList {
		return Condition{}, types.NewInvalidArgumentError("IN on %q expects a list, got %s", field, values.Kind())
	}

	return leaf(field, IN, values), nil
}

// Between builds field BETWEEN low AND high from a two element list.
func Between(field string, bounds types.Value) (Condition, error) {
	if bounds.Kind() != types.KindList || bounds.Len() != 2 {
		return Condition{}, types.NewInvalidArgumentError(
			"BETWEEN on %q expects a list of exactly 2 elements, got %s", field, describeArity(bounds))
	}

	return leaf(field, BETWEEN, bounds), nil
}

func describeArity(v types.Value) string {
	if v.Kind() != types.KindList {
		return v.Kind().String()
	}

	return fmt.Sprintf("%d elements", v.Len())
}

// And combines the conditions with AND, flattening into the first one when it
// is already an AND.
func And(first Condition, rest ...Condition) Condition {
	return first.And(rest...)
}

// Or combines the conditions with OR, flattening into the first one when it
// is already an OR.
func Or(first Condition, rest ...Condition) Condition {
	return first.Or(rest...)
}

// Not negates c.
func Not(c Condition) Condition {
	return c.Negate()
}

// And returns c AND others. When c is an AND the others are appended to its
// children, so chained calls build one flat node.
func (c Condition) And(others ...Condition) Condition {
	return c.combine(AND, others)
}

// Or returns c OR others, flattening like And.
func (c Condition) Or(others ...Condition) Condition {
	return c.combine(OR, others)
}

func (c Condition) combine(op Operator, others []Condition) Condition {
	if len(others) == 0 {
		return c
	}

	var children []Condition

	if c.operator == op {
		children = make([]Condition, 0, len(c.children)+len(others))
		children = append(children, c.children...)
	} else {
		children = make([]Condition, 0, len(others)+1)
		children = append(children, c)
	}

	children = append(children, others...)

	return Condition{field: op.ReservedField(), operator: op, children: children}
}

// Negate returns NOT c, unwrapping instead when c is already a negation.
func (c Condition) Negate() Condition {
	if c.operator == NOT {
		return c.children[0]
	}

	return Condition{field: NOT.ReservedField(), operator: NOT, children: []Condition{c}}
}

// Field returns the compared field, or the reserved name of a composite.
func (c Condition) Field() string {
	return c.field
}

// Operator returns the operator of the condition.
func (c Condition) Operator() Operator {
	return c.operator
}

// Value returns the compared value of a leaf condition.
func (c Condition) Value() types.Value {
	return c.value
}

// Children returns a copy of the children of a composite condition.
func (c Condition) Children() []Condition {
	return append([]Condition{}, c.children...)
}

// IsZero reports whether c is the zero Condition.
func (c Condition) IsZero() bool {
	return c.operator == ""
}

// HasParams reports whether any value in the tree is an unbound parameter.
func (c Condition) HasParams() bool {
	if c.value.HasParams() {
		return true
	}

	for _, child := range c.children {
		if child.HasParams() {
			return true
		}
	}

	return false
}

// Replace rebuilds the tree substituting every parameter with fn's result.
// BETWEEN and IN arity are validated again on the rebuilt leaves.
func (c Condition) Replace(fn func(types.Value) (types.Value, error)) (Condition, error) {
	if c.operator.IsComposite() {
		children := make([]Condition, 0, len(c.children))

		for _, child := range c.children {
			r, err := child.Replace(fn)
			if err != nil {
				return Condition{}, err
			}

			children = append(children, r)
		}

		return Condition{field: c.field, operator: c.operator, children: children}, nil
	}

	value, err := c.value.Replace(fn)
	if err != nil {
		return Condition{}, err
	}

	switch c.operator {
	case BETWEEN:
		return Between(c.field, value)
	case IN:
		return In(c.field, value)
	}

	return leaf(c.field, c.operator, value), nil
}

// Walk visits c and every descendant in depth-first order.
func (c Condition) Walk(fn func(Condition)) {
	fn(c)

	for _, child := range c.children {
		child.Walk(fn)
	}
}

// Equal reports structural equality: same field, operator, value and
// children in the same order.
func (c Condition) Equal(other Condition) bool {
	if c.field != other.field || c.operator != other.operator || len(c.children) != len(other.children) {
		return false
	}

	if !types.Equal(c.value, other.value) {
		return false
	}

	for i := range c.children {
		if !c.children[i].Equal(other.children[i]) {
			return false
		}
	}

	return true
}

// String renders the condition with the query syntax.
func (c Condition) String() string {
	switch c.operator {
	case "":
		return ""
	case AND, OR:
		parts := make([]string, 0, len(c.children))
		for _, child := range c.children {
			parts = append(parts, child.String())
		}

		return "(" + strings.Join(parts, " "+string(c.operator)+" ") + ")"
	case NOT:
		return "NOT " + c.children[0].String()
	case BETWEEN:
		bounds := c.value.Elements()

		return c.field + " BETWEEN " + bounds[0].String() + " AND " + bounds[1].String()
	case IN:
		parts := []string{}
		for _, e := range c.value.Elements() {
			parts = append(parts, e.String())
		}

		return c.field + " IN (" + strings.Join(parts, ", ") + ")"
	}

	return c.field + " " + string(c.operator) + " " + c.value.String()
}
