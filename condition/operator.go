package condition

// Operator identifies the comparison or logical connective of a Condition.
type Operator string

const (
	// EQ equal
	EQ Operator = "="
	// GT greater than
	GT Operator = ">"
	// GTE greater than or equal
	GTE Operator = ">="
	// LT less than
	LT Operator = "<"
	// LTE less than or equal
	LTE Operator = "<="
	// BETWEEN inclusive range with a two element list value
	BETWEEN Operator = "BETWEEN"
	// IN membership in a list value
	IN Operator = "IN"
	// LIKE pattern match, % any run and _ any single character
	LIKE Operator = "LIKE"
	// AND every child holds
	AND Operator = "AND"
	// OR any child holds
	OR Operator = "OR"
	// NOT the single child does not hold
	NOT Operator = "NOT"
)

// IsComposite reports whether the operator combines child conditions.
func (o Operator) IsComposite() bool {
	return o == AND || o == OR || o == NOT
}

// ReservedField is the fixed field name given to composite conditions.
func (o Operator) ReservedField() string {
	if !o.IsComposite() {
		return ""
	}

	return "_" + string(o)
}
