package language

import (
	"bytes"
	"strconv"
	"strings"
)

// Node the AST node type
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents the node type statement
type Statement interface {
	Node
	statementNode()
}

// Condition represents a node of a WHERE clause
type Condition interface {
	Node
	conditionNode()
}

// Expression represents a value node
type Expression interface {
	Node
	expressionNode()
}

// Identifier entity or field name, dotted names are joined
type Identifier struct {
	Token Token // the first IDENT token
	Value string
}

func (i *Identifier) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }

func (i *Identifier) String() string { return i.Value }

// SortExpression one ORDER BY entry
type SortExpression struct {
	Token      Token // the field token
	Field      *Identifier
	Descending bool
}

// TokenLiteral returns the literal token of the node
func (s *SortExpression) TokenLiteral() string { return s.Token.Literal }

func (s *SortExpression) String() string {
	if s.Descending {
		return s.Field.String() + " DESC"
	}

	return s.Field.String() + " ASC"
}

// SelectStatement SELECT query
type SelectStatement struct {
	Token  Token // the SELECT token
	Fields []*Identifier
	Count  bool
	Entity *Identifier
	Where  Condition
	Sorts  []*SortExpression
	Skip   int64
	Limit  int64
}

func (s *SelectStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *SelectStatement) TokenLiteral() string { return s.Token.Literal }

func (s *SelectStatement) String() string {
	var out bytes.Buffer

	out.WriteString("SELECT ")

	switch {
	case s.Count:
		out.WriteString("count(*)")
	case len(s.Fields) == 0:
		out.WriteString("*")
	default:
		out.WriteString(joinNodes(identifiersToNodes(s.Fields), ", "))
	}

	out.WriteString(" FROM " + s.Entity.String())
	writeWhere(&out, s.Where)

	if len(s.Sorts) > 0 {
		sorts := make([]Node, 0, len(s.Sorts))
		for _, sort := range s.Sorts {
			sorts = append(sorts, sort)
		}

		out.WriteString(" ORDER BY " + joinNodes(sorts, ", "))
	}

	if s.Skip > 0 {
		out.WriteString(" SKIP " + strconv.FormatInt(s.Skip, 10))
	}

	if s.Limit > 0 {
		out.WriteString(" LIMIT " + strconv.FormatInt(s.Limit, 10))
	}

	return out.String()
}

// Assignment field = value entry of an insert or update
type Assignment struct {
	Token Token // the field token
	Field *Identifier
	Value Expression
}

// TokenLiteral returns the literal token of the node
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }

func (a *Assignment) String() string {
	return a.Field.String() + " = " + a.Value.String()
}

// InsertStatement INSERT with either assignments or a map literal
type InsertStatement struct {
	Token       Token // the INSERT token
	Entity      *Identifier
	Assignments []*Assignment
	Document    *MapLiteral
	TTL         *DurationLiteral
}

func (s *InsertStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *InsertStatement) TokenLiteral() string { return s.Token.Literal }

func (s *InsertStatement) String() string {
	var out bytes.Buffer

	out.WriteString("INSERT " + s.Entity.String() + " ")
	writeBody(&out, s.Assignments, s.Document)

	if s.TTL != nil {
		out.WriteString(" " + s.TTL.String())
	}

	return out.String()
}

// UpdateStatement UPDATE with either assignments or a map literal
type UpdateStatement struct {
	Token       Token // the UPDATE token
	Entity      *Identifier
	Assignments []*Assignment
	Document    *MapLiteral
	Where       Condition
}

func (s *UpdateStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *UpdateStatement) TokenLiteral() string { return s.Token.Literal }

func (s *UpdateStatement) String() string {
	var out bytes.Buffer

	out.WriteString("UPDATE " + s.Entity.String() + " ")
	writeBody(&out, s.Assignments, s.Document)
	writeWhere(&out, s.Where)

	return out.String()
}

// DeleteStatement DELETE of whole rows or of the listed fields
type DeleteStatement struct {
	Token  Token // the DELETE token
	Fields []*Identifier
	Entity *Identifier
	Where  Condition
}

func (s *DeleteStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *DeleteStatement) TokenLiteral() string { return s.Token.Literal }

func (s *DeleteStatement) String() string {
	var out bytes.Buffer

	out.WriteString("DELETE ")

	if len(s.Fields) > 0 {
		out.WriteString(joinNodes(identifiersToNodes(s.Fields), ", ") + " ")
	}

	out.WriteString("FROM " + s.Entity.String())
	writeWhere(&out, s.Where)

	return out.String()
}

// GetStatement key-value GET
type GetStatement struct {
	Token Token // the GET token
	Keys  []Expression
}

func (s *GetStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *GetStatement) TokenLiteral() string { return s.Token.Literal }

func (s *GetStatement) String() string {
	return "GET " + joinNodes(expressionsToNodes(s.Keys), ", ")
}

// PutStatement key-value PUT
type PutStatement struct {
	Token Token // the PUT token
	Key   Expression
	Value Expression
	TTL   *DurationLiteral
}

func (s *PutStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *PutStatement) TokenLiteral() string { return s.Token.Literal }

func (s *PutStatement) String() string {
	parts := []Node{s.Key, s.Value}
	if s.TTL != nil {
		parts = append(parts, s.TTL)
	}

	return "PUT {" + joinNodes(parts, ", ") + "}"
}

// DelStatement key-value DEL
type DelStatement struct {
	Token Token // the DEL token
	Keys  []Expression
}

func (s *DelStatement) statementNode() {}

// TokenLiteral returns the literal token of the node
func (s *DelStatement) TokenLiteral() string { return s.Token.Literal }

func (s *DelStatement) String() string {
	return "DEL " + joinNodes(expressionsToNodes(s.Keys), ", ")
}

// ComparisonCondition field operator value, operator being = > >= < <= or LIKE
type ComparisonCondition struct {
	Token    Token // the operator token
	Field    *Identifier
	Operator string
	Value    Expression
}

func (c *ComparisonCondition) conditionNode() {}

// TokenLiteral returns the literal token of the node
func (c *ComparisonCondition) TokenLiteral() string { return c.Token.Literal }

func (c *ComparisonCondition) String() string {
	return c.Field.String() + " " + c.Operator + " " + c.Value.String()
}

// BetweenCondition field BETWEEN low AND high
type BetweenCondition struct {
	Token Token // the BETWEEN token
	Field *Identifier
	Low   Expression
	High  Expression
}

func (c *BetweenCondition) conditionNode() {}

// TokenLiteral returns the literal token of the node
func (c *BetweenCondition) TokenLiteral() string { return c.Token.Literal }

func (c *BetweenCondition) String() string {
	return c.Field.String() + " BETWEEN " + c.Low.String() + " AND " + c.High.String()
}

// InCondition field IN (values...)
type InCondition struct {
	Token  Token // the IN token
	Field  *Identifier
	Values []Expression
}

func (c *InCondition) conditionNode() {}

// TokenLiteral returns the literal token of the node
func (c *InCondition) TokenLiteral() string { return c.Token.Literal }

func (c *InCondition) String() string {
	return c.Field.String() + " IN (" + joinNodes(expressionsToNodes(c.Values), ", ") + ")"
}

// NotCondition negated condition
type NotCondition struct {
	Token Token // the NOT token
	Right Condition
}

func (c *NotCondition) conditionNode() {}

// TokenLiteral returns the literal token of the node
func (c *NotCondition) TokenLiteral() string { return c.Token.Literal }

func (c *NotCondition) String() string {
	return "(NOT " + c.Right.String() + ")"
}

// LogicalCondition AND or OR over two or more conditions
type LogicalCondition struct {
	Token      Token // the first operator token
	Operator   TokenType
	Conditions []Condition
}

func (c *LogicalCondition) conditionNode() {}

// TokenLiteral returns the literal token of the node
func (c *LogicalCondition) TokenLiteral() string { return c.Token.Literal }

func (c *LogicalCondition) String() string {
	nodes := make([]Node, 0, len(c.Conditions))
	for _, cond := range c.Conditions {
		nodes = append(nodes, cond)
	}

	return "(" + joinNodes(nodes, " "+string(c.Operator)+" ") + ")"
}

// StringLiteral quoted text
type StringLiteral struct {
	Token Token
	Value string
}

func (s *StringLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }

func (s *StringLiteral) String() string { return strconv.Quote(s.Value) }

// NumberLiteral integer or decimal, kept as written
type NumberLiteral struct {
	Token Token
	Value string
}

func (n *NumberLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }

func (n *NumberLiteral) String() string { return n.Value }

// BooleanLiteral true or false
type BooleanLiteral struct {
	Token Token
	Value bool
}

func (b *BooleanLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }

func (b *BooleanLiteral) String() string { return strconv.FormatBool(b.Value) }

// ParameterExpression @name or :name
type ParameterExpression struct {
	Token Token
	Name  string
}

func (p *ParameterExpression) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (p *ParameterExpression) TokenLiteral() string { return p.Token.Literal }

func (p *ParameterExpression) String() string { return "@" + p.Name }

// EnumLiteral Type.MEMBER qualified name used as a value
type EnumLiteral struct {
	Token  Token
	Type   string
	Member string
}

func (e *EnumLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (e *EnumLiteral) TokenLiteral() string { return e.Token.Literal }

func (e *EnumLiteral) String() string { return e.Type + "." + e.Member }

// ListLiteral [a, b] or {a, b}
type ListLiteral struct {
	Token    Token
	Elements []Expression
}

func (l *ListLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (l *ListLiteral) TokenLiteral() string { return l.Token.Literal }

func (l *ListLiteral) String() string {
	return "[" + joinNodes(expressionsToNodes(l.Elements), ", ") + "]"
}

// MapEntry one "key": value entry of a map literal
type MapEntry struct {
	Token Token // the key token
	Key   string
	Value Expression
}

// MapLiteral JSON-like {"key": value, ...}, entries keep their order
type MapLiteral struct {
	Token   Token
	Entries []*MapEntry
}

func (m *MapLiteral) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (m *MapLiteral) TokenLiteral() string { return m.Token.Literal }

func (m *MapLiteral) String() string {
	parts := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		parts = append(parts, strconv.Quote(e.Key)+": "+e.Value.String())
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// ConvertExpression convert(value, type) coercion
type ConvertExpression struct {
	Token    Token // the convert token
	Value    Expression
	TypeName string
}

func (c *ConvertExpression) expressionNode() {}

// TokenLiteral returns the literal token of the node
func (c *ConvertExpression) TokenLiteral() string { return c.Token.Literal }

func (c *ConvertExpression) String() string {
	return "convert(" + c.Value.String() + ", " + c.TypeName + ")"
}

// DurationLiteral <amount> <unit> time to live
type DurationLiteral struct {
	Token  Token // the amount token
	Amount int64
	Unit   string
}

// TokenLiteral returns the literal token of the node
func (d *DurationLiteral) TokenLiteral() string { return d.Token.Literal }

func (d *DurationLiteral) String() string {
	return strconv.FormatInt(d.Amount, 10) + " " + d.Unit
}

func writeWhere(out *bytes.Buffer, where Condition) {
	if where != nil {
		out.WriteString(" WHERE " + where.String())
	}
}

func writeBody(out *bytes.Buffer, assignments []*Assignment, document *MapLiteral) {
	if document != nil {
		out.WriteString(document.String())
		return
	}

	nodes := make([]Node, 0, len(assignments))
	for _, a := range assignments {
		nodes = append(nodes, a)
	}

	out.WriteString("(" + joinNodes(nodes, ", ") + ")")
}

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}

	return strings.Join(parts, sep)
}

func identifiersToNodes(ids []*Identifier) []Node {
	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, id)
	}

	return nodes
}

func expressionsToNodes(exps []Expression) []Node {
	nodes := make([]Node, 0, len(exps))
	for _, e := range exps {
		nodes = append(nodes, e)
	}

	return nodes
}
