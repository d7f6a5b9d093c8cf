package language

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/truora/miniql/types"
)

var durationUnits = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

var comparators = map[TokenType]bool{
	EQ:   true,
	GT:   true,
	GTE:  true,
	LT:   true,
	LTE:  true,
	LIKE: true,
}

// Parser represent the query language parser, a recursive descent parser
// where every production starts on its first token and stops on its last one
type Parser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a new parser
func NewParser(l *Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses a SELECT, INSERT, UPDATE or DELETE statement
func Parse(input string) (Statement, error) {
	p := NewParser(NewLexer(input))

	stmt := p.ParseStatement()
	if err := p.Err(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// ParseKeyValue parses a GET, PUT or DEL statement
func ParseKeyValue(input string) (Statement, error) {
	p := NewParser(NewLexer(input))

	stmt := p.ParseKeyValueStatement()
	if err := p.Err(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// Errors returns the errors found while parsing
func (p *Parser) Errors() []string {
	return p.errors
}

// Err returns the parsing errors as a single syntax error, nil when there are none
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}

	return types.NewSyntaxError("%s", strings.Join(p.errors, "; "))
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseStatement parses a document statement followed by an optional ';'
func (p *Parser) ParseStatement() Statement {
	var stmt Statement

	switch p.curToken.Type {
	case SELECT:
		stmt = p.parseSelectStatement()
	case INSERT:
		stmt = p.parseInsertStatement()
	case UPDATE:
		stmt = p.parseUpdateStatement()
	case DELETE:
		stmt = p.parseDeleteStatement()
	default:
		p.unexpected(p.curToken, "SELECT, INSERT, UPDATE or DELETE")
	}

	return p.finish(stmt)
}

// ParseKeyValueStatement parses a key-value statement followed by an optional ';'
func (p *Parser) ParseKeyValueStatement() Statement {
	var stmt Statement

	switch p.curToken.Type {
	case GET:
		stmt = p.parseGetStatement()
	case PUT:
		stmt = p.parsePutStatement()
	case DEL:
		stmt = p.parseDelStatement()
	default:
		p.unexpected(p.curToken, "GET, PUT or DEL")
	}

	return p.finish(stmt)
}

func (p *Parser) finish(stmt Statement) Statement {
	if len(p.errors) > 0 {
		return nil
	}

	if p.peekTokenIs(SEMICOLON) {
		p.nextToken()
	}

	if !p.expectPeek(EOF) {
		return nil
	}

	return stmt
}

//gocyclo:ignore
func (p *Parser) parseSelectStatement() Statement {
	stmt := &SelectStatement{Token: p.curToken}

	p.nextToken()

	switch {
	case p.curTokenIs(ASTERISK):
	case p.curTokenIs(IDENT) && strings.EqualFold(p.curToken.Literal, "count") && p.peekTokenIs(LPAREN):
		if !p.expectPeek(LPAREN) || !p.expectPeek(ASTERISK) || !p.expectPeek(RPAREN) {
			return nil
		}

		stmt.Count = true
	default:
		fields, ok := p.parseFieldList()
		if !ok {
			return nil
		}

		stmt.Fields = fields
	}

	if !p.expectPeek(FROM) || !p.expectPeek(IDENT) {
		return nil
	}

	stmt.Entity = p.parseField()

	if p.peekTokenIs(WHERE) {
		if stmt.Where = p.parseWhere(); stmt.Where == nil {
			return nil
		}
	}

	if p.peekTokenIs(ORDER) {
		p.nextToken()

		if !p.expectPeek(BY) || !p.expectPeek(IDENT) {
			return nil
		}

		stmt.Sorts = p.parseSortList()
	}

	if p.peekTokenIs(SKIP) {
		p.nextToken()

		skip, ok := p.parseCount("SKIP")
		if !ok {
			return nil
		}

		stmt.Skip = skip
	}

	if p.peekTokenIs(LIMIT) {
		p.nextToken()

		limit, ok := p.parseCount("LIMIT")
		if !ok {
			return nil
		}

		stmt.Limit = limit
	}

	return stmt
}

func (p *Parser) parseInsertStatement() Statement {
	stmt := &InsertStatement{Token: p.curToken}

	if !p.expectPeek(IDENT) {
		return nil
	}

	stmt.Entity = p.parseField()

	assignments, document, ok := p.parseBody()
	if !ok {
		return nil
	}

	stmt.Assignments = assignments
	stmt.Document = document

	if p.peekTokenIs(NUMBER) {
		p.nextToken()

		if stmt.TTL = p.parseDuration(); stmt.TTL == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseUpdateStatement() Statement {
	stmt := &UpdateStatement{Token: p.curToken}

	if !p.expectPeek(IDENT) {
		return nil
	}

	stmt.Entity = p.parseField()

	assignments, document, ok := p.parseBody()
	if !ok {
		return nil
	}

	stmt.Assignments = assignments
	stmt.Document = document

	if p.peekTokenIs(WHERE) {
		if stmt.Where = p.parseWhere(); stmt.Where == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseDeleteStatement() Statement {
	stmt := &DeleteStatement{Token: p.curToken}

	if !p.peekTokenIs(FROM) {
		if !p.expectPeek(IDENT) {
			return nil
		}

		fields, ok := p.parseFieldList()
		if !ok {
			return nil
		}

		stmt.Fields = fields
	}

	if !p.expectPeek(FROM) || !p.expectPeek(IDENT) {
		return nil
	}

	stmt.Entity = p.parseField()

	if p.peekTokenIs(WHERE) {
		if stmt.Where = p.parseWhere(); stmt.Where == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseGetStatement() Statement {
	stmt := &GetStatement{Token: p.curToken}

	p.nextToken()

	keys, ok := p.parseValueSequence()
	if !ok {
		return nil
	}

	stmt.Keys = keys

	return stmt
}

func (p *Parser) parseDelStatement() Statement {
	stmt := &DelStatement{Token: p.curToken}

	p.nextToken()

	keys, ok := p.parseValueSequence()
	if !ok {
		return nil
	}

	stmt.Keys = keys

	return stmt
}

func (p *Parser) parsePutStatement() Statement {
	stmt := &PutStatement{Token: p.curToken}

	if !p.expectPeek(LBRACE) {
		return nil
	}

	p.nextToken()

	if stmt.Key = p.parseValue(); stmt.Key == nil {
		return nil
	}

	if !p.expectPeek(COMMA) {
		return nil
	}

	p.nextToken()

	if stmt.Value = p.parseValue(); stmt.Value == nil {
		return nil
	}

	if p.peekTokenIs(COMMA) {
		p.nextToken()

		if !p.expectPeek(NUMBER) {
			return nil
		}

		if stmt.TTL = p.parseDuration(); stmt.TTL == nil {
			return nil
		}
	}

	if !p.expectPeek(RBRACE) {
		return nil
	}

	return stmt
}

// parseBody parses '(' field = value, ... ')' or a map literal
func (p *Parser) parseBody() ([]*Assignment, *MapLiteral, bool) {
	switch p.peekToken.Type {
	case LPAREN:
		p.nextToken()

		assignments, ok := p.parseAssignments()

		return assignments, nil, ok
	case LBRACE:
		p.nextToken()

		pos := p.curToken.Pos

		value := p.parseValue()
		if value == nil {
			return nil, nil, false
		}

		document, ok := value.(*MapLiteral)
		if !ok {
			p.addError("expected a map literal at position %d, got a list", pos)

			return nil, nil, false
		}

		return nil, document, true
	}

	p.unexpected(p.peekToken, "'(' or '{'")

	return nil, nil, false
}

func (p *Parser) parseAssignments() ([]*Assignment, bool) {
	assignments := []*Assignment{}

	for {
		if !p.expectPeek(IDENT) {
			return nil, false
		}

		assignment := &Assignment{Token: p.curToken, Field: p.parseField()}

		if !p.expectPeek(EQ) {
			return nil, false
		}

		p.nextToken()

		if assignment.Value = p.parseValue(); assignment.Value == nil {
			return nil, false
		}

		assignments = append(assignments, assignment)

		if !p.peekTokenIs(COMMA) {
			break
		}

		p.nextToken()
	}

	if !p.expectPeek(RPAREN) {
		return nil, false
	}

	return assignments, true
}

func (p *Parser) parseWhere() Condition {
	p.nextToken() // WHERE
	p.nextToken()

	return p.parseCondition()
}

func (p *Parser) parseCondition() Condition {
	return p.parseLogical(OR, p.parseAndCondition)
}

func (p *Parser) parseAndCondition() Condition {
	return p.parseLogical(AND, p.parsePrimaryCondition)
}

func (p *Parser) parseLogical(op TokenType, operand func() Condition) Condition {
	first := operand()
	if first == nil {
		return nil
	}

	if !p.peekTokenIs(op) {
		return first
	}

	logical := &LogicalCondition{Token: p.peekToken, Operator: op, Conditions: []Condition{first}}

	for p.peekTokenIs(op) {
		p.nextToken()
		p.nextToken()

		next := operand()
		if next == nil {
			return nil
		}

		logical.Conditions = append(logical.Conditions, next)
	}

	return logical
}

func (p *Parser) parsePrimaryCondition() Condition {
	switch p.curToken.Type {
	case NOT:
		tok := p.curToken
		p.nextToken()

		right := p.parsePrimaryCondition()
		if right == nil {
			return nil
		}

		return &NotCondition{Token: tok, Right: right}
	case LPAREN:
		p.nextToken()

		cond := p.parseCondition()
		if cond == nil || !p.expectPeek(RPAREN) {
			return nil
		}

		return cond
	case IDENT:
		return p.parsePredicate()
	}

	p.unexpected(p.curToken, "a condition")

	return nil
}

func (p *Parser) parsePredicate() Condition {
	field := p.parseField()

	p.nextToken()

	if !p.curTokenIs(NOT) {
		return p.parseOperation(field)
	}

	tok := p.curToken

	if !p.peekTokenIs(LIKE) && !p.peekTokenIs(IN) && !p.peekTokenIs(BETWEEN) {
		p.unexpected(p.peekToken, "LIKE, IN or BETWEEN after NOT")

		return nil
	}

	p.nextToken()

	positive := p.parseOperation(field)
	if positive == nil {
		return nil
	}

	return &NotCondition{Token: tok, Right: positive}
}

func (p *Parser) parseOperation(field *Identifier) Condition {
	tok := p.curToken

	switch {
	case comparators[tok.Type]:
		p.nextToken()

		value := p.parseValue()
		if value == nil {
			return nil
		}

		return &ComparisonCondition{Token: tok, Field: field, Operator: string(tok.Type), Value: value}
	case tok.Type == BETWEEN:
		p.nextToken()

		low := p.parseValue()
		if low == nil || !p.expectPeek(AND) {
			return nil
		}

		p.nextToken()

		high := p.parseValue()
		if high == nil {
			return nil
		}

		return &BetweenCondition{Token: tok, Field: field, Low: low, High: high}
	case tok.Type == IN:
		if !p.expectPeek(LPAREN) {
			return nil
		}

		values, ok := p.parseValueList(RPAREN)
		if !ok {
			return nil
		}

		return &InCondition{Token: tok, Field: field, Values: values}
	}

	p.unexpected(tok, "a comparison operator")

	return nil
}

//gocyclo:ignore
func (p *Parser) parseValue() Expression {
	tok := p.curToken

	switch tok.Type {
	case STRING:
		return &StringLiteral{Token: tok, Value: tok.Literal}
	case NUMBER:
		return &NumberLiteral{Token: tok, Value: tok.Literal}
	case BOOLEAN:
		return &BooleanLiteral{Token: tok, Value: strings.EqualFold(tok.Literal, "true")}
	case PARAM:
		return &ParameterExpression{Token: tok, Name: tok.Literal}
	case LBRACKET:
		values, ok := p.parseValueList(RBRACKET)
		if !ok {
			return nil
		}

		return &ListLiteral{Token: tok, Elements: values}
	case LBRACE:
		return p.parseBraceLiteral()
	case IDENT:
		if strings.EqualFold(tok.Literal, "convert") && p.peekTokenIs(LPAREN) {
			return p.parseConvert()
		}

		if p.peekTokenIs(DOT) {
			return p.parseEnum()
		}

		p.addError("unexpected identifier %q at position %d, expected a literal or a parameter", tok.Literal, tok.Pos)

		return nil
	}

	p.unexpected(tok, "a value")

	return nil
}

// parseBraceLiteral parses {"k": v, ...} as a map and {v, ...} as a list
func (p *Parser) parseBraceLiteral() Expression {
	tok := p.curToken

	if p.peekTokenIs(RBRACE) {
		p.nextToken()

		return &MapLiteral{Token: tok, Entries: []*MapEntry{}}
	}

	p.nextToken()

	first := p.parseValue()
	if first == nil {
		return nil
	}

	key, isString := first.(*StringLiteral)
	if !isString || !p.peekTokenIs(COLON) {
		elements := []Expression{first}

		for p.peekTokenIs(COMMA) {
			p.nextToken()
			p.nextToken()

			next := p.parseValue()
			if next == nil {
				return nil
			}

			elements = append(elements, next)
		}

		if !p.expectPeek(RBRACE) {
			return nil
		}

		return &ListLiteral{Token: tok, Elements: elements}
	}

	m := &MapLiteral{Token: tok}

	for {
		if !p.expectPeek(COLON) {
			return nil
		}

		p.nextToken()

		value := p.parseValue()
		if value == nil {
			return nil
		}

		m.Entries = append(m.Entries, &MapEntry{Token: key.Token, Key: key.Value, Value: value})

		if !p.peekTokenIs(COMMA) {
			break
		}

		p.nextToken()

		if !p.expectPeek(STRING) {
			return nil
		}

		key = &StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	}

	if !p.expectPeek(RBRACE) {
		return nil
	}

	return m
}

func (p *Parser) parseConvert() Expression {
	exp := &ConvertExpression{Token: p.curToken}

	p.nextToken() // (
	p.nextToken()

	if exp.Value = p.parseValue(); exp.Value == nil {
		return nil
	}

	if !p.expectPeek(COMMA) || !p.expectPeek(IDENT) {
		return nil
	}

	exp.TypeName = p.parseField().Value

	if !p.expectPeek(RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseEnum() Expression {
	tok := p.curToken
	name := p.parseField().Value

	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return nil
	}

	return &EnumLiteral{Token: tok, Type: name[:idx], Member: name[idx+1:]}
}

// parseValueList parses values up to the closing token, the current token
// being the opening one
func (p *Parser) parseValueList(end TokenType) ([]Expression, bool) {
	if p.peekTokenIs(end) {
		p.nextToken()

		return []Expression{}, true
	}

	p.nextToken()

	values, ok := p.parseValueSequence()
	if !ok || !p.expectPeek(end) {
		return nil, false
	}

	return values, true
}

func (p *Parser) parseValueSequence() ([]Expression, bool) {
	first := p.parseValue()
	if first == nil {
		return nil, false
	}

	values := []Expression{first}

	for p.peekTokenIs(COMMA) {
		p.nextToken()
		p.nextToken()

		next := p.parseValue()
		if next == nil {
			return nil, false
		}

		values = append(values, next)
	}

	return values, true
}

// parseField parses a possibly dotted name like address.city
func (p *Parser) parseField() *Identifier {
	ident := &Identifier{Token: p.curToken, Value: p.curToken.Literal}

	for p.peekTokenIs(DOT) {
		p.nextToken()

		if !p.expectPeek(IDENT) {
			return ident
		}

		ident.Value += "." + p.curToken.Literal
	}

	return ident
}

func (p *Parser) parseFieldList() ([]*Identifier, bool) {
	if !p.curTokenIs(IDENT) {
		p.unexpected(p.curToken, "a field name")

		return nil, false
	}

	fields := []*Identifier{p.parseField()}

	for p.peekTokenIs(COMMA) {
		p.nextToken()

		if !p.expectPeek(IDENT) {
			return nil, false
		}

		fields = append(fields, p.parseField())
	}

	return fields, len(p.errors) == 0
}

// parseSortList parses field [ASC|DESC] entries, commas between them are optional
func (p *Parser) parseSortList() []*SortExpression {
	sorts := []*SortExpression{}

	for {
		sort := &SortExpression{Token: p.curToken, Field: p.parseField()}

		switch {
		case p.peekTokenIs(DESC):
			p.nextToken()

			sort.Descending = true
		case p.peekTokenIs(ASC):
			p.nextToken()
		}

		sorts = append(sorts, sort)

		switch {
		case p.peekTokenIs(COMMA):
			p.nextToken()

			if !p.expectPeek(IDENT) {
				return sorts
			}
		case p.peekTokenIs(IDENT):
			p.nextToken()
		default:
			return sorts
		}
	}
}

func (p *Parser) parseCount(clause string) (int64, bool) {
	if !p.expectPeek(NUMBER) {
		return 0, false
	}

	n, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil || n < 0 {
		p.addError("%s expects a non-negative integer at position %d, got %q", clause, p.curToken.Pos, p.curToken.Literal)

		return 0, false
	}

	return n, true
}

func (p *Parser) parseDuration() *DurationLiteral {
	tok := p.curToken

	amount, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil || amount < 0 {
		p.addError("time to live expects a non-negative integer at position %d, got %q", tok.Pos, tok.Literal)

		return nil
	}

	if !p.expectPeek(IDENT) {
		return nil
	}

	unit := strings.ToLower(p.curToken.Literal)
	if _, ok := durationUnits[unit]; !ok {
		p.addError("unknown time unit %q at position %d, expected second, minute, hour or day", p.curToken.Literal, p.curToken.Pos)

		return nil
	}

	return &DurationLiteral{Token: tok, Amount: amount, Unit: unit}
}

// Duration returns the time to live as a time.Duration
func (d *DurationLiteral) Duration() time.Duration {
	return time.Duration(d.Amount) * durationUnits[d.Unit]
}

// helpers

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t TokenType) bool {
	if !p.peekTokenIs(t) {
		p.peekError(t)

		return false
	}

	p.nextToken()

	return true
}

func (p *Parser) peekError(t TokenType) {
	expected := string(t)

	switch t {
	case EOF:
		expected = "end of input"
	case IDENT:
		expected = "a name"
	case NUMBER:
		expected = "a number"
	case STRING:
		expected = "a string"
	}

	p.unexpected(p.peekToken, expected)
}

func (p *Parser) unexpected(tok Token, expected string) {
	if tok.Type == ILLEGAL {
		p.addError("%s at position %d", tok.Literal, tok.Pos)

		return
	}

	p.addError("unexpected %s at position %d, expected %s", describe(tok), tok.Pos, expected)
}

func (p *Parser) addError(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of input"
	case STRING:
		return "string " + strconv.Quote(tok.Literal)
	}

	if tok.Type.IsKeyword() {
		return "keyword " + strconv.Quote(tok.Literal)
	}

	return strconv.Quote(tok.Literal)
}
