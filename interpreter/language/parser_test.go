package language

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/truora/miniql/types"
)

func parseStatement(t *testing.T, input string) Statement {
	t.Helper()

	p := NewParser(NewLexer(input))
	stmt := p.ParseStatement()
	checkParserErrors(t, p)

	return stmt
}

func parseKeyValueStatement(t *testing.T, input string) Statement {
	t.Helper()

	p := NewParser(NewLexer(input))
	stmt := p.ParseKeyValueStatement()
	checkParserErrors(t, p)

	return stmt
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()

	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("parser has %d errors", len(errors))

	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}

	t.FailNow()
}

func fieldNames(ids []*Identifier) []string {
	names := []string{}
	for _, id := range ids {
		names = append(names, id.Value)
	}

	return names
}

func TestParseSelectFields(t *testing.T) {
	c := require.New(t)

	stmt, ok := parseStatement(t, "select name, address from God").(*SelectStatement)
	c.True(ok)
	c.Equal([]string{"name", "address"}, fieldNames(stmt.Fields))
	c.Equal("God", stmt.Entity.Value)
	c.Nil(stmt.Where)
	c.Empty(stmt.Sorts)
	c.Zero(stmt.Skip)
	c.Zero(stmt.Limit)
	c.False(stmt.Count)
	c.Equal("SELECT name, address FROM God", stmt.String())
}

func TestParseSelectOrderBy(t *testing.T) {
	c := require.New(t)

	for _, input := range []string{
		"select * from God order by name desc age asc",
		"SELECT * FROM God ORDER BY name DESC, age",
	} {
		stmt := parseStatement(t, input).(*SelectStatement)
		c.Empty(stmt.Fields)
		c.Len(stmt.Sorts, 2)
		c.Equal("name", stmt.Sorts[0].Field.Value)
		c.True(stmt.Sorts[0].Descending)
		c.Equal("age", stmt.Sorts[1].Field.Value)
		c.False(stmt.Sorts[1].Descending)
	}
}

func TestParseSelectCountSkipLimit(t *testing.T) {
	c := require.New(t)

	stmt := parseStatement(t, "select count(*) from God where age > 5 skip 2 limit 10;").(*SelectStatement)
	c.True(stmt.Count)
	c.Empty(stmt.Fields)
	c.EqualValues(2, stmt.Skip)
	c.EqualValues(10, stmt.Limit)
	c.Equal("SELECT count(*) FROM God WHERE age > 5 SKIP 2 LIMIT 10", stmt.String())
}

func TestParseBetween(t *testing.T) {
	c := require.New(t)

	stmt := parseStatement(t, "select * from God where age between 10 and 30").(*SelectStatement)

	between, ok := stmt.Where.(*BetweenCondition)
	c.True(ok, "got %T", stmt.Where)
	c.Equal("age", between.Field.Value)
	c.Equal("10", between.Low.String())
	c.Equal("30", between.High.String())
}

func TestParseConditionPrecedence(t *testing.T) {
	tests := map[string]string{
		"a = 1 AND b = 2 OR c = 3":            "((a = 1 AND b = 2) OR c = 3)",
		"a = 1 OR b = 2 AND c = 3":            "(a = 1 OR (b = 2 AND c = 3))",
		"a = 1 AND (b = 2 OR c = 3)":          "(a = 1 AND (b = 2 OR c = 3))",
		"a = 1 AND b = 2 AND c = 3":           "(a = 1 AND b = 2 AND c = 3)",
		"NOT a = 1 AND b = 2":                 "((NOT a = 1) AND b = 2)",
		"NOT (a = 1 OR b = 2)":                "(NOT (a = 1 OR b = 2))",
		"name NOT LIKE 'Di%'":                 `(NOT name LIKE "Di%")`,
		"age NOT BETWEEN 1 AND 2":             "(NOT age BETWEEN 1 AND 2)",
		`name not in ("Diana", "Apollo")`:     `(NOT name IN ("Diana", "Apollo"))`,
		"address.city = @city":                "address.city = @city",
		"status = Status.ACTIVE":              "status = Status.ACTIVE",
		`born > convert("2020-01-01", date)`:  `born > convert("2020-01-01", date)`,
		`tags = {"a", "b"}`:                   `tags = ["a", "b"]`,
		`meta = {"k": [1, true], "j": :x}`:    `meta = {"k": [1, true], "j": @x}`,
		"name in ()":                          "name IN ()",
		"a >= -1.5 or a < 0 or a <= 2 or b = false": "(a >= -1.5 OR a < 0 OR a <= 2 OR b = false)",
	}

	for input, expected := range tests {
		stmt := parseStatement(t, "select * from God where "+input).(*SelectStatement)
		require.Equal(t, expected, stmt.Where.String(), input)
	}
}

func TestParseValues(t *testing.T) {
	c := require.New(t)

	stmt := parseStatement(t, `select * from God where status = app.Status.ACTIVE and born = convert(@born, date)`).(*SelectStatement)
	and := stmt.Where.(*LogicalCondition)
	c.Equal(AND, and.Operator)

	enum := and.Conditions[0].(*ComparisonCondition).Value.(*EnumLiteral)
	c.Equal("app.Status", enum.Type)
	c.Equal("ACTIVE", enum.Member)

	convert := and.Conditions[1].(*ComparisonCondition).Value.(*ConvertExpression)
	c.Equal("date", convert.TypeName)
	c.Equal("born", convert.Value.(*ParameterExpression).Name)
}

func TestParseInsert(t *testing.T) {
	c := require.New(t)

	stmt := parseStatement(t, `insert God (name = "Diana", age = 12) 10 hours`).(*InsertStatement)
	c.Equal("God", stmt.Entity.Value)
	c.Nil(stmt.Document)
	c.Len(stmt.Assignments, 2)
	c.Equal("name", stmt.Assignments[0].Field.Value)
	c.Equal(`"Diana"`, stmt.Assignments[0].Value.String())
	c.Equal(10*time.Hour, stmt.TTL.Duration())
	c.Equal(`INSERT God (name = "Diana", age = 12) 10 hours`, stmt.String())

	stmt = parseStatement(t, `INSERT God {"name": "Diana", "tags": ["hunt"], "age": 12}`).(*InsertStatement)
	c.Nil(stmt.Assignments)
	c.Nil(stmt.TTL)
	c.Len(stmt.Document.Entries, 3)
	c.Equal("name", stmt.Document.Entries[0].Key)
	c.Equal("tags", stmt.Document.Entries[1].Key)
	c.Equal("age", stmt.Document.Entries[2].Key)
}

func TestParseUpdateAndDelete(t *testing.T) {
	c := require.New(t)

	update := parseStatement(t, `update God (age = @age) where name = "Diana"`).(*UpdateStatement)
	c.Equal(`UPDATE God (age = @age) WHERE name = "Diana"`, update.String())

	update = parseStatement(t, `update God {"age": 13}`).(*UpdateStatement)
	c.NotNil(update.Document)
	c.Nil(update.Where)

	del := parseStatement(t, `delete from God where age > 10`).(*DeleteStatement)
	c.Empty(del.Fields)
	c.Equal("DELETE FROM God WHERE age > 10", del.String())

	del = parseStatement(t, `delete name, address.city from God`).(*DeleteStatement)
	c.Equal([]string{"name", "address.city"}, fieldNames(del.Fields))
	c.Nil(del.Where)
}

func TestParseKeyValue(t *testing.T) {
	c := require.New(t)

	get := parseKeyValueStatement(t, `get "Diana", @id, 12`).(*GetStatement)
	c.Len(get.Keys, 3)
	c.Equal(`GET "Diana", @id, 12`, get.String())

	del := parseKeyValueStatement(t, `del @id, @id2`).(*DelStatement)
	c.Len(del.Keys, 2)
	c.Equal("id", del.Keys[0].(*ParameterExpression).Name)
	c.Equal("id2", del.Keys[1].(*ParameterExpression).Name)

	put := parseKeyValueStatement(t, `put {"Diana", "Hunt"}`).(*PutStatement)
	c.Equal(`"Diana"`, put.Key.String())
	c.Equal(`"Hunt"`, put.Value.String())
	c.Nil(put.TTL)

	put = parseKeyValueStatement(t, `PUT {"Diana", "Hunt", 10 hour}`).(*PutStatement)
	c.Equal(10*time.Hour, put.TTL.Duration())
	c.Equal(`PUT {"Diana", "Hunt", 10 hour}`, put.String())

	put = parseKeyValueStatement(t, `put {@key, {"weapon": "bow"}, 1 day}`).(*PutStatement)
	c.IsType(&MapLiteral{}, put.Value)
	c.Equal(24*time.Hour, put.TTL.Duration())
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"drop God":                                `unexpected "drop" at position 0, expected SELECT, INSERT, UPDATE or DELETE`,
		"select * from":                           "unexpected end of input at position 13, expected a name",
		"select * from where":                     `unexpected keyword "where" at position 14, expected a name`,
		"select * from God where":                 "unexpected end of input at position 23, expected a condition",
		"select * from God where age = 1 extra":   `unexpected "extra" at position 32, expected end of input`,
		"select * from God where age between 10":  "unexpected end of input at position 38, expected AND",
		"select * from God where age = name":      `unexpected identifier "name" at position 30`,
		"select * from God where age = 1.2.3":     `malformed number "1.2.3" at position 30`,
		"select * from God limit -1":              "LIMIT expects a non-negative integer",
		"select * from God where (age = 1":        "expected )",
		`insert God (name = "Diana") 10 weeks`:    `unknown time unit "weeks"`,
		`insert God ["Diana"]`:                    `expected '(' or '{'`,
		`insert God {"Diana"}`:                    "expected a map literal",
		"update God where age = 1":                `expected '(' or '{'`,
		"select * from God where name like":       "expected a value",
		"select * from God where name not = 1":    "expected LIKE, IN or BETWEEN after NOT",
	}

	for input, message := range tests {
		_, err := Parse(input)
		require.ErrorIs(t, err, types.ErrSyntax, input)
		require.Contains(t, err.Error(), message, input)
	}

	keyValue := map[string]string{
		"get":                   "unexpected end of input at position 3, expected a value",
		`put {"Diana"}`:         "expected ,",
		`put {"Diana", "Hunt",}`: "expected a number",
		"select * from God":     "expected GET, PUT or DEL",
	}

	for input, message := range keyValue {
		_, err := ParseKeyValue(input)
		require.ErrorIs(t, err, types.ErrSyntax, input)
		require.Contains(t, err.Error(), message, input)
	}
}
