package dynamo

import (
	"fmt"
	"strings"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/types"
)

var comparisons = map[condition.Operator]string{
	condition.EQ:  "=",
	condition.GT:  ">",
	condition.GTE: ">=",
	condition.LT:  "<",
	condition.LTE: "<=",
}

// expression collects the attribute names and values referenced by the
// rendered expressions of one request
type expression struct {
	names   map[string]string
	values  map[string]ddbtypes.AttributeValue
	aliases map[string]string
}

func newExpression() *expression {
	return &expression{
		names:   map[string]string{},
		values:  map[string]ddbtypes.AttributeValue{},
		aliases: map[string]string{},
	}
}

// name returns the placeholder path of a possibly dotted field
func (e *expression) name(field string) string {
	parts := strings.Split(field, ".")

	for i, part := range parts {
		alias, ok := e.aliases[part]
		if !ok {
			alias = fmt.Sprintf("#n%d", len(e.aliases))
			e.aliases[part] = alias
			e.names[alias] = part
		}

		parts[i] = alias
	}

	return strings.Join(parts, ".")
}

func (e *expression) value(v types.Value) (string, error) {
	av, err := toAttributeValue(v)
	if err != nil {
		return "", err
	}

	placeholder := fmt.Sprintf(":v%d", len(e.values))
	e.values[placeholder] = av

	return placeholder, nil
}

// attributeNames returns nil when no name was used, the SDK rejects empty maps
func (e *expression) attributeNames() map[string]string {
	if len(e.names) == 0 {
		return nil
	}

	return e.names
}

func (e *expression) attributeValues() map[string]ddbtypes.AttributeValue {
	if len(e.values) == 0 {
		return nil
	}

	return e.values
}

// condition renders a condition as a DynamoDB filter expression
//
//gocyclo:ignore
func (e *expression) condition(c condition.Condition) (string, error) {
	switch c.Operator() {
	case condition.AND, condition.OR:
		parts := make([]string, 0, len(c.Children()))

		for _, child := range c.Children() {
			part, err := e.condition(child)
			if err != nil {
				return "", err
			}

			parts = append(parts, part)
		}

		return "(" + strings.Join(parts, " "+string(c.Operator())+" ") + ")", nil
	case condition.NOT:
		part, err := e.condition(c.Children()[0])
		if err != nil {
			return "", err
		}

		return "(NOT " + part + ")", nil
	case condition.BETWEEN:
		bounds := c.Value().Elements()

		low, err := e.value(bounds[0])
		if err != nil {
			return "", err
		}

		high, err := e.value(bounds[1])
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s BETWEEN %s AND %s", e.name(c.Field()), low, high), nil
	case condition.IN:
		placeholders := []string{}

		for _, v := range c.Value().Elements() {
			p, err := e.value(v)
			if err != nil {
				return "", err
			}

			placeholders = append(placeholders, p)
		}

		return fmt.Sprintf("%s IN (%s)", e.name(c.Field()), strings.Join(placeholders, ", ")), nil
	case condition.LIKE:
		return e.like(c.Field(), c.Value())
	}

	op, ok := comparisons[c.Operator()]
	if !ok {
		return "", types.NewQueryError("unsupported operator %q", c.Operator())
	}

	v, err := e.value(c.Value())
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s %s", e.name(c.Field()), op, v), nil
}

// like maps the patterns DynamoDB can express: a plain text is an equality,
// a trailing % is begins_with and a surrounding pair of % is contains. A
// pattern made only of % matches every string attribute.
func (e *expression) like(field string, pattern types.Value) (string, error) {
	p, ok := pattern.Text()
	if !ok {
		return "", types.NewInvalidArgumentError("LIKE expects a string pattern, got %s", pattern)
	}

	if p != "" && strings.Trim(p, "%") == "" {
		v, err := e.value(types.String(string(ddbtypes.ScalarAttributeTypeS)))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("attribute_type(%s, %s)", e.name(field), v), nil
	}

	var (
		fn   string
		text string
	)

	switch {
	case len(p) > 1 && strings.HasPrefix(p, "%") && strings.HasSuffix(p, "%"):
		fn, text = "contains", p[1:len(p)-1]
	case strings.HasSuffix(p, "%"):
		fn, text = "begins_with", p[:len(p)-1]
	default:
		text = p
	}

	if strings.ContainsAny(text, "%_") {
		return "", types.NewQueryError("LIKE pattern %q cannot run on DynamoDB", p)
	}

	v, err := e.value(types.String(text))
	if err != nil {
		return "", err
	}

	if fn == "" {
		return fmt.Sprintf("%s = %s", e.name(field), v), nil
	}

	return fmt.Sprintf("%s(%s, %s)", fn, e.name(field), v), nil
}

// live renders the filter dropping rows whose time to live has passed
func (e *expression) live(ttlAttribute string, now int64) (string, error) {
	v, err := e.value(types.Int(now))
	if err != nil {
		return "", err
	}

	n := e.name(ttlAttribute)

	return fmt.Sprintf("(attribute_not_exists(%s) OR %s > %s)", n, n, v), nil
}

// filter combines the where condition with the time to live guard
func (e *expression) filter(where *condition.Condition, ttlAttribute string, now int64) (string, error) {
	if where == nil {
		return e.live(ttlAttribute, now)
	}

	cond, err := e.condition(*where)
	if err != nil {
		return "", err
	}

	live, err := e.live(ttlAttribute, now)
	if err != nil {
		return "", err
	}

	return cond + " AND " + live, nil
}

// set renders SET #f = :v, ... for an update
func (e *expression) set(fields []types.Pair) (string, error) {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		v, err := e.value(f.Value)
		if err != nil {
			return "", err
		}

		parts = append(parts, e.name(f.Key)+" = "+v)
	}

	return "SET " + strings.Join(parts, ", "), nil
}

// remove renders REMOVE #f, ... for a partial delete
func (e *expression) remove(fields []string) string {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		parts = append(parts, e.name(f))
	}

	return "REMOVE " + strings.Join(parts, ", ")
}
