package interpreter

import (
	"fmt"

	"github.com/truora/miniql/condition"
	"github.com/truora/miniql/interpreter/language"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

// transformer builds one statement, it is not reused across parses
type transformer struct {
	resolver   Resolver
	converters *Converters
	params     *query.Params
}

//gocyclo:ignore
func (t *transformer) statement(node language.Statement) (query.Statement, error) {
	switch n := node.(type) {
	case *language.SelectStatement:
		return t.selectStatement(n)
	case *language.InsertStatement:
		entity := t.resolver.ResolveEntity(n.Entity.Value)

		fields, err := t.body(entity, n.Assignments, n.Document)
		if err != nil {
			return nil, err
		}

		stmt := &query.Insert{Entity: entity, Fields: fields}
		if n.TTL != nil {
			stmt.TTL = n.TTL.Duration()
		}

		return stmt, nil
	case *language.UpdateStatement:
		entity := t.resolver.ResolveEntity(n.Entity.Value)

		fields, err := t.body(entity, n.Assignments, n.Document)
		if err != nil {
			return nil, err
		}

		where, err := t.where(entity, n.Where)
		if err != nil {
			return nil, err
		}

		return &query.Update{Entity: entity, Fields: fields, Where: where}, nil
	case *language.DeleteStatement:
		entity := t.resolver.ResolveEntity(n.Entity.Value)

		where, err := t.where(entity, n.Where)
		if err != nil {
			return nil, err
		}

		return &query.Delete{Entity: entity, Fields: t.fields(entity, n.Fields), Where: where}, nil
	case *language.GetStatement:
		keys, err := t.values(n.Keys)
		if err != nil {
			return nil, err
		}

		return &query.Get{Keys: keys}, nil
	case *language.DelStatement:
		keys, err := t.values(n.Keys)
		if err != nil {
			return nil, err
		}

		return &query.Del{Keys: keys}, nil
	case *language.PutStatement:
		return t.putStatement(n)
	}

	return nil, types.NewSyntaxError("unsupported statement %T", node)
}

func (t *transformer) selectStatement(n *language.SelectStatement) (query.Statement, error) {
	entity := t.resolver.ResolveEntity(n.Entity.Value)

	where, err := t.where(entity, n.Where)
	if err != nil {
		return nil, err
	}

	sorts := make([]query.Sort, 0, len(n.Sorts))

	for _, s := range n.Sorts {
		direction := query.ASC
		if s.Descending {
			direction = query.DESC
		}

		sorts = append(sorts, query.Sort{Field: t.resolver.ResolveField(entity, s.Field.Value), Direction: direction})
	}

	return &query.Select{
		Entity: entity,
		Fields: t.fields(entity, n.Fields),
		Where:  where,
		Sorts:  sorts,
		Skip:   n.Skip,
		Limit:  n.Limit,
		Count:  n.Count,
	}, nil
}

func (t *transformer) putStatement(n *language.PutStatement) (query.Statement, error) {
	key, err := t.value(n.Key)
	if err != nil {
		return nil, err
	}

	value, err := t.value(n.Value)
	if err != nil {
		return nil, err
	}

	stmt := &query.Put{Key: key, Value: value}
	if n.TTL != nil {
		stmt.TTL = n.TTL.Duration()
	}

	return stmt, nil
}

func (t *transformer) fields(entity string, ids []*language.Identifier) []string {
	fields := make([]string, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, t.resolver.ResolveField(entity, id.Value))
	}

	return fields
}

func (t *transformer) body(entity string, assignments []*language.Assignment, document *language.MapLiteral) ([]types.Pair, error) {
	pairs := []types.Pair{}

	if document != nil {
		for _, e := range document.Entries {
			v, err := t.value(e.Value)
			if err != nil {
				return nil, err
			}

			pairs = append(pairs, types.Pair{Key: t.resolver.ResolveField(entity, e.Key), Value: v})
		}

		return pairs, nil
	}

	for _, a := range assignments {
		v, err := t.value(a.Value)
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, types.Pair{Key: t.resolver.ResolveField(entity, a.Field.Value), Value: v})
	}

	return pairs, nil
}

func (t *transformer) where(entity string, node language.Condition) (*condition.Condition, error) {
	if node == nil {
		return nil, nil
	}

	c, err := t.condition(entity, node)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

//gocyclo:ignore
func (t *transformer) condition(entity string, node language.Condition) (condition.Condition, error) {
	switch n := node.(type) {
	case *language.ComparisonCondition:
		field := t.resolver.ResolveField(entity, n.Field.Value)

		v, err := t.value(n.Value)
		if err != nil {
			return condition.Condition{}, err
		}

		switch language.TokenType(n.Operator) {
		case language.EQ:
			return condition.Eq(field, v), nil
		case language.GT:
			return condition.Gt(field, v), nil
		case language.GTE:
			return condition.Gte(field, v), nil
		case language.LT:
			return condition.Lt(field, v), nil
		case language.LTE:
			return condition.Lte(field, v), nil
		case language.LIKE:
			return condition.Like(field, v), nil
		}

		return condition.Condition{}, types.NewSyntaxError("unsupported operator %q", n.Operator)
	case *language.BetweenCondition:
		bounds, err := t.values([]language.Expression{n.Low, n.High})
		if err != nil {
			return condition.Condition{}, err
		}

		return condition.Between(t.resolver.ResolveField(entity, n.Field.Value), types.List(bounds...))
	case *language.InCondition:
		values, err := t.values(n.Values)
		if err != nil {
			return condition.Condition{}, err
		}

		return condition.In(t.resolver.ResolveField(entity, n.Field.Value), types.List(values...))
	case *language.NotCondition:
		right, err := t.condition(entity, n.Right)
		if err != nil {
			return condition.Condition{}, err
		}

		return right.Negate(), nil
	case *language.LogicalCondition:
		children := make([]condition.Condition, 0, len(n.Conditions))

		for _, child := range n.Conditions {
			c, err := t.condition(entity, child)
			if err != nil {
				return condition.Condition{}, err
			}

			children = append(children, c)
		}

		if n.Operator == language.OR {
			return condition.Or(children[0], children[1:]...), nil
		}

		return condition.And(children[0], children[1:]...), nil
	}

	return condition.Condition{}, types.NewSyntaxError("unsupported condition %T", node)
}

func (t *transformer) values(exps []language.Expression) ([]types.Value, error) {
	values := make([]types.Value, 0, len(exps))

	for _, e := range exps {
		v, err := t.value(e)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

//gocyclo:ignore
func (t *transformer) value(exp language.Expression) (types.Value, error) {
	switch e := exp.(type) {
	case *language.StringLiteral:
		return types.String(e.Value), nil
	case *language.NumberLiteral:
		v, err := types.NumberFromString(e.Value)
		if err != nil {
			return types.Value{}, types.NewSyntaxError("malformed number %q at position %d", e.Value, e.Token.Pos)
		}

		return v, nil
	case *language.BooleanLiteral:
		return types.Bool(e.Value), nil
	case *language.ParameterExpression:
		return t.params.Register(e.Name), nil
	case *language.EnumLiteral:
		v := types.Enum(e.Type, e.Member)
		if err := t.converters.CheckEnum(v); err != nil {
			return types.Value{}, fmt.Errorf("%w at position %d", err, e.Token.Pos)
		}

		return v, nil
	case *language.ListLiteral:
		elements, err := t.values(e.Elements)
		if err != nil {
			return types.Value{}, err
		}

		return types.List(elements...), nil
	case *language.MapLiteral:
		pairs := make([]types.Pair, 0, len(e.Entries))

		for _, entry := range e.Entries {
			v, err := t.value(entry.Value)
			if err != nil {
				return types.Value{}, err
			}

			pairs = append(pairs, types.Pair{Key: entry.Key, Value: v})
		}

		return types.Map(pairs...), nil
	case *language.ConvertExpression:
		return t.convert(e)
	}

	return types.Value{}, types.NewSyntaxError("unsupported value %T", exp)
}

// convert applies the conversion now for literals, or returns a placeholder
// that reads the parameter through the conversion once it is bound
func (t *transformer) convert(e *language.ConvertExpression) (types.Value, error) {
	fn, err := t.converters.Lookup(e.TypeName)
	if err != nil {
		return types.Value{}, err
	}

	v, err := t.value(e.Value)
	if err != nil {
		return types.Value{}, err
	}

	if v.IsParam() {
		if v.ParamConversion() != "" {
			return types.Value{}, types.NewInvalidArgumentError("convert at position %d cannot convert an already converted parameter", e.Token.Pos)
		}

		return t.params.RegisterConverted(v.ParamName(), e.TypeName, fn), nil
	}

	if v.HasParams() {
		return types.Value{}, types.NewInvalidArgumentError("convert at position %d expects a literal or a single parameter", e.Token.Pos)
	}

	return fn(v)
}
