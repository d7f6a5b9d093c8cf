package condition

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/truora/miniql/types"
)

func TestDoubleNegationRestoresOriginal(t *testing.T) {
	between, err := Between("age", types.List(types.Int(10), types.Int(30)))
	require.NoError(t, err)

	tests := []Condition{
		Eq("name", types.String("Diana")),
		Gt("age", types.Int(10)),
		between,
		And(Eq("a", types.Int(1)), Lt("b", types.Int(2))),
		Or(Like("name", types.String("Di%")), Not(Gte("age", types.Int(3)))),
	}

	for _, c := range tests {
		negated := c.Negate()
		require.Equal(t, NOT, negated.Operator())
		require.Equal(t, "_NOT", negated.Field())
		require.Len(t, negated.Children(), 1)

		if diff := cmp.Diff(c, negated.Negate()); diff != "" {
			t.Errorf("double negation mismatch (-want +got):\n%s", diff)
		}

		require.True(t, Not(Not(c)).Equal(c))
	}
}

func TestChainedAndIsFlat(t *testing.T) {
	c := require.New(t)

	c1 := Eq("a", types.Int(1))
	c2 := Eq("b", types.Int(2))
	c3 := Eq("c", types.Int(3))

	and := c1.And(c2).And(c3)
	c.Equal(AND, and.Operator())
	c.Equal("_AND", and.Field())
	c.Len(and.Children(), 3)

	for _, child := range and.Children() {
		c.NotEqual(AND, child.Operator())
	}

	or := c1.Or(c2).Or(c3)
	c.Equal("_OR", or.Field())
	c.Len(or.Children(), 3)

	// a different connective nests instead of flattening
	mixed := c1.And(c2).Or(c3)
	c.Equal(OR, mixed.Operator())
	c.Len(mixed.Children(), 2)
	c.Equal(AND, mixed.Children()[0].Operator())
}

func TestCombinationDoesNotMutateReceiver(t *testing.T) {
	c := require.New(t)

	base := Eq("a", types.Int(1)).And(Eq("b", types.Int(2)))
	left := base.And(Eq("c", types.Int(3)))
	right := base.And(Eq("d", types.Int(4)))

	c.Len(base.Children(), 2)
	c.Equal("(a = 1 AND b = 2 AND c = 3)", left.String())
	c.Equal("(a = 1 AND b = 2 AND d = 4)", right.String())
}

func TestBetweenArity(t *testing.T) {
	c := require.New(t)

	for _, n := range []int{0, 1, 3, 4} {
		values := make([]types.Value, n)
		for i := range values {
			values[i] = types.Int(int64(i))
		}

		_, err := Between("age", types.List(values...))
		c.ErrorIs(err, types.ErrInvalidArgument, "length %d", n)
	}

	_, err := Between("age", types.Int(10))
	c.ErrorIs(err, types.ErrInvalidArgument)

	cond, err := Between("age", types.List(types.Int(10), types.Int(30)))
	c.NoError(err)
	c.Equal(BETWEEN, cond.Operator())
	c.Equal("age BETWEEN 10 AND 30", cond.String())
}

func TestInRequiresList(t *testing.T) {
	c := require.New(t)

	_, err := In("name", types.String("Diana"))
	c.ErrorIs(err, types.ErrInvalidArgument)

	cond, err := In("name", types.List(types.String("Diana"), types.String("Apollo")))
	c.NoError(err)
	c.Equal(`name IN ("Diana", "Apollo")`, cond.String())
}

func TestStructuralEquality(t *testing.T) {
	c := require.New(t)

	c.True(Eq("age", types.Int(12)).Equal(Eq("age", types.Int(12))))
	c.False(Eq("age", types.Int(12)).Equal(Gt("age", types.Int(12))))
	c.False(Eq("age", types.Int(12)).Equal(Eq("name", types.Int(12))))
	c.False(And(Eq("a", types.Int(1)), Eq("b", types.Int(2))).Equal(And(Eq("b", types.Int(2)), Eq("a", types.Int(1)))))
}

func TestReplaceBindsParams(t *testing.T) {
	c := require.New(t)

	between, err := Between("age", types.List(types.Param("min"), types.Param("max")))
	c.NoError(err)

	cond := Eq("name", types.Param("name")).And(between)
	c.True(cond.HasParams())

	bound := map[string]types.Value{
		"name": types.String("Diana"),
		"min":  types.Int(10),
		"max":  types.Int(30),
	}

	realized, err := cond.Replace(func(p types.Value) (types.Value, error) {
		return bound[p.ParamName()], nil
	})
	c.NoError(err)
	c.False(realized.HasParams())
	c.Equal(`(name = "Diana" AND age BETWEEN 10 AND 30)`, realized.String())

	// the original keeps its placeholders
	c.True(cond.HasParams())
}

func TestWalkVisitsEveryNode(t *testing.T) {
	cond := Or(Eq("a", types.Int(1)).And(Eq("b", types.Int(2))), Not(Eq("c", types.Int(3))))

	fields := []string{}
	cond.Walk(func(c Condition) {
		fields = append(fields, c.Field())
	})

	require.Equal(t, []string{"_OR", "_AND", "a", "b", "_NOT", "c"}, fields)
}
