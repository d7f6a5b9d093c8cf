package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustNumber(t *testing.T, s string) Value {
	t.Helper()

	v, err := NumberFromString(s)
	require.NoError(t, err)

	return v
}

func TestNumbersCompareByValue(t *testing.T) {
	c := require.New(t)

	c.True(Equal(Int(10), mustNumber(t, "10.0")))
	c.False(Equal(Int(10), String("10")))

	cmp, ok := Compare(mustNumber(t, "10.5"), Int(11))
	c.True(ok)
	c.Equal(-1, cmp)

	_, ok = Compare(Int(1), String("1"))
	c.False(ok)

	c.Equal("number:10", mustNumber(t, "10.00").Key())
	c.Equal(Int(10).Key(), mustNumber(t, "10.00").Key())
}

func TestKeyKeepsKind(t *testing.T) {
	c := require.New(t)

	c.NotEqual(String("10").Key(), Int(10).Key())
	c.NotEqual(String("X").Key(), Enum("T", "X").Key())
	c.NotEqual(Enum("T", "X").Key(), Enum("U", "X").Key())
	c.NotEqual(String("true").Key(), Bool(true).Key())
	c.Equal(List(Int(10)).Key(), List(mustNumber(t, "10.0")).Key())
	c.NotEqual(List(Int(10)).Key(), List(String("10")).Key())
}

func TestInt64RejectsFractions(t *testing.T) {
	c := require.New(t)

	i, err := mustNumber(t, "12.000").Int64()
	c.NoError(err)
	c.Equal(int64(12), i)

	_, err = mustNumber(t, "12.5").Int64()
	c.ErrorIs(err, ErrInvalidArgument)

	_, err = String("12").Int64()
	c.ErrorIs(err, ErrInvalidArgument)
}

func TestMalformedNumber(t *testing.T) {
	_, err := NumberFromString("1.2.3")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValueOf(t *testing.T) {
	c := require.New(t)

	tests := []struct {
		input    interface{}
		expected Value
	}{
		{"Diana", String("Diana")},
		{12, Int(12)},
		{int64(-3), Int(-3)},
		{uint64(7), Int(7)},
		{true, Bool(true)},
		{json.Number("1.5"), mustNumber(t, "1.5")},
		{[]int{10, 11}, List(Int(10), Int(11))},
		{map[string]interface{}{"b": 2, "a": "x"}, Map(Pair{"a", String("x")}, Pair{"b", Int(2)})},
		{Param("age"), Param("age")},
	}

	for _, tt := range tests {
		v, err := ValueOf(tt.input)
		c.NoError(err)
		c.True(Equal(tt.expected, v), "expected %s, got %s", tt.expected, v)
	}

	_, err := ValueOf(nil)
	c.ErrorIs(err, ErrInvalidArgument)

	_, err = ValueOf(struct{}{})
	c.ErrorIs(err, ErrInvalidArgument)

	_, err = ValueOf(map[int]string{1: "a"})
	c.ErrorIs(err, ErrInvalidArgument)
}

func TestMapKeepsOrderAndReplacesDuplicates(t *testing.T) {
	c := require.New(t)

	m := Map(Pair{"name", String("Diana")}, Pair{"age", Int(10)}, Pair{"name", String("Artemis")})
	c.Equal(2, m.Len())
	c.Equal(`{"name": "Artemis", "age": 10}`, m.String())

	m2 := m.With("power", String("hunt")).Without("age")
	c.Equal(`{"name": "Artemis", "power": "hunt"}`, m2.String())
	c.Equal(`{"power": "hunt"}`, m2.Project([]string{"power", "missing"}).String())

	// the original is untouched
	c.Equal(2, m.Len())
}

func TestReplaceParams(t *testing.T) {
	c := require.New(t)

	v := List(Param("a"), Map(Pair{"k", Param("b")}), Int(1))
	c.True(v.HasParams())

	out, err := v.Replace(func(p Value) (Value, error) {
		return String(p.ParamName()), nil
	})
	c.NoError(err)
	c.False(out.HasParams())
	c.Equal(`["a", {"k": "b"}, 1]`, out.String())
}

func TestStringRendering(t *testing.T) {
	c := require.New(t)

	c.Equal(`"Diana"`, String("Diana").String())
	c.Equal("10.5", mustNumber(t, "10.5").String())
	c.Equal("Role.HUNT", Enum("Role", "HUNT").String())
	c.Equal("@age", Param("age").String())
	c.Equal("convert(@age, int)", ConvertedParam("age", "int").String())
	c.Equal("false", Bool(false).String())
}

func TestConvertedParamIdentity(t *testing.T) {
	c := require.New(t)

	converted := ConvertedParam("age", "int")
	c.Equal("age", converted.ParamName())
	c.Equal("int", converted.ParamConversion())
	c.Empty(Param("age").ParamConversion())
	c.False(Equal(Param("age"), converted))
	c.True(Equal(ConvertedParam("age", "int"), converted))
}

func TestTaggedJSONRoundTrip(t *testing.T) {
	c := require.New(t)

	when := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	v := Map(
		Pair{"name", String("Diana")},
		Pair{"age", mustNumber(t, "10.25")},
		Pair{"role", Enum("Role", "HUNT")},
		Pair{"tags", List(Bool(true), Param("x"), ConvertedParam("x", "int"))},
		Pair{"empty", List()},
		Pair{"born", Time(when)},
	)

	data, err := json.Marshal(v)
	c.NoError(err)
	c.Contains(string(data), `"N":"10.25"`)

	var decoded Value
	c.NoError(json.Unmarshal(data, &decoded))
	c.True(Equal(v, decoded), "got %s", decoded)

	empty, ok := decoded.Get("empty")
	c.True(ok)
	c.Equal(KindList, empty.Kind())
}

func TestNative(t *testing.T) {
	c := require.New(t)

	v := Map(Pair{"n", Int(3)}, Pair{"l", List(String("a"))})
	c.Equal(map[string]interface{}{
		"n": json.Number("3"),
		"l": []interface{}{"a"},
	}, v.Native())
}
