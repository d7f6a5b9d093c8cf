package miniql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/truora/miniql/core"
	"github.com/truora/miniql/interpreter"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

type countingBucket struct {
	*core.Bucket
	gets    int
	puts    int
	deletes [][]types.Value
}

func (b *countingBucket) Get(ctx context.Context, key types.Value) (types.Value, bool, error) {
	b.gets++

	return b.Bucket.Get(ctx, key)
}

func (b *countingBucket) Put(ctx context.Context, key, value types.Value, ttl time.Duration) error {
	b.puts++

	return b.Bucket.Put(ctx, key, value, ttl)
}

func (b *countingBucket) Delete(ctx context.Context, keys []types.Value) error {
	b.deletes = append(b.deletes, keys)

	return b.Bucket.Delete(ctx, keys)
}

func setupGods(t *testing.T, e *Engine) *core.Manager {
	t.Helper()

	m := core.NewManager()

	for _, q := range []string{
		`INSERT God (id = "diana", name = "Diana", age = 20)`,
		`INSERT God (id = "apollo", name = "Apollo", age = 30)`,
		`INSERT God {"id": "zeus", "name": "Zeus", "age": 90}`,
	} {
		_, err := e.Query(context.Background(), m, q)
		require.NoError(t, err)
	}

	return m
}

func rowNames(t *testing.T, rows []types.Value) []string {
	t.Helper()

	out := []string{}

	for _, row := range rows {
		v, ok := row.Get("name")
		require.True(t, ok)

		s, _ := v.Text()
		out = append(out, s)
	}

	return out
}

func TestQuery(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := setupGods(t, e)

	res, err := e.Query(ctx, m, `SELECT name FROM God WHERE age >= 20 AND NOT name = "Zeus" ORDER BY age DESC`)
	c.NoError(err)

	rows, err := res.All()
	c.NoError(err)
	c.Equal([]string{"Apollo", "Diana"}, rowNames(t, rows))

	res, err = e.Query(ctx, m, `SELECT count(*) FROM God WHERE name LIKE "%u%"`)
	c.NoError(err)

	n, found, err := res.Single()
	c.NoError(err)
	c.True(found)
	c.Equal("1", n.String())

	res, err = e.Query(ctx, m, `UPDATE God (age = 21) WHERE name = "Diana"`)
	c.NoError(err)

	updated, err := res.All()
	c.NoError(err)
	c.Len(updated, 1)

	res, err = e.Query(ctx, m, `DELETE FROM God WHERE age > 25`)
	c.NoError(err)

	deleted, err := res.All()
	c.NoError(err)
	c.Empty(deleted)
	c.Equal(1, m.Table("God").Len())
}

func TestQueryRejectsParameters(t *testing.T) {
	c := require.New(t)

	e := New()

	_, err := e.Query(context.Background(), core.NewManager(), "SELECT * FROM God WHERE name = @name")
	c.ErrorIs(err, types.ErrQuery)
	c.Contains(err.Error(), "To run a query with a parameter use a PrepareStatement instead.")

	_, err = e.QueryKeyValue(context.Background(), core.NewBucket(), "GET @id")
	c.ErrorIs(err, types.ErrQuery)
}

func TestQuerySyntaxError(t *testing.T) {
	_, err := New().Query(context.Background(), core.NewManager(), "SELECT FROM God")
	require.ErrorIs(t, err, types.ErrSyntax)
}

func TestPrepare(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := setupGods(t, e)

	stmt, err := e.Prepare(m, "SELECT * FROM God WHERE age > @age OR name = @name OR age = @age ORDER BY name")
	c.NoError(err)
	c.Equal([]string{"age", "name"}, stmt.Params())

	_, err = stmt.Result(ctx)
	c.ErrorIs(err, types.ErrQuery)
	c.Contains(err.Error(), "age, name")

	rows, err := stmt.Bind("age", 25).Bind("name", "Diana").Result(ctx)
	c.NoError(err)
	c.Equal([]string{"Apollo", "Diana", "Zeus"}, rowNames(t, rows))

	rows, err = stmt.Bind("age", 85).Result(ctx)
	c.NoError(err)
	c.Equal([]string{"Diana", "Zeus"}, rowNames(t, rows))

	c.Equal("SELECT * FROM God WHERE (age > @age OR name = @name OR age = @age) ORDER BY name ASC", stmt.String())
}

func TestPrepareBindErrors(t *testing.T) {
	c := require.New(t)

	e := New()

	stmt, err := e.Prepare(core.NewManager(), "SELECT * FROM God WHERE age > @age")
	c.NoError(err)

	stmt.Bind("missing", 1).Bind("age", 1)
	c.ErrorIs(stmt.Err(), types.ErrQuery)

	_, err = stmt.Result(context.Background())
	c.ErrorIs(err, types.ErrQuery)

	stmt, err = e.Prepare(core.NewManager(), "SELECT * FROM God WHERE age > @age")
	c.NoError(err)

	c.ErrorIs(stmt.Bind("age", struct{}{}).Err(), types.ErrInvalidArgument)
	c.NoError(stmt.Bind("age", 1).Err())

	_, err = stmt.Result(context.Background())
	c.NoError(err)
}

func TestPrepareRecoversFromBindErrors(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := setupGods(t, e)

	stmt, err := e.Prepare(m, "SELECT * FROM God WHERE age > @age")
	c.NoError(err)

	stmt.Bind("agee", 12).Bind("age", 12)
	c.ErrorIs(stmt.Err(), types.ErrQuery)

	rows, err := stmt.Reset().Result(ctx)
	c.NoError(err)
	c.NotEmpty(rows)

	stmt.Bind("age", 1000)

	rows, err = stmt.Result(ctx)
	c.NoError(err)
	c.Empty(rows)
}

func TestSingleResult(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := setupGods(t, e)

	stmt, err := e.Prepare(m, "SELECT * FROM God WHERE age < @age")
	c.NoError(err)

	row, found, err := stmt.Bind("age", 25).SingleResult(ctx)
	c.NoError(err)
	c.True(found)
	c.Equal("Diana", rowNames(t, []types.Value{row})[0])

	_, found, err = stmt.Bind("age", 10).SingleResult(ctx)
	c.NoError(err)
	c.False(found)

	_, _, err = stmt.Bind("age", 100).SingleResult(ctx)
	c.ErrorIs(err, types.ErrNonUniqueResult)
}

func TestKeyValue(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	b := &countingBucket{Bucket: core.NewBucket()}

	_, err := e.QueryKeyValue(ctx, b, `PUT {"Diana", "Hunt", 10 hours}`)
	c.NoError(err)
	c.Equal(1, b.puts)

	put, err := e.PrepareKeyValue(b, "PUT {@key, @value}")
	c.NoError(err)

	_, err = put.Bind("key", 10).Bind("value", "ten").Execute(ctx)
	c.NoError(err)
	c.Equal(2, b.puts)

	get, err := e.PrepareKeyValue(b, `GET "Diana", "missing", @id`)
	c.NoError(err)

	res, err := get.Bind("id", 10).Execute(ctx)
	c.NoError(err)
	c.Zero(b.gets)

	values, err := res.All()
	c.NoError(err)
	c.Equal(3, b.gets)
	c.Len(values, 2)
	c.Equal(`"Hunt"`, values[0].String())

	_, err = res.All()
	c.ErrorIs(err, types.ErrQuery)
	c.Equal(3, b.gets)

	del, err := e.PrepareKeyValue(b, "DEL @a, @b")
	c.NoError(err)

	_, err = del.Bind("a", "Diana").Bind("b", 10).Execute(ctx)
	c.NoError(err)
	c.Len(b.deletes, 1)
	c.Len(b.deletes[0], 2)
	c.Zero(b.Len())
}

func TestStream(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	b := core.NewBucket()

	_, err := e.QueryKeyValue(ctx, b, "PUT {1, 2}")
	c.NoError(err)

	get, err := e.PrepareKeyValue(b, "GET @k")
	c.NoError(err)

	for v, err := range get.Bind("k", 1).Stream(ctx) {
		c.NoError(err)
		c.Equal("2", v.String())
	}

	unbound, err := e.PrepareKeyValue(b, "GET @k")
	c.NoError(err)

	for _, err := range unbound.Stream(ctx) {
		c.ErrorIs(err, types.ErrQuery)
	}
}

func TestExplain(t *testing.T) {
	c := require.New(t)

	e := New(WithResolver(interpreter.AliasResolver{Entities: map[string]string{"God": "gods"}}))

	text, params, err := e.Explain("select * from God where a = 1 and b = 2 or c = @c")
	c.NoError(err)
	c.Equal("SELECT * FROM gods WHERE ((a = 1 AND b = 2) OR c = @c)", text)
	c.Equal([]string{"c"}, params)

	text, params, err = e.Explain("del 1, 2")
	c.NoError(err)
	c.Equal("DEL 1, 2", text)
	c.Empty(params)

	_, _, err = e.Explain("GET")
	c.ErrorIs(err, types.ErrSyntax)

	c.True(IsKeyValue("put {1, 2}"))
	c.False(IsKeyValue("SELECT * FROM God"))
}

func TestConvertedParameter(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := core.NewManager()

	stmt, err := e.Prepare(m, "INSERT God (id = @id, born = convert(@born, date))")
	c.NoError(err)

	row, found, err := stmt.Bind("id", "diana").Bind("born", "2020-01-02").SingleResult(ctx)
	c.NoError(err)
	c.True(found)

	born, ok := row.Get("born")
	c.True(ok)

	instant, ok := born.Instant()
	c.True(ok)
	c.True(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC).Equal(instant))

	_, err = e.Query(ctx, m, `INSERT God (id = "x", born = convert("yesterday", date))`)
	c.ErrorIs(err, types.ErrInvalidArgument)
}

func TestConvertedParameterKeepsPlainUses(t *testing.T) {
	c := require.New(t)
	ctx := context.Background()

	e := New()
	m := core.NewManager()

	_, err := e.Query(ctx, m, `INSERT God (id = "hermes", name = "12", age = 12)`)
	c.NoError(err)

	stmt, err := e.Prepare(m, "select * from God where name = @x and age = convert(@x, int)")
	c.NoError(err)
	c.Equal([]string{"x"}, stmt.Params())
	c.Equal("SELECT * FROM God WHERE (name = @x AND age = convert(@x, int))", stmt.String())

	rows, err := stmt.Bind("x", "12").Result(ctx)
	c.NoError(err)
	c.Len(rows, 1)

	_, err = stmt.Bind("x", "abc").Result(ctx)
	c.ErrorIs(err, types.ErrInvalidArgument)
}

var (
	_ query.DocumentManager = (*core.Manager)(nil)
	_ query.KeyValueManager = (*core.Bucket)(nil)
)
