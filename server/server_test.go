package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/truora/miniql"
	"github.com/truora/miniql/core"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv := NewServer(miniql.New(), core.NewManager(), core.NewBucket())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return srv, ts
}

func post(t *testing.T, url, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)

	req.Header.Set(targetHeader, target)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return resp, out
}

func TestServerQuery(t *testing.T) {
	c := require.New(t)

	_, ts := newTestServer(t)

	resp, out := post(t, ts.URL, "MiniQL.Query", Request{Query: `INSERT God (id = "diana", name = "Diana", age = 20)`})
	c.Equal(http.StatusOK, resp.StatusCode)
	c.Len(resp.Header.Get(requestIDHeader), 36)
	c.EqualValues(1, out["Count"])

	resp, out = post(t, ts.URL, "MiniQL.Query", Request{
		Query:  "SELECT name, age FROM God WHERE age >= @age",
		Params: map[string]interface{}{"age": 18},
	})
	c.Equal(http.StatusOK, resp.StatusCode)
	c.Equal([]interface{}{map[string]interface{}{"name": "Diana", "age": float64(20)}}, out["Items"])

	resp, out = post(t, ts.URL, "MiniQL.Query", Request{Query: `DELETE FROM God`})
	c.Equal(http.StatusOK, resp.StatusCode)
	c.Equal([]interface{}{}, out["Items"])
}

func TestServerKeyValue(t *testing.T) {
	c := require.New(t)

	_, ts := newTestServer(t)

	resp, _ := post(t, ts.URL, "MiniQL.KeyValue", Request{
		Query:  "PUT {@key, @value, 1 hour}",
		Params: map[string]interface{}{"key": "Diana", "value": map[string]interface{}{"domain": "hunt"}},
	})
	c.Equal(http.StatusOK, resp.StatusCode)

	resp, out := post(t, ts.URL, "MiniQL.KeyValue", Request{Query: `GET "Diana", "Zeus"`})
	c.Equal(http.StatusOK, resp.StatusCode)
	c.EqualValues(1, out["Count"])
	c.Equal([]interface{}{map[string]interface{}{"domain": "hunt"}}, out["Items"])
}

func TestServerExplain(t *testing.T) {
	c := require.New(t)

	_, ts := newTestServer(t)

	resp, out := post(t, ts.URL, "MiniQL.Explain", Request{Query: "select * from God where a = @a or b = 1 and c = 2"})
	c.Equal(http.StatusOK, resp.StatusCode)
	c.Equal("SELECT * FROM God WHERE (a = @a OR (b = 1 AND c = 2))", out["Statement"])
	c.Equal([]interface{}{"a"}, out["Params"])
}

func TestServerErrors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		request Request
		status  int
		typ     string
		message string
	}{
		{
			name:    "syntax",
			target:  "MiniQL.Query",
			request: Request{Query: "SELECT FROM God"},
			status:  http.StatusBadRequest,
			typ:     "SyntaxError",
		},
		{
			name:    "parameter without prepared statement",
			target:  "MiniQL.Query",
			request: Request{Query: "SELECT * FROM God WHERE a = @a"},
			status:  http.StatusBadRequest,
			typ:     "QueryError",
			message: "To run a query with a parameter use a PrepareStatement instead.",
		},
		{
			name:    "unbound parameters",
			target:  "MiniQL.Query",
			request: Request{Query: "SELECT * FROM God WHERE a = @a AND b = @b", Params: map[string]interface{}{"b": 1}},
			status:  http.StatusBadRequest,
			typ:     "QueryError",
			message: "unbound parameters: a",
		},
		{
			name:    "unknown parameter",
			target:  "MiniQL.KeyValue",
			request: Request{Query: "GET @a", Params: map[string]interface{}{"z": 1}},
			status:  http.StatusBadRequest,
			typ:     "QueryError",
		},
		{
			name:    "document statement on key-value target",
			target:  "MiniQL.KeyValue",
			request: Request{Query: "SELECT * FROM God"},
			status:  http.StatusBadRequest,
			typ:     "SyntaxError",
		},
	}

	_, ts := newTestServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := require.New(t)

			resp, out := post(t, ts.URL, tt.target, tt.request)
			c.Equal(tt.status, resp.StatusCode)
			c.Equal(tt.typ, out["__type"])

			if tt.message != "" {
				c.Equal(tt.message, out["message"])
			}
		})
	}
}

func TestServerRejectsUnknownTargets(t *testing.T) {
	c := require.New(t)

	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader([]byte(`{"query": "GET 1"}`)))
	c.NoError(err)
	req.Header.Set(targetHeader, "MiniQL.Drop")

	resp, err := http.DefaultClient.Do(req)
	c.NoError(err)
	resp.Body.Close()
	c.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL)
	c.NoError(err)
	resp.Body.Close()
	c.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServerMissingStorage(t *testing.T) {
	c := require.New(t)

	ts := httptest.NewServer(NewServer(miniql.New(), core.NewManager(), nil))
	defer ts.Close()

	resp, out := post(t, ts.URL, "MiniQL.KeyValue", Request{Query: "GET 1"})
	c.Equal(http.StatusBadRequest, resp.StatusCode)
	c.Equal("QueryError", out["__type"])
}

func TestServerEmulateFailure(t *testing.T) {
	c := require.New(t)

	srv, ts := newTestServer(t)

	srv.EmulateFailure(FailureConditionInternalServerError)

	resp, out := post(t, ts.URL, "MiniQL.Query", Request{Query: "SELECT * FROM God"})
	c.Equal(http.StatusInternalServerError, resp.StatusCode)
	c.Equal("InternalFailure", out["__type"])
	c.Equal(ErrEmulatedFailure.Error(), out["message"])

	srv.EmulateFailure(FailureConditionNone)

	resp, _ = post(t, ts.URL, "MiniQL.Query", Request{Query: "SELECT * FROM God"})
	c.Equal(http.StatusOK, resp.StatusCode)
}
