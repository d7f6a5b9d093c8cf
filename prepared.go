package miniql

import (
	"context"
	"iter"

	"github.com/truora/miniql/interpreter"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

type executor func(ctx context.Context, stmt query.Statement) (*query.Result, error)

// PreparedStatement a parsed statement waiting for its parameter values. It
// can run many times, rebinding parameters between runs. It is not safe for
// concurrent use.
type PreparedStatement struct {
	stmt   query.Statement
	params *query.Params
	exec   executor

	// failed bind errors by parameter name, in the order they happened
	failed []string
	errs   map[string]error
}

func newPreparedStatement(out *interpreter.Output, exec executor) *PreparedStatement {
	return &PreparedStatement{
		stmt:   out.Statement,
		params: out.Params,
		exec:   exec,
		errs:   map[string]error{},
	}
}

// Bind sets a parameter value. Plain Go values are converted with
// types.ValueOf. A failed bind is returned by Err and by every run until the
// same name binds successfully or Reset is called.
func (ps *PreparedStatement) Bind(name string, value interface{}) *PreparedStatement {
	v, err := types.ValueOf(value)
	if err == nil {
		err = ps.params.Bind(name, v)
	}

	if err == nil {
		ps.forget(name)

		return ps
	}

	if _, ok := ps.errs[name]; !ok {
		ps.failed = append(ps.failed, name)
	}

	ps.errs[name] = err

	return ps
}

func (ps *PreparedStatement) forget(name string) {
	if _, ok := ps.errs[name]; !ok {
		return
	}

	delete(ps.errs, name)

	for i, failed := range ps.failed {
		if failed == name {
			ps.failed = append(ps.failed[:i], ps.failed[i+1:]...)
			break
		}
	}
}

// Reset forgets every failed bind, bound values are kept
func (ps *PreparedStatement) Reset() *PreparedStatement {
	ps.failed = nil
	ps.errs = map[string]error{}

	return ps
}

// Err returns the oldest failed bind still pending
func (ps *PreparedStatement) Err() error {
	if len(ps.failed) == 0 {
		return nil
	}

	return ps.errs[ps.failed[0]]
}

// Params returns the declared parameter names in first encountered order
func (ps *PreparedStatement) Params() []string {
	return ps.params.Names()
}

// Unbound returns the parameters still missing a value
func (ps *PreparedStatement) Unbound() []string {
	return ps.params.Unbound()
}

// Statement returns the statement with every parameter replaced
func (ps *PreparedStatement) Statement() (query.Statement, error) {
	if err := ps.Err(); err != nil {
		return nil, err
	}

	return ps.params.Realize(ps.stmt)
}

// String returns the statement text with the parameter placeholders
func (ps *PreparedStatement) String() string {
	return ps.stmt.String()
}

// Execute runs the statement with the bound values
func (ps *PreparedStatement) Execute(ctx context.Context) (*query.Result, error) {
	stmt, err := ps.Statement()
	if err != nil {
		return nil, err
	}

	return ps.exec(ctx, stmt)
}

// Result runs the statement and collects every row
func (ps *PreparedStatement) Result(ctx context.Context) ([]types.Value, error) {
	res, err := ps.Execute(ctx)
	if err != nil {
		return nil, err
	}

	return res.All()
}

// SingleResult runs the statement expecting at most one row
func (ps *PreparedStatement) SingleResult(ctx context.Context) (types.Value, bool, error) {
	res, err := ps.Execute(ctx)
	if err != nil {
		return types.Value{}, false, err
	}

	return res.Single()
}

// Stream runs the statement and yields the rows as they are read
func (ps *PreparedStatement) Stream(ctx context.Context) iter.Seq2[types.Value, error] {
	res, err := ps.Execute(ctx)
	if err != nil {
		return func(yield func(types.Value, error) bool) {
			yield(types.Value{}, err)
		}
	}

	return res.Stream()
}
