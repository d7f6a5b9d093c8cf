package miniql

import (
	"context"
	"log/slog"
	"sync"

	"github.com/truora/miniql/interpreter"
	"github.com/truora/miniql/interpreter/language"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

// Option configures an Engine
type Option func(*Engine)

// WithResolver sets the resolver of entity and field names
func WithResolver(r interpreter.Resolver) Option {
	return func(e *Engine) {
		e.lang.Resolver = r
	}
}

// WithConverters sets the registry used by convert(value, type)
func WithConverters(c *interpreter.Converters) Option {
	return func(e *Engine) {
		e.lang.Converters = c
	}
}

// WithLogger sets the logger, slog.Default is used otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.lang.Logger = logger
	}
}

// WithDebug logs every interpreted statement
func WithDebug() Option {
	return func(e *Engine) {
		e.lang.Debug = true
	}
}

// Engine parses query text and dispatches the statements to storage managers
type Engine struct {
	mu     sync.Mutex
	lang   *interpreter.Language
	logger *slog.Logger
}

// New creates an engine
func New(opts ...Option) *Engine {
	e := &Engine{
		lang:   interpreter.NewLanguage(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ActivateDebug it activates the debug mode
func (e *Engine) ActivateDebug() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lang.Debug = true
}

func (e *Engine) interpret(text string, keyValue bool) (*interpreter.Output, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if keyValue {
		return e.lang.InterpretKeyValue(text)
	}

	return e.lang.Interpret(text)
}

// Query runs a SELECT, INSERT, UPDATE or DELETE statement without parameters
func (e *Engine) Query(ctx context.Context, m query.DocumentManager, text string) (*query.Result, error) {
	out, err := e.interpret(text, false)
	if err != nil {
		return nil, err
	}

	if !out.Params.IsEmpty() {
		return nil, types.NewParamWithoutPreparedError()
	}

	res, err := query.Execute(ctx, out.Statement, m)
	if err != nil {
		e.logger.Debug("query failed", slog.String("query", text), slog.Any("error", err))

		return nil, err
	}

	return res, nil
}

// Prepare parses a document statement keeping its parameters for binding
func (e *Engine) Prepare(m query.DocumentManager, text string) (*PreparedStatement, error) {
	out, err := e.interpret(text, false)
	if err != nil {
		return nil, err
	}

	return newPreparedStatement(out, func(ctx context.Context, stmt query.Statement) (*query.Result, error) {
		return query.Execute(ctx, stmt, m)
	}), nil
}

// QueryKeyValue runs a GET, PUT or DEL statement without parameters
func (e *Engine) QueryKeyValue(ctx context.Context, m query.KeyValueManager, text string) (*query.Result, error) {
	out, err := e.interpret(text, true)
	if err != nil {
		return nil, err
	}

	if !out.Params.IsEmpty() {
		return nil, types.NewParamWithoutPreparedError()
	}

	return query.ExecuteKeyValue(ctx, out.Statement, m)
}

// PrepareKeyValue parses a key-value statement keeping its parameters for binding
func (e *Engine) PrepareKeyValue(m query.KeyValueManager, text string) (*PreparedStatement, error) {
	out, err := e.interpret(text, true)
	if err != nil {
		return nil, err
	}

	return newPreparedStatement(out, func(ctx context.Context, stmt query.Statement) (*query.Result, error) {
		return query.ExecuteKeyValue(ctx, stmt, m)
	}), nil
}

// Explain returns the normalized text of a statement of either language and
// the parameters it declares
func (e *Engine) Explain(text string) (string, []string, error) {
	out, err := e.interpret(text, IsKeyValue(text))
	if err != nil {
		return "", nil, err
	}

	return out.Statement.String(), out.Params.Names(), nil
}

// IsKeyValue reports whether the text starts with GET, PUT or DEL
func IsKeyValue(text string) bool {
	tok := language.NewLexer(text).NextToken()

	switch tok.Type {
	case language.GET, language.PUT, language.DEL:
		return true
	}

	return false
}
