// Package interpreter turns query text into backend agnostic statements,
// renaming entities and fields through a Resolver and collecting the
// parameters each statement declares.
package interpreter

import (
	"log/slog"

	"github.com/truora/miniql/interpreter/language"
	"github.com/truora/miniql/query"
)

// Output is an interpreted statement and the registry of its parameters
type Output struct {
	Statement query.Statement
	Params    *query.Params
}

// Interpreter query text interpreter interface
type Interpreter interface {
	// Interpret parses SELECT, INSERT, UPDATE and DELETE statements
	Interpret(text string) (*Output, error)
	// InterpretKeyValue parses GET, PUT and DEL statements
	InterpretKeyValue(text string) (*Output, error)
}

// Language interpreter of the query language
type Language struct {
	Resolver   Resolver
	Converters *Converters
	Logger     *slog.Logger
	Debug      bool
}

// NewLanguage returns an interpreter keeping names as written and using the
// built-in conversions
func NewLanguage() *Language {
	return &Language{
		Resolver:   IdentityResolver{},
		Converters: NewConverters(),
	}
}

// Interpret parses and transforms a document statement
func (li *Language) Interpret(text string) (*Output, error) {
	stmt, err := language.Parse(text)
	if err != nil {
		return nil, err
	}

	return li.transform(text, stmt)
}

// InterpretKeyValue parses and transforms a key-value statement
func (li *Language) InterpretKeyValue(text string) (*Output, error) {
	stmt, err := language.ParseKeyValue(text)
	if err != nil {
		return nil, err
	}

	return li.transform(text, stmt)
}

func (li *Language) transform(text string, node language.Statement) (*Output, error) {
	t := &transformer{
		resolver:   li.Resolver,
		converters: li.Converters,
		params:     query.NewParams(),
	}

	if t.resolver == nil {
		t.resolver = IdentityResolver{}
	}

	if t.converters == nil {
		t.converters = NewConverters()
	}

	stmt, err := t.statement(node)
	if err != nil {
		return nil, err
	}

	if li.Debug {
		li.logger().Info("interpreted statement",
			slog.String("query", text),
			slog.String("statement", stmt.String()),
			slog.Any("params", t.params.Names()),
		)
	}

	return &Output{Statement: stmt, Params: t.params}, nil
}

func (li *Language) logger() *slog.Logger {
	if li.Logger == nil {
		return slog.Default()
	}

	return li.Logger
}
