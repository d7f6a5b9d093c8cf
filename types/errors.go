package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used by the query engine.
const (
	CodeSyntax           = "SyntaxError"
	CodeInvalidArgument  = "InvalidArgument"
	CodeQuery            = "QueryError"
	CodeNonUniqueResult  = "NonUniqueResult"
	codeBatchedErrors    = "BatchedErrors"
	paramWithoutPrepared = "To run a query with a parameter use a PrepareStatement instead."
)

var (
	// ErrSyntax when the query text cannot be lexed or parsed
	ErrSyntax = errors.New("syntax error")
	// ErrInvalidArgument when a condition or value is built with invalid arguments
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrQuery when a statement cannot run with the given parameters
	ErrQuery = errors.New("query error")
	// ErrNonUniqueResult when a single result was expected but many were found
	ErrNonUniqueResult = errors.New("non unique result")
)

var sentinels = map[string]error{
	CodeSyntax:          ErrSyntax,
	CodeInvalidArgument: ErrInvalidArgument,
	CodeQuery:           ErrQuery,
	CodeNonUniqueResult: ErrNonUniqueResult,
}

// An Error wraps lower level errors with code, message and an original error.
type Error interface {
	error

	Code() string
	Message() string
	OrigErr() error
}

// BatchedErrors is a batch of errors which also wraps lower level errors with
// code, message, and original errors.
type BatchedErrors interface {
	Error
	OrigErrs() []error
}

// NewError returns an Error object described by the code, message, and origErr.
func NewError(code, message string, origErr error) Error {
	var errs []error
	if origErr != nil {
		errs = append(errs, origErr)
	}

	return newBaseError(code, message, errs)
}

// NewBatchError returns an BatchedErrors with a collection of errors as an
// array of errors.
func NewBatchError(code, message string, errs []error) BatchedErrors {
	return newBaseError(code, message, errs)
}

// NewSyntaxError reports a malformed token stream or grammar violation.
func NewSyntaxError(format string, args ...interface{}) Error {
	return NewError(CodeSyntax, fmt.Sprintf(format, args...), nil)
}

// NewInvalidArgumentError reports an argument rejected at construction time.
func NewInvalidArgumentError(format string, args ...interface{}) Error {
	return NewError(CodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// NewQueryError reports a statement that cannot run as requested.
func NewQueryError(format string, args ...interface{}) Error {
	return NewError(CodeQuery, fmt.Sprintf(format, args...), nil)
}

// NewNonUniqueResultError reports a single result call that found n rows.
func NewNonUniqueResultError(n int) Error {
	return NewError(CodeNonUniqueResult, fmt.Sprintf("expected at most one result, found %d", n), nil)
}

// NewParamWithoutPreparedError is returned when a parameterized statement
// runs through the immediate path.
func NewParamWithoutPreparedError() Error {
	return NewError(CodeQuery, paramWithoutPrepared, nil)
}

// NewUnboundParamsError lists every parameter still missing a value.
func NewUnboundParamsError(names []string) Error {
	return NewError(CodeQuery, fmt.Sprintf("unbound parameters: %s", strings.Join(names, ", ")), nil)
}

// SprintError returns a string of the formatted error code.
func SprintError(code, message, extra string, origErr error) string {
	msg := fmt.Sprintf("%s: %s", code, message)
	if extra != "" {
		msg = fmt.Sprintf("%s\n\t%s", msg, extra)
	}

	if origErr != nil {
		msg = fmt.Sprintf("%s\ncaused by: %s", msg, origErr.Error())
	}

	return msg
}

type baseError struct {
	code    string
	message string
	errs    []error
}

func newBaseError(code, message string, origErrs []error) *baseError {
	return &baseError{
		code:    code,
		message: message,
		errs:    origErrs,
	}
}

// Error returns the string representation of the error.
func (b baseError) Error() string {
	if len(b.errs) > 0 {
		return SprintError(b.code, b.message, "", errorList(b.errs))
	}

	return SprintError(b.code, b.message, "", nil)
}

// String alias for Error to satisfy the stringer interface.
func (b baseError) String() string {
	return b.Error()
}

// Code returns the short phrase depicting the classification of the error.
func (b baseError) Code() string {
	return b.code
}

// Message returns the error details message.
func (b baseError) Message() string {
	return b.message
}

// OrigErr returns the original error if one was set. Only the first element
// is returned; use BatchedErrors for the full list.
func (b baseError) OrigErr() error {
	switch len(b.errs) {
	case 0:
		return nil
	case 1:
		return b.errs[0]
	default:
		if err, ok := b.errs[0].(Error); ok {
			return NewBatchError(err.Code(), err.Message(), b.errs[1:])
		}

		return NewBatchError(codeBatchedErrors, "multiple errors occurred", b.errs)
	}
}

// OrigErrs returns the original errors if one was set.
func (b baseError) OrigErrs() []error {
	return b.errs
}

// Is reports whether the error belongs to the taxonomy member target.
func (b baseError) Is(target error) bool {
	sentinel, ok := sentinels[b.code]

	return ok && sentinel == target
}

// Unwrap exposes the wrapped errors to errors.Is and errors.As.
func (b baseError) Unwrap() []error {
	return b.errs
}

type errorList []error

// Error returns the string representation of the error.
func (e errorList) Error() string {
	msg := ""

	for i, err := range e {
		msg += err.Error()
		if i+1 < len(e) {
			msg += "\n"
		}
	}

	return msg
}
