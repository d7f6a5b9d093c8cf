package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/truora/miniql/types"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Statement failed (syntax, query or storage error)
	ExitCommandError = 2 // Command error (bad configuration, unreachable backend)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Rows outputs statement rows, one per line in text format.
func (f *OutputFormatter) Rows(rows []types.Value) error {
	if f.Format == "json" {
		items := make([]interface{}, 0, len(rows))
		for _, row := range rows {
			items = append(items, row.Native())
		}

		return f.Success(items)
	}

	for _, row := range rows {
		fmt.Fprintln(f.Writer, row.String())
	}

	fmt.Fprintf(f.Writer, "(%d rows)\n", len(rows))

	return nil
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs a statement error and returns it as an ExitFailure.
func (f *OutputFormatter) Error(err error) error {
	code := "InternalFailure"
	message := err.Error()

	var qErr types.Error
	if errors.As(err, &qErr) {
		code = qErr.Code()
		message = qErr.Message()
	}

	if f.Format == "json" {
		if encErr := json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	}

	return WrapExitError(ExitFailure, "statement failed", err)
}
