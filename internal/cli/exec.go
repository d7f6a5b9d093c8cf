package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/truora/miniql"
	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Params []string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <statement>",
		Short: "Run a statement against the configured backend",
		Long: `Run one statement and print the rows it returns. Parameters are bound
from --param flags, values are read as JSON and fall back to plain strings.

Example:
  miniql exec -c miniql.yaml 'SELECT * FROM God WHERE age > @age' --param age=18
  miniql exec -c miniql.yaml 'PUT {"Diana", @domain, 1 hour}' --param domain=hunt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "statement parameter as name=value (repeatable)")

	return cmd
}

func runExec(ctx context.Context, opts *ExecOptions, text string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params, err := parseParams(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid parameter", err)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}

	defer func() {
		if err := storage.Close(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	res, err := execute(ctx, NewEngine(cfg, logger), storage, text, params)
	if err != nil {
		return formatter.Error(err)
	}

	rows, err := res.All()
	if err != nil {
		return formatter.Error(err)
	}

	return formatter.Rows(rows)
}

type param struct {
	name  string
	value types.Value
}

func execute(ctx context.Context, engine *miniql.Engine, storage *Storage, text string, params []param) (*query.Result, error) {
	keyValue := miniql.IsKeyValue(text)

	if len(params) == 0 {
		if keyValue {
			return engine.QueryKeyValue(ctx, storage.KeyValue, text)
		}

		return engine.Query(ctx, storage.Documents, text)
	}

	var (
		stmt *miniql.PreparedStatement
		err  error
	)

	if keyValue {
		stmt, err = engine.PrepareKeyValue(storage.KeyValue, text)
	} else {
		stmt, err = engine.Prepare(storage.Documents, text)
	}

	if err != nil {
		return nil, err
	}

	for _, p := range params {
		stmt.Bind(p.name, p.value)
	}

	return stmt.Execute(ctx)
}

// parseParams reads name=value flags, keeping their order.
func parseParams(raw []string) ([]param, error) {
	params := make([]param, 0, len(raw))

	for _, r := range raw {
		name, text, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q must be name=value", r)
		}

		v, err := paramValue(text)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}

		params = append(params, param{name: strings.TrimPrefix(name, "@"), value: v})
	}

	return params, nil
}

func paramValue(text string) (types.Value, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()

	var raw interface{}
	if err := decoder.Decode(&raw); err != nil || decoder.More() {
		return types.String(text), nil
	}

	return types.ValueOf(raw)
}
