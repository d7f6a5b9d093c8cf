package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ExplainOutput is the JSON payload of the explain command.
type ExplainOutput struct {
	Statement string   `json:"statement"`
	Params    []string `json:"params"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <statement>",
		Short: "Print the normalized form of a statement",
		Long: `Parse a statement and print it the way the engine understands it, with
explicit grouping and resolved names. Nothing is executed.

Example:
  miniql explain 'select * from God where a = 1 or b = 2 and c = @c'
  miniql explain --format json 'GET "Diana"'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
}

func runExplain(opts *RootOptions, text string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	engine := NewEngine(cfg, newLogger(opts, cmd.ErrOrStderr()))

	stmt, params, err := engine.Explain(text)
	if err != nil {
		return formatter.Error(err)
	}

	if opts.Format == "json" {
		if params == nil {
			params = []string{}
		}

		return formatter.Success(ExplainOutput{Statement: stmt, Params: params})
	}

	fmt.Fprintln(cmd.OutOrStdout(), stmt)

	if len(params) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "params: %s\n", strings.Join(params, ", "))
	}

	return nil
}
