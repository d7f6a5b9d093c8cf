package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "miniql", cmd.Use)
	assert.Contains(t, cmd.Long, "DynamoDB")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"explain", "exec", "serve"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestExecCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	execCmd, _, err := cmd.Find([]string{"exec"})
	require.NoError(t, err)

	paramFlag := execCmd.Flags().Lookup("param")
	require.NotNil(t, paramFlag)
	assert.Equal(t, "p", paramFlag.Shorthand)
	assert.Equal(t, "[]", paramFlag.DefValue)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	listenFlag := serveCmd.Flags().Lookup("listen")
	require.NotNil(t, listenFlag)
	assert.Equal(t, "", listenFlag.DefValue)
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "explain", "--format", "xml", "GET 1")
	require.ErrorContains(t, err, `invalid format "xml"`)
}

func TestExplain(t *testing.T) {
	c := require.New(t)

	out, err := run(t, "explain", "select * from God where a = @a or b = 1 and c = 2")
	c.NoError(err)
	c.Equal("SELECT * FROM God WHERE (a = @a OR (b = 1 AND c = 2))\nparams: a\n", out)

	out, err = run(t, "explain", "--format", "json", "SELECT * FROM God")
	c.NoError(err)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainOutput `json:"data"`
	}
	c.NoError(json.Unmarshal([]byte(out), &resp))
	c.Equal("ok", resp.Status)
	c.Equal("SELECT * FROM God", resp.Data.Statement)
	c.Empty(resp.Data.Params)
}

func TestExplainWithAliases(t *testing.T) {
	c := require.New(t)

	path := filepath.Join(t.TempDir(), "miniql.yaml")
	c.NoError(os.WriteFile(path, []byte("entities:\n  God: gods\n"), 0o600))

	out, err := run(t, "explain", "-c", path, "SELECT * FROM God")
	c.NoError(err)
	c.Equal("SELECT * FROM gods\n", out)
}

func TestExplainSyntaxError(t *testing.T) {
	c := require.New(t)

	out, err := run(t, "explain", "SELECT FROM God")
	c.Error(err)
	c.Equal(ExitFailure, GetExitCode(err))
	c.Contains(out, "Error [SyntaxError]")

	out, err = run(t, "explain", "--format", "json", "SELECT FROM God")
	c.Error(err)

	var resp CLIResponse
	c.NoError(json.Unmarshal([]byte(out), &resp))
	c.Equal("error", resp.Status)
	c.Equal("SyntaxError", resp.Error.Code)
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "explain", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "GET 1")
	require.Error(t, err)
	require.Equal(t, ExitCommandError, GetExitCode(err))
}
