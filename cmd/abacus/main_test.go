package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/abacus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args after resetting every flag to its default.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "abacus version "+abacus.Version+"\n", out)
}

func TestEval(t *testing.T) {
	out, err := execute(t, "", "eval", "2+3*4")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)

	out, err = execute(t, "", "eval", "--keys", "9", "√")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = execute(t, "", "eval", "--keys", "--json", "1+1=")
	require.NoError(t, err)
	assert.Contains(t, out, `"expression":"1+1"`)

	_, err = execute(t, "", "eval", "5+")
	assert.Error(t, err)

	_, err = execute(t, "", "eval", "--keys", "1÷0=")
	assert.ErrorContains(t, err, "Error")
}

func TestRun(t *testing.T) {
	out, err := execute(t, "7×6=\n:history\n", "run", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "= 42\n")
	assert.Contains(t, out, "`7×6` = **42**")
}

func TestSession_RequiresRedis(t *testing.T) {
	t.Setenv("ABACUS_REDIS_ADDR", "")
	_, err := execute(t, "", "session", "ls")
	assert.ErrorIs(t, err, errNoSharedStore)
}

func TestSession_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("ABACUS_REDIS_ADDR", mr.Addr())

	out, err := execute(t, "", "session", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No active sessions found.")

	_, err = execute(t, "3+3=\n", "run", "--quiet", "--session", "desk")
	require.NoError(t, err)

	out, err = execute(t, "", "session", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "- desk")

	out, err = execute(t, "", "session", "inspect", "desk")
	require.NoError(t, err)
	assert.Contains(t, out, `"buffer": "6"`)

	_, err = execute(t, "", "session", "rm")
	assert.Error(t, err)

	out, err = execute(t, "", "session", "rm", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'desk'")

	_, err = execute(t, "", "session", "inspect", "desk")
	assert.Error(t, err)
}
