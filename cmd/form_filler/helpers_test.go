package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/form-filler/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const formPage = `<!DOCTYPE html>
<html><body>
<form>
	<input name="firstname">
	<input name="lastname">
	<input type="email" name="email">
	<select name="gender"><option value="">-</option><option value="F">Female</option><option value="M">Male</option></select>
</form>
</body></html>`

const anaRecord = `{"id":7,"first_name":"Ana","last_name":"Lima","email":"ana@x.io","gender":"Female"}`

// execute runs the root command in-process with fresh flag values and
// returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// isolateEnv clears the variables config.FromEnv reads and disables the
// settle delay so fills return immediately.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvBackendURL,
		config.EnvSessionURL,
		config.EnvDatabaseURL,
		config.EnvHighlightColor,
		config.EnvLogLevel,
		config.EnvLogFormat,
		config.EnvJWTSecret,
		config.EnvBrowserTimeout,
	} {
		t.Setenv(name, "")
	}
	t.Setenv(config.EnvSettleDelay, "-1")
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeConfig(t *testing.T, dir string, cfg map[string]any) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	return writeTemp(t, dir, "config.json", string(data))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
