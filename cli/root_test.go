package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register every subcommand", func(t *testing.T) {
		root := RootCmd()
		names := make([]string, 0)
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		assert.Subset(t, names, []string{"serve", "seed", "ask", "status", "config"})
	})

	t.Run("Should apply YAML configuration and flag overrides", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "companion.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("retrieval:\n  top_k: 5\nllm:\n  default: gemini\n"), 0o600))
		root := RootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{
			"config", "show",
			"--config", cfgPath,
			"--env-file", filepath.Join(dir, "missing.env"),
			"--format", "json",
		})
		require.NoError(t, root.Execute())
		assert.Equal(t, int64(5), gjson.Get(out.String(), "retrieval.top_k").Int())
		assert.Equal(t, "gemini", gjson.Get(out.String(), "llm.default").String())
	})

	t.Run("Should report invalid configuration", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "companion.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("retrieval:\n  top_k: 50\n"), 0o600))
		root := RootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs([]string{"config", "show", "--config", cfgPath, "--env-file", ""})
		assert.Error(t, root.Execute())
	})
}
