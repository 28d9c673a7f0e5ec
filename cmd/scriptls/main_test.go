package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagConfig, flagWorkspace, flagFormat, flagVerbose = "", ".", "text", false
	flagLookup, flagCycles, flagOrder, flagRender = "", false, false, ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"ok.src":  "a = 1\n",
		"bad.src": "a = 1\n@@@\n",
	})

	out, err := execute(t, "check", "-w", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 problem(s)")
	assert.Contains(t, out, "bad.src:2:")

	out, err = execute(t, "check", "-w", root, filepath.Join(root, "ok.src"))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "check", "-w", root, "--format", "json", filepath.Join(root, "bad.src"))
	require.Error(t, err)
	var diags []cliDiagnostic
	require.NoError(t, json.Unmarshal([]byte(out), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "bad.src", diags[0].Path)
	assert.Equal(t, 2, diags[0].Line)
}

func TestSymbols(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"lib.src":  "module.exports.greet = function(name)\n\treturn name\nend function\n",
		"main.src": "#import lib from \"lib\"\nm = 1\n",
	})
	main := filepath.Join(root, "main.src")

	out, err := execute(t, "symbols", "-w", root, main)
	require.NoError(t, err)
	assert.Contains(t, out, "m number")
	assert.Contains(t, out, "greet function(name)")

	out, err = execute(t, "symbols", "-w", root, "--lookup", "lib.greet", "--format", "json", main)
	require.NoError(t, err)
	var symbols []cliSymbol
	require.NoError(t, json.Unmarshal([]byte(out), &symbols))
	require.Len(t, symbols, 1)
	assert.Equal(t, "function", symbols[0].Kind)
	assert.Equal(t, "lib.src", symbols[0].Source)

	_, err = execute(t, "symbols", "-w", root, "--lookup", "lib.nope", main)
	assert.Error(t, err)
}

func TestGraph(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.src": "#include \"b.src\"\n",
		"b.src": "#include \"a.src\"\n",
		"c.src": "#include \"a.src\"\n",
	})

	out, err := execute(t, "graph", "-w", root, "--cycles")
	require.NoError(t, err)
	assert.Equal(t, "a.src -> b.src -> a.src\n", out)

	out, err = execute(t, "graph", "-w", root, filepath.Join(root, "c.src"))
	require.NoError(t, err)
	assert.Equal(t, "c.src (root)\n  a.src (include)\n    b.src (include)\n      a.src (include)\n", out)

	out, err = execute(t, "graph", "-w", root, "--order", "--format", "json")
	require.NoError(t, err)
	var order []string
	require.NoError(t, json.Unmarshal([]byte(out), &order))
	assert.ElementsMatch(t, []string{"a.src", "b.src", "c.src"}, order)

	out, err = execute(t, "graph", "-w", root, "--render", "dot")
	require.NoError(t, err)
	assert.Contains(t, out, `"a.src" -> "b.src" [color="red"`)

	_, err = execute(t, "graph", "-w", root, "--render", "svg")
	assert.Error(t, err)

	_, err = execute(t, "graph", "-w", root, "--cycles", "--order")
	assert.Error(t, err)

	_, err = execute(t, "graph", "-w", root)
	assert.Error(t, err)
}

func TestRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "check", "-w", t.TempDir(), "--format", "yaml")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"scriptls.toml": "[type_analyzer]\nstrategy = \"global\"\n",
	})
	_, err := execute(t, "check", "-w", root)
	assert.Error(t, err)
}
