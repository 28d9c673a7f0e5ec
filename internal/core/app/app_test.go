package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scriptls/internal/core/config"
	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"
	"scriptls/internal/core/workspace"
	"scriptls/internal/engine/merger"
	"scriptls/internal/engine/typeinfo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scheduler.Debounce = 10 * time.Millisecond
	cfg.Scheduler.LatestTimeout = time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, files map[string]string) (*App, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	a, err := New(cfg, []string{root}, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a, root
}

func uriOf(root, rel string) string {
	return workspace.URIFromPath(filepath.Join(root, filepath.FromSlash(rel)))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TypeAnalyzer.Strategy = "global"
	_, err := New(cfg, []string{t.TempDir()}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestApp_InstancesAreIndependent(t *testing.T) {
	a, _ := newTestApp(t, testConfig(), nil)
	b, _ := newTestApp(t, testConfig(), nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Documents, b.Documents)
}

func TestApp_DiagnosticsFollowEdits(t *testing.T) {
	a, root := newTestApp(t, testConfig(), nil)
	uri := uriOf(root, "main.src")

	a.DidOpen(ports.TextDocument{URI: uri, Version: 1, Text: "a = 1\n@@@\n"})
	require.Eventually(t, func() bool { return len(a.Diagnostics(uri)) == 1 }, 2*time.Second, 5*time.Millisecond)

	diag := a.Diagnostics(uri)[0]
	assert.Equal(t, 2, diag.Range.Start.Line)
	assert.Equal(t, int32(1), diag.Version)
	assert.Equal(t, SeverityError, diag.Severity)
	assert.Equal(t, []string{uri}, a.DiagnosticURIs())

	a.DidChange(ports.TextDocument{URI: uri, Version: 2, Text: "a = 1\n"})
	require.Eventually(t, func() bool { return len(a.Diagnostics(uri)) == 0 }, 2*time.Second, 5*time.Millisecond)

	a.DidChange(ports.TextDocument{URI: uri, Version: 3, Text: "@@@\na = 1\n"})
	require.Eventually(t, func() bool { return len(a.Diagnostics(uri)) == 1 }, 2*time.Second, 5*time.Millisecond)

	a.DidClose(uri)
	require.Eventually(t, func() bool {
		_, ok := a.Types.Get(uri)
		return len(a.Diagnostics(uri)) == 0 && !ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestApp_TypeTableAndLookup(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"lib.src":  "module.exports.greet = function(name)\n\treturn name\nend function\n",
		"util.src": "u = 1\n",
		"main.src": "#import lib from \"lib\"\n#include \"util.src\"\nm = 1\n",
	})
	ctx := context.Background()
	main := uriOf(root, "main.src")

	table, err := a.TypeTable(ctx, main)
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.True(t, table.Has("u"))
	assert.True(t, table.Has("m"))

	greet, ok, err := a.Lookup(ctx, main, "lib.greet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, typeinfo.KindFunction, greet.Kind)
	assert.Equal(t, []string{"name"}, greet.Params)

	_, ok, err = a.Lookup(ctx, main, "lib.missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = a.Lookup(ctx, main, "u.member")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.TypeTable(ctx, uriOf(root, "absent.src"))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestApp_OpenDocumentShadowsDisk(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"lib.src":  "onDisk = 1\n",
		"main.src": "#include \"lib.src\"\n",
	})
	lib := uriOf(root, "lib.src")
	a.DidOpen(ports.TextDocument{URI: lib, Version: 5, Text: "inEditor = 1\n"})

	table, err := a.TypeTable(context.Background(), uriOf(root, "main.src"))
	require.NoError(t, err)
	assert.True(t, table.Has("inEditor"))
	assert.False(t, table.Has("onDisk"))
}

func TestApp_HandleChangesReparsesCachedDocuments(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"lib.src":  "before = 1\n",
		"main.src": "#include \"lib.src\"\n",
	})
	ctx := context.Background()
	main := uriOf(root, "main.src")
	lib := uriOf(root, "lib.src")

	table, err := a.TypeTable(ctx, main)
	require.NoError(t, err)
	require.True(t, table.Has("before"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.src"), []byte("after = 1\n"), 0o644))
	a.HandleChanges(ctx, []string{lib})

	libDoc, err := a.Workspace.GetTextDocument(ctx, lib)
	require.NoError(t, err)
	a.Documents.GetLatest(ctx, *libDoc, time.Second)

	table, err = a.TypeTable(ctx, main)
	require.NoError(t, err)
	assert.True(t, table.Has("after"))
	assert.False(t, table.Has("before"))

	require.NoError(t, os.Remove(filepath.Join(root, "lib.src")))
	a.HandleChanges(ctx, []string{lib})
	_, cached := a.Documents.Cached(lib)
	assert.False(t, cached)
}

func TestApp_ApplyConfig(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{"main.src": "m = 1\n"})
	_, err := a.TypeTable(context.Background(), uriOf(root, "main.src"))
	require.NoError(t, err)
	require.Equal(t, 1, a.Merger.CacheLen())

	next := testConfig()
	next.TypeAnalyzer.Strategy = "workspace"
	a.ApplyConfig(next)
	assert.Equal(t, merger.StrategyWorkspace, a.Merger.Strategy())
	assert.Equal(t, 0, a.Merger.CacheLen())
	assert.Same(t, next, a.Config())

	invalid := testConfig()
	invalid.TypeAnalyzer.MaxParallel = -1
	a.ApplyConfig(invalid)
	assert.Same(t, next, a.Config())
}

func TestApp_ApplyConfigRebuildsFilter(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"main.src":        "m = 1\n",
		"vendor/skip.src": "s = 1\n",
	})
	ctx := context.Background()

	files, err := a.Workspace.GetWorkspaceRelatedFiles(ctx)
	require.NoError(t, err)
	assert.Contains(t, files, uriOf(root, "vendor/skip.src"))

	next := testConfig()
	next.TypeAnalyzer.Exclude = []string{"vendor"}
	a.ApplyConfig(next)

	files, err = a.Workspace.GetWorkspaceRelatedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{uriOf(root, "main.src")}, files)
}

func TestApp_WorkspaceGraphReportsCycles(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"a.src": "#include \"b.src\"\n",
		"b.src": "#include \"a.src\"\n",
		"c.src": "#include \"a.src\"\n",
	})

	g, err := a.WorkspaceGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{uriOf(root, "a.src"), uriOf(root, "b.src")}}, g.DetectCycles())

	tree, err := a.ImportGraph(context.Background(), uriOf(root, "c.src"))
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Size())
}

func TestHealthService(t *testing.T) {
	a, _ := newTestApp(t, testConfig(), nil)
	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, a.ID, status.Instance)
	assert.Contains(t, status.Components["merger"], "dependency")
}

func TestDiagnosticsFor_ErrorsWithoutPositionSpanDocument(t *testing.T) {
	assert.Equal(t, 3, wholeDocument("a\nb\nlast").End.Line)
	assert.Equal(t, 5, wholeDocument("a\nb\nlast").End.Character)

	a, root := newTestApp(t, testConfig(), nil)
	uri := uriOf(root, "x.src")
	doc := a.Documents.Get(ports.TextDocument{URI: uri, Text: "a = 1\n"})
	doc.Errors = []error{fmt.Errorf("boom")}

	diags := DiagnosticsFor(doc)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Range.Start.Line)
	assert.Equal(t, 2, diags[0].Range.End.Line)
	assert.Equal(t, "boom", diags[0].Message)
}

func TestApp_Check(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"ok.src":  "a = 1\n",
		"bad.src": "a = 1\n#include lib\n",
	})
	ctx := context.Background()

	diags, err := a.Check(ctx, uriOf(root, "ok.src"))
	require.NoError(t, err)
	assert.Empty(t, diags)

	diags, err = a.Check(ctx, uriOf(root, "bad.src"))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Range.Start.Line)
	assert.Equal(t, diags, a.Diagnostics(uriOf(root, "bad.src")))

	_, err = a.Check(ctx, uriOf(root, "missing.src"))
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestApp_ClosedDependencyStaysMerged(t *testing.T) {
	a, root := newTestApp(t, testConfig(), map[string]string{
		"lib.src":  "helper = 1\n",
		"main.src": "#include \"lib.src\"\n",
	})
	ctx := context.Background()
	main := uriOf(root, "main.src")

	table, err := a.TypeTable(ctx, main)
	require.NoError(t, err)
	require.True(t, table.Has("helper"))

	a.DidClose(uriOf(root, "lib.src"))
	table, err = a.TypeTable(ctx, main)
	require.NoError(t, err)
	assert.True(t, table.Has("helper"))

	// Let the cleared notification reach the app before editing again.
	time.Sleep(50 * time.Millisecond)
	a.DidChange(ports.TextDocument{URI: main, Version: 5, Text: "#include \"lib.src\"\nm = 5\n"})

	table, err = a.TypeTable(ctx, main)
	require.NoError(t, err)
	assert.True(t, table.Has("m"))
	assert.True(t, table.Has("helper"))
	_, ok := a.Types.Get(uriOf(root, "lib.src"))
	assert.True(t, ok)
}
