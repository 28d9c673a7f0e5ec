package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scriptls/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
file_extensions = ["src", "gs"]

[resolve]
fallback_suffix = ".gs"

[scheduler]
debounce = "50ms"
latest_timeout = "2s"
document_ttl = "10m"
max_documents = 10

[type_analyzer]
strategy = "Workspace"
exclude = ["**/vendor/**"]
cache_ttl = "1m"
cache_size = 16
max_parallel = 2

[watch]
enabled = true
debounce = "1s"
max_events_per_second = 50
exclude_dirs = [".git", "node_modules"]

[observability]
metrics_address = "127.0.0.1:9464"
otlp_endpoint = "localhost:4317"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "gs"}, cfg.FileExtensions)
	assert.Equal(t, ".gs", cfg.Resolve.FallbackSuffix)
	assert.Equal(t, 50*time.Millisecond, cfg.Scheduler.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Scheduler.LatestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.DocumentTTL)
	assert.Equal(t, 10, cfg.Scheduler.MaxDocuments)
	assert.Equal(t, "workspace", cfg.TypeAnalyzer.Strategy)
	assert.Equal(t, []string{"**/vendor/**"}, cfg.TypeAnalyzer.Exclude)
	assert.Equal(t, time.Minute, cfg.TypeAnalyzer.CacheTTL)
	assert.Equal(t, 16, cfg.TypeAnalyzer.CacheSize)
	assert.Equal(t, 2, cfg.TypeAnalyzer.MaxParallel)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 50, cfg.Watch.MaxEventsPerSecond)
	assert.Equal(t, []string{".git", "node_modules"}, cfg.Watch.ExcludeDirs)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddress)
	assert.Equal(t, "localhost:4317", cfg.Observability.OTLPEndpoint)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"gs", "ms", "src"}, cfg.FileExtensions)
	assert.Equal(t, ".src", cfg.Resolve.FallbackSuffix)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.Debounce)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.LatestTimeout)
	assert.Equal(t, 20*time.Minute, cfg.Scheduler.DocumentTTL)
	assert.Equal(t, "dependency", cfg.TypeAnalyzer.Strategy)
	assert.Equal(t, 20*time.Minute, cfg.TypeAnalyzer.CacheTTL)
	assert.Equal(t, 8, cfg.TypeAnalyzer.MaxParallel)
	assert.False(t, cfg.Watch.Enabled)
	assert.Empty(t, Validate(cfg))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = Load(writeConfig(t, "version = \"one\""))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = Load(writeConfig(t, "[type_analyzer]\nstrategy = \"global\"\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "dependency", cfg.TypeAnalyzer.Strategy)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SCRIPTLS_TYPE_ANALYZER_STRATEGY", "WORKSPACE")
	t.Setenv("SCRIPTLS_TYPE_ANALYZER_EXCLUDE", "a/**, b/** ,")
	t.Setenv("SCRIPTLS_SCHEDULER_DEBOUNCE", "25ms")
	t.Setenv("SCRIPTLS_WATCH_ENABLED", "true")
	t.Setenv("SCRIPTLS_SCHEDULER_MAX_DOCUMENTS", "not-a-number")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "workspace", cfg.TypeAnalyzer.Strategy)
	assert.Equal(t, []string{"a/**", "b/**"}, cfg.TypeAnalyzer.Exclude)
	assert.Equal(t, 25*time.Millisecond, cfg.Scheduler.Debounce)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 4096, cfg.Scheduler.MaxDocuments)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "[type_analyzer]\nstrategy = \"dependency\"\n")

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg }, WatcherOptions{Debounce: 20 * time.Millisecond})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[type_analyzer]\nstrategy = \"workspace\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "workspace", cfg.TypeAnalyzer.Strategy)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcher_ReportsReloadError(t *testing.T) {
	path := writeConfig(t, "[type_analyzer]\nstrategy = \"dependency\"\n")

	failures := make(chan error, 1)
	w := NewWatcher(path, func(*Config) { t.Error("invalid configuration was applied") }, WatcherOptions{
		Debounce: 20 * time.Millisecond,
		OnError:  func(err error) { failures <- err },
	})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[type_analyzer]\nstrategy = \"global\"\n"), 0o644))

	select {
	case err := <-failures:
		var reloadErr *ReloadError
		require.ErrorAs(t, err, &reloadErr)
		assert.Equal(t, filepath.Clean(path), reloadErr.Path)
		assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestWatcher_ReloadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "[type_analyzer]\nstrategy = \"dependency\"\n")

	var applied *Config
	w := NewWatcher(path, func(cfg *Config) { applied = cfg }, WatcherOptions{})

	t.Setenv("SCRIPTLS_TYPE_ANALYZER_STRATEGY", "workspace")
	cfg, err := w.Reload()
	require.NoError(t, err)
	assert.Equal(t, "workspace", cfg.TypeAnalyzer.Strategy)
	assert.Same(t, cfg, applied)

	t.Setenv("SCRIPTLS_TYPE_ANALYZER_STRATEGY", "global")
	_, err = w.Reload()
	var reloadErr *ReloadError
	require.ErrorAs(t, err, &reloadErr)
	assert.Same(t, cfg, applied)

	require.NoError(t, os.Remove(path))
	_, err = w.Reload()
	require.ErrorAs(t, err, &reloadErr)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), DefaultFile), nil, WatcherOptions{})
	w.Stop()
	w.Stop()
}
