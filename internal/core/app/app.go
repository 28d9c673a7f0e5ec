package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"scriptls/internal/core/config"
	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"
	"scriptls/internal/core/workspace"
	"scriptls/internal/engine/document"
	"scriptls/internal/engine/graph"
	"scriptls/internal/engine/merger"
	"scriptls/internal/engine/syntax"
	"scriptls/internal/engine/typeinfo"
	"scriptls/internal/shared/observability"
	"scriptls/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// App owns one language-service context: the workspace, the parse cache,
// the type registry and the merge engine. Several Apps can live in one
// process.
type App struct {
	ID        string
	Workspace *workspace.Workspace
	Types     *typeinfo.Registry
	Documents *document.Manager
	Merger    *merger.Merger

	logger  *slog.Logger
	folders []string

	cfgMu  sync.RWMutex
	config *config.Config

	diagMu      sync.RWMutex
	diagnostics map[string][]Diagnostic

	limiter       *util.Limiter
	watcher       *workspace.Watcher
	configWatcher *config.Watcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an App for the given workspace folders (file system paths).
func New(cfg *config.Config, folders []string, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	strategy, err := merger.ParseStrategy(cfg.TypeAnalyzer.Strategy)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("instance", id)

	abs := make([]string, 0, len(folders))
	for _, folder := range folders {
		p, err := filepath.Abs(folder)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid workspace folder"), "path", folder)
		}
		abs = append(abs, p)
	}

	ws, err := workspace.New(workspace.Options{
		Folders:    abs,
		Extensions: cfg.FileExtensions,
		Exclude:    cfg.TypeAnalyzer.Exclude,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	types := typeinfo.NewRegistry()
	docs := document.NewManager(ws, syntax.NewParser(), types, document.Options{
		Debounce:       cfg.Scheduler.Debounce,
		TTL:            cfg.Scheduler.DocumentTTL,
		MaxDocuments:   cfg.Scheduler.MaxDocuments,
		FallbackSuffix: cfg.Resolve.FallbackSuffix,
		Logger:         logger,
	})
	m := merger.New(docs, types, merger.Options{
		Strategy:      strategy,
		CacheTTL:      cfg.TypeAnalyzer.CacheTTL,
		CacheSize:     cfg.TypeAnalyzer.CacheSize,
		LatestTimeout: cfg.Scheduler.LatestTimeout,
		MaxParallel:   cfg.TypeAnalyzer.MaxParallel,
		Logger:        logger,
	})

	return &App{
		ID:          id,
		Workspace:   ws,
		Types:       types,
		Documents:   docs,
		Merger:      m,
		logger:      logger,
		folders:     abs,
		config:      cfg,
		diagnostics: make(map[string][]Diagnostic),
		limiter:     util.NewEventLimiter(cfg.Watch.MaxEventsPerSecond),
	}, nil
}

func (a *App) Config() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.config
}

// Start consumes parse notifications and, when enabled, watches the
// workspace folders for changes made outside the editor.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	parsed := a.Documents.SubscribeParsed("")
	cleared := a.Documents.SubscribeCleared("")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer parsed.Close()
		defer cleared.Close()

		for {
			select {
			case ev := <-parsed.C():
				a.setDiagnostics(ev.URI, DiagnosticsFor(ev.Document))
			case ev := <-cleared.C():
				a.clearDiagnostics(ev.URI)
			case <-ctx.Done():
				return
			}
		}
	}()

	if a.Config().Watch.Enabled {
		if err := a.startWatcher(ctx); err != nil {
			cancel()
			a.wg.Wait()
			return err
		}
	}

	a.logger.Info("language service started", "folders", len(a.folders), "strategy", a.Merger.Strategy())
	return nil
}

// Close stops background work and drops every cached result.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var err error
	if a.watcher != nil {
		err = a.watcher.Close()
	}
	if a.configWatcher != nil {
		a.configWatcher.Stop()
	}
	a.wg.Wait()
	a.Documents.Close()
	a.Merger.FlushCache()
	return err
}

// DidOpen installs the editor copy of a document and schedules its parse.
func (a *App) DidOpen(doc ports.TextDocument) {
	if doc.LanguageID == "" {
		doc.LanguageID = workspace.LanguageID
	}
	a.Workspace.Open(doc)
	a.Documents.Schedule(doc)
}

// DidChange replaces the editor copy of a document and schedules a reparse.
func (a *App) DidChange(doc ports.TextDocument) {
	a.DidOpen(doc)
}

// DidClose drops the editor copy of uri together with its cached results.
func (a *App) DidClose(uri string) {
	a.Workspace.Close(uri)
	a.Documents.Clear(uri)
	a.Merger.FlushCacheKey(uri)
}

func (a *App) textDocument(ctx context.Context, uri string) (ports.TextDocument, error) {
	doc, err := a.Workspace.GetTextDocument(ctx, uri)
	if err != nil {
		return ports.TextDocument{}, err
	}
	return *doc, nil
}

// TypeTable returns the merged type table of uri under the configured
// strategy, or nil when the document has none.
func (a *App) TypeTable(ctx context.Context, uri string) (*typeinfo.Table, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.TypeTable", trace.WithAttributes(attribute.String("uri", uri)))
	defer span.End()

	doc, err := a.textDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	return a.Merger.Build(ctx, doc)
}

// Lookup resolves a dotted name such as "lib.greet" in the merged type
// table of uri.
func (a *App) Lookup(ctx context.Context, uri, name string) (*typeinfo.Entity, bool, error) {
	table, err := a.TypeTable(ctx, uri)
	if err != nil || table == nil {
		return nil, false, err
	}

	parts := strings.Split(name, ".")
	entity, ok := table.Lookup(parts[0])
	for _, part := range parts[1:] {
		if !ok || entity.Members == nil {
			return nil, false, nil
		}
		entity, ok = entity.Members.Lookup(part)
	}
	return entity, ok, nil
}

// ImportGraph returns the import tree rooted at uri.
func (a *App) ImportGraph(ctx context.Context, uri string) (*document.ImportNode, error) {
	doc, err := a.textDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	active := a.Documents.GetLatest(ctx, doc, a.Config().Scheduler.LatestTimeout)
	return active.ImportsGraph(ctx), nil
}

// WorkspaceGraph returns the dependency graph of every workspace document.
func (a *App) WorkspaceGraph(ctx context.Context) (*graph.Graph, error) {
	return a.Merger.WorkspaceGraph(ctx)
}

// ApplyConfig switches to cfg. The workspace and watcher filters are rebuilt
// and merged tables dropped, since exclusions and strategy change what a
// merge sees.
func (a *App) ApplyConfig(cfg *config.Config) {
	if errs := config.Validate(cfg); len(errs) > 0 {
		a.logger.Warn("ignoring invalid configuration", "error", errs[0])
		return
	}
	strategy, err := merger.ParseStrategy(cfg.TypeAnalyzer.Strategy)
	if err != nil {
		a.logger.Warn("ignoring invalid configuration", "error", err)
		return
	}
	filter, err := workspace.NewFilter(cfg.FileExtensions, cfg.TypeAnalyzer.Exclude)
	if err != nil {
		a.logger.Warn("ignoring invalid configuration", "error", err)
		return
	}

	a.cfgMu.Lock()
	a.config = cfg
	a.cfgMu.Unlock()

	a.limiter.SetRate(float64(cfg.Watch.MaxEventsPerSecond), cfg.Watch.MaxEventsPerSecond)
	a.Workspace.SetFilter(filter)
	if a.watcher != nil {
		a.watcher.SetDebounce(cfg.Watch.Debounce)
		a.watcher.SetFilter(filter)
	}
	a.Merger.SetStrategy(strategy)
	a.Merger.FlushCache()
	a.logger.Info("configuration applied", "strategy", strategy)
}

// WatchConfig reloads the configuration file at path whenever it changes.
func (a *App) WatchConfig(ctx context.Context, path string) error {
	w := config.NewWatcher(path, a.ApplyConfig, config.WatcherOptions{Logger: a.logger})
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.configWatcher = w
	return nil
}
