// # internal/engine/merger/merger.go
package merger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"
	"scriptls/internal/engine/document"
	"scriptls/internal/engine/location"
	"scriptls/internal/engine/typeinfo"
	"scriptls/internal/shared/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

type Strategy string

const (
	StrategyDependency Strategy = "dependency"
	StrategyWorkspace  Strategy = "workspace"
)

const (
	DefaultCacheTTL    = 20 * time.Minute
	DefaultMaxParallel = 8
)

// ParseStrategy accepts the configuration spelling of a strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyDependency, "":
		return StrategyDependency, nil
	case StrategyWorkspace:
		return StrategyWorkspace, nil
	default:
		return "", errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("unknown strategy %q", s)),
			errors.CtxStrategy, s,
		)
	}
}

// TypeSource returns the unmerged type table of a document.
type TypeSource interface {
	Get(uri string) (*typeinfo.Table, bool)
}

type Options struct {
	Strategy      Strategy
	CacheTTL      time.Duration
	CacheSize     int // 0 means unbounded
	LatestTimeout time.Duration
	MaxParallel   int
	Logger        *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyDependency
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.CacheSize < 0 {
		o.CacheSize = 0
	}
	if o.LatestTimeout <= 0 {
		o.LatestTimeout = document.DefaultLatestTimeout
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = DefaultMaxParallel
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Merger builds the type table of a document merged with the tables of its
// dependencies. Results are cached by a key covering the versions of every
// document involved.
type Merger struct {
	documents *document.Manager
	types     TypeSource
	opts      Options
	logger    *slog.Logger

	mu       sync.Mutex
	strategy Strategy
	keys     map[string]uint32

	cache *expirable.LRU[uint32, *typeinfo.Table]
	group singleflight.Group
}

func New(documents *document.Manager, types TypeSource, opts Options) *Merger {
	opts = opts.withDefaults()
	return &Merger{
		documents: documents,
		types:     types,
		opts:      opts,
		logger:    opts.Logger,
		strategy:  opts.Strategy,
		keys:      make(map[string]uint32),
		cache:     expirable.NewLRU[uint32, *typeinfo.Table](opts.CacheSize, nil, opts.CacheTTL),
	}
}

func (m *Merger) Strategy() Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// SetStrategy switches the merge strategy and drops every cached result.
func (m *Merger) SetStrategy(s Strategy) {
	m.mu.Lock()
	changed := m.strategy != s
	m.strategy = s
	m.mu.Unlock()

	if changed {
		m.FlushCache()
	}
}

// Build returns the merged type table of doc, or nil when doc has no type
// table. The only error is a cancelled ctx.
func (m *Merger) Build(ctx context.Context, doc ports.TextDocument) (*typeinfo.Table, error) {
	strategy := m.Strategy()

	ctx, span := observability.Tracer.Start(ctx, "merger.build")
	span.SetAttributes(
		attribute.String("uri", doc.URI),
		attribute.String("strategy", string(strategy)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		observability.MergeDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	}()

	var (
		table *typeinfo.Table
		err   error
	)
	switch strategy {
	case StrategyWorkspace:
		table, err = m.buildWorkspace(ctx, strategy, doc)
	default:
		table, err = m.buildDependency(ctx, strategy, doc)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return table, nil
}

// FlushCacheKey drops the cached result last registered for uri.
func (m *Merger) FlushCacheKey(uri string) {
	m.mu.Lock()
	key, ok := m.keys[uri]
	delete(m.keys, uri)
	m.mu.Unlock()

	if ok {
		m.cache.Remove(key)
	}
}

// FlushCache drops every cached result.
func (m *Merger) FlushCache() {
	m.mu.Lock()
	m.keys = make(map[string]uint32)
	m.mu.Unlock()
	m.cache.Purge()
}

// CacheKeyFor returns the key last registered for uri.
func (m *Merger) CacheKeyFor(uri string) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[uri]
	return key, ok
}

// CacheLen returns the number of cached results.
func (m *Merger) CacheLen() int {
	return m.cache.Len()
}

// lookup returns the cached table for key and registers key for uri.
func (m *Merger) lookup(strategy Strategy, uri string, key uint32) (*typeinfo.Table, bool) {
	table, ok := m.cache.Get(key)
	if !ok {
		observability.MergeCacheRequests.WithLabelValues(string(strategy), "miss").Inc()
		return nil, false
	}
	observability.MergeCacheRequests.WithLabelValues(string(strategy), "hit").Inc()
	m.register(uri, key)
	return table, true
}

// store caches table under key. The previous key of uri is removed when it
// differs.
func (m *Merger) store(uri string, key uint32, table *typeinfo.Table) {
	m.cache.Add(key, table)
	m.register(uri, key)
}

func (m *Merger) register(uri string, key uint32) {
	m.mu.Lock()
	old, ok := m.keys[uri]
	m.keys[uri] = key
	m.mu.Unlock()

	if ok && old != key {
		m.cache.Remove(old)
	}
}

// once runs fn at most once at a time per key. The flight runs on a context
// detached from the caller's cancellation, so one caller giving up does not
// fail the others; each caller still returns as soon as its own ctx is done.
func (m *Merger) once(ctx context.Context, key uint32, fn func(context.Context) (*typeinfo.Table, error)) (*typeinfo.Table, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(strconv.FormatUint(uint64(key), 16), func() (interface{}, error) {
		return fn(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		table, _ := res.Val.(*typeinfo.Table)
		return table, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// combine merges own with the resolved tables of its dependencies. Named
// imports install the dependency's exports as a namespace, bindingless
// imports contribute nothing and every other kind is flattened in.
func combine(own *typeinfo.Table, deps []location.Location, resolved []*typeinfo.Table) *typeinfo.Table {
	result := own
	var flattened []*typeinfo.Table
	for i, loc := range deps {
		dep := resolved[i]
		if dep == nil {
			continue
		}
		if loc.Kind == location.KindImport {
			if ns := loc.Namespace(); ns != "" {
				result = result.WithNamespace(ns, dep.Exports())
			}
			continue
		}
		flattened = append(flattened, dep)
	}
	return result.Merge(flattened...)
}
