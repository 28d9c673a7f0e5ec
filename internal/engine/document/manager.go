// # internal/engine/document/manager.go
package document

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"
	"scriptls/internal/engine/syntax"
	"scriptls/internal/shared/observability"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultDebounce       = 100 * time.Millisecond
	DefaultLatestTimeout  = 5 * time.Second
	DefaultTTL            = 20 * time.Minute
	DefaultFallbackSuffix = ".src"

	eventBuffer = 16
)

// Parser is the syntax collaborator. Lenient parsing recovers from errors,
// strict parsing fails on the first one.
type Parser interface {
	ParseLenient(text string) (*syntax.Chunk, []error)
	ParseStrict(text string) (*syntax.Chunk, error)
}

// Analyzer receives every successfully parsed tree and builds the per
// document type table as a side effect. Forget drops that table when the
// document leaves the cache.
type Analyzer interface {
	Analyze(uri string, chunk *syntax.Chunk)
	Forget(uri string)
}

type Options struct {
	Debounce       time.Duration
	TTL            time.Duration
	MaxDocuments   int // 0 means unbounded
	FallbackSuffix string
	Logger         *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxDocuments < 0 {
		o.MaxDocuments = 0
	}
	if o.FallbackSuffix == "" {
		o.FallbackSuffix = DefaultFallbackSuffix
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type pendingItem struct {
	document    ports.TextDocument
	scheduledAt time.Time
}

// Manager is the parse cache and reparse scheduler. Every document has at
// most one cached ActiveDocument and at most one pending reparse.
type Manager struct {
	fs       ports.FileSystem
	parser   Parser
	analyzer Analyzer
	opts     Options
	logger   *slog.Logger

	results *expirable.LRU[string, *ActiveDocument]

	mu      sync.Mutex
	pending map[string]*pendingItem
	timer   *time.Timer
	closed  bool

	parsed  *Hub[ParsedEvent]
	cleared *Hub[ClearedEvent]
}

func NewManager(fs ports.FileSystem, parser Parser, analyzer Analyzer, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		fs:       fs,
		parser:   parser,
		analyzer: analyzer,
		opts:     opts,
		logger:   opts.Logger,
		results:  expirable.NewLRU[string, *ActiveDocument](opts.MaxDocuments, nil, opts.TTL),
		pending:  make(map[string]*pendingItem),
		parsed:   NewHub[ParsedEvent]("parsed"),
		cleared:  NewHub[ClearedEvent]("cleared"),
	}
}

func (m *Manager) FileSystem() ports.FileSystem {
	return m.fs
}

// Get returns the cached parse result for doc.URI, parsing synchronously on
// a miss.
func (m *Manager) Get(doc ports.TextDocument) *ActiveDocument {
	if cached, ok := m.results.Get(doc.URI); ok {
		return cached
	}
	return m.reparse(doc, nil)
}

// Cached returns the parse result for uri without parsing.
func (m *Manager) Cached(uri string) (*ActiveDocument, bool) {
	return m.results.Peek(uri)
}

// Refresh reparses doc immediately, replacing the cached result. A pending
// reparse of the same text is dropped.
func (m *Manager) Refresh(doc ports.TextDocument) *ActiveDocument {
	m.mu.Lock()
	item, ok := m.pending[doc.URI]
	if !ok || item.document.Text != doc.Text {
		item = nil
	}
	m.mu.Unlock()
	return m.reparse(doc, item)
}

// Open reads uri through the file collaborator and returns its parse result,
// or nil when the document cannot be read.
func (m *Manager) Open(ctx context.Context, uri string) *ActiveDocument {
	if cached, ok := m.results.Get(uri); ok {
		return cached
	}

	doc, err := m.fs.GetTextDocument(ctx, uri)
	if err != nil {
		m.logger.Debug("document unavailable", "uri", uri, "error", err)
		return nil
	}
	return m.Get(*doc)
}

// Schedule queues doc for reparsing after the debounce window. It returns
// false when the text equals the latest known version, pending or cached.
func (m *Manager) Schedule(doc ports.TextDocument) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	if item, ok := m.pending[doc.URI]; ok {
		if item.document.Text == doc.Text {
			observability.ScheduleTotal.WithLabelValues("unchanged").Inc()
			return false
		}
	} else if cached, ok := m.results.Peek(doc.URI); ok && cached.Content == doc.Text {
		observability.ScheduleTotal.WithLabelValues("unchanged").Inc()
		return false
	}

	m.pending[doc.URI] = &pendingItem{document: doc, scheduledAt: time.Now()}
	observability.ScheduleTotal.WithLabelValues("scheduled").Inc()
	observability.PendingReparses.Set(float64(len(m.pending)))

	if m.timer == nil {
		m.timer = time.AfterFunc(m.opts.Debounce, m.tick)
	}
	return true
}

// IsPending reports whether a reparse of uri is waiting for its window.
func (m *Manager) IsPending(uri string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[uri]
	return ok
}

// tick reparses every item whose quiet window has elapsed and re-arms the
// timer while items remain.
func (m *Manager) tick() {
	now := time.Now()

	m.mu.Lock()
	var due []*pendingItem
	for _, item := range m.pending {
		if now.Sub(item.scheduledAt) >= m.opts.Debounce {
			due = append(due, item)
		}
	}
	m.mu.Unlock()

	for _, item := range due {
		m.reparse(item.document, item)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	observability.PendingReparses.Set(float64(len(m.pending)))
	if m.closed || len(m.pending) == 0 {
		m.timer = nil
		return
	}

	next := m.opts.Debounce
	now = time.Now()
	for _, item := range m.pending {
		if wait := m.opts.Debounce - now.Sub(item.scheduledAt); wait < next {
			next = wait
		}
	}
	if next < time.Millisecond {
		next = time.Millisecond
	}
	m.timer = time.AfterFunc(next, m.tick)
}

// GetLatest waits for a pending reparse of doc to complete, bounded by
// timeout, and returns the cached result. A timeout or cancelled ctx falls
// back to whatever Get returns.
func (m *Manager) GetLatest(ctx context.Context, doc ports.TextDocument, timeout time.Duration) *ActiveDocument {
	if timeout <= 0 {
		timeout = DefaultLatestTimeout
	}

	sub := m.parsed.Subscribe(doc.URI, 1)
	defer sub.Close()

	if !m.IsPending(doc.URI) {
		return m.Get(doc)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-sub.C():
	case <-timer.C:
		observability.LatestTimeoutsTotal.Inc()
		m.logger.Debug("timed out waiting for reparse", "uri", doc.URI, "timeout", timeout)
	case <-ctx.Done():
	}
	return m.Get(doc)
}

// Clear evicts uri from the cache, drops its pending reparse and type table
// and publishes a cleared event. A later read of uri parses and analyzes it
// again, so the cached document and its table never get out of step.
func (m *Manager) Clear(uri string) {
	m.mu.Lock()
	delete(m.pending, uri)
	observability.PendingReparses.Set(float64(len(m.pending)))
	m.mu.Unlock()

	m.analyzer.Forget(uri)
	m.results.Remove(uri)

	m.cleared.Publish(uri, ClearedEvent{URI: uri})
}

// SubscribeParsed subscribes to parsed events for uri ("" for all).
func (m *Manager) SubscribeParsed(uri string) *Subscription[ParsedEvent] {
	return m.parsed.Subscribe(uri, eventBuffer)
}

// SubscribeCleared subscribes to cleared events for uri ("" for all).
func (m *Manager) SubscribeCleared(uri string) *Subscription[ClearedEvent] {
	return m.cleared.Subscribe(uri, eventBuffer)
}

// Close stops the scheduler and drops every cached result. Pending reparses
// are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.pending = make(map[string]*pendingItem)
	m.mu.Unlock()

	observability.PendingReparses.Set(0)
	m.results.Purge()
}

func (m *Manager) reparse(doc ports.TextDocument, item *pendingItem) *ActiveDocument {
	_, span := observability.Tracer.Start(context.Background(), "document.reparse")
	span.SetAttributes(
		attribute.String("uri", doc.URI),
		attribute.Int("version", int(doc.Version)),
	)
	defer span.End()

	ad := m.create(doc)
	m.results.Add(doc.URI, ad)
	observability.ReparsesTotal.Inc()

	if item != nil {
		m.mu.Lock()
		if current, ok := m.pending[doc.URI]; ok && current == item {
			delete(m.pending, doc.URI)
		}
		m.mu.Unlock()
	}

	m.parsed.Publish(doc.URI, ParsedEvent{URI: doc.URI, Document: ad})
	return ad
}

// create runs the two-tier parse. A lenient tree with statements is kept
// together with its errors; otherwise the strict parser decides.
func (m *Manager) create(doc ports.TextDocument) *ActiveDocument {
	ad := &ActiveDocument{
		URI:          doc.URI,
		Version:      doc.Version,
		Content:      doc.Text,
		TextDocument: doc,
		ParsedAt:     time.Now(),
		manager:      m,
	}

	start := time.Now()
	chunk, errs := m.parser.ParseLenient(doc.Text)
	observability.ParsingDuration.WithLabelValues("lenient").Observe(time.Since(start).Seconds())
	if chunk != nil && len(chunk.Body) > 0 {
		ad.Chunk = chunk
		ad.Errors = errs
		m.analyzer.Analyze(doc.URI, chunk)
		return ad
	}

	start = time.Now()
	strict, err := m.parser.ParseStrict(doc.Text)
	observability.ParsingDuration.WithLabelValues("strict").Observe(time.Since(start).Seconds())
	if err != nil {
		m.logger.Debug("document failed to parse", "uri", doc.URI, "version", doc.Version, "error", err)
		ad.Errors = []error{errors.AddContext(errors.Wrap(err, errors.CodeParse, "document failed to parse"), errors.CtxVersion, doc.Version)}
		return ad
	}

	ad.Chunk = strict
	m.analyzer.Analyze(doc.URI, strict)
	return ad
}
