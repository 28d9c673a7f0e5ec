// # internal/core/workspace/memory.go
package workspace

import (
	"context"
	"sort"
	"sync"

	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"
)

// Memory is an in-memory file collaborator. It backs the CLI when documents
// are supplied directly and the tests of the engine packages.
type Memory struct {
	mu      sync.RWMutex
	folders []string
	filter  *Filter
	files   map[string]ports.TextDocument
}

func NewMemory(folders ...string) *Memory {
	filter, _ := NewFilter(nil, nil)
	return &Memory{
		folders: folders,
		filter:  filter,
		files:   make(map[string]ports.TextDocument),
	}
}

// SetFilter replaces the extension and exclusion filter.
func (m *Memory) SetFilter(f *Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
}

// Put stores text under uri, bumping the version when the text changes.
func (m *Memory) Put(uri, text string) ports.TextDocument {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.files[uri]
	if ok && doc.Text == text {
		return doc
	}
	doc = ports.TextDocument{URI: uri, LanguageID: LanguageID, Version: doc.Version + 1, Text: text}
	m.files[uri] = doc
	return doc
}

func (m *Memory) Remove(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, uri)
}

// Document returns the stored copy of uri.
func (m *Memory) Document(uri string) (ports.TextDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.files[uri]
	return doc, ok
}

func (m *Memory) GetTextDocument(ctx context.Context, uri string) (*ports.TextDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := m.Document(uri)
	if !ok {
		return nil, errors.NotFound(uri)
	}
	return &doc, nil
}

func (m *Memory) FindExistingPath(_ context.Context, primary string, alternates ...string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, candidate := range append([]string{primary}, alternates...) {
		if _, ok := m.files[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func (m *Memory) GetWorkspaceFolderURI(_ context.Context, uri string) (string, bool) {
	return folderFor(m.folders, uri)
}

func (m *Memory) GetWorkspaceRelatedFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for uri := range m.files {
		folder, ok := folderFor(m.folders, uri)
		if !ok {
			continue
		}
		rel, _ := relativeTo(folder, uri)
		if m.filter.Match(rel) {
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out, nil
}
