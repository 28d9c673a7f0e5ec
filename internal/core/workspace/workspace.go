// # internal/core/workspace/workspace.go
package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"scriptls/internal/core/errors"
	"scriptls/internal/core/ports"

	"github.com/cespare/xxhash/v2"
)

type Options struct {
	Folders    []string // file system paths
	Extensions []string
	Exclude    []string
	Logger     *slog.Logger
}

type diskEntry struct {
	hash    uint64
	version int32
}

// Workspace is the OS-backed file collaborator. Documents opened in the
// editor shadow their on-disk copy until closed.
type Workspace struct {
	folders []string // URIs
	logger  *slog.Logger

	mu      sync.RWMutex
	filter  *Filter
	overlay map[string]ports.TextDocument
	disk    map[string]diskEntry
}

func New(opts Options) (*Workspace, error) {
	filter, err := NewFilter(opts.Extensions, opts.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid exclude pattern")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	folders := make([]string, 0, len(opts.Folders))
	for _, folder := range opts.Folders {
		folders = append(folders, strings.TrimSuffix(URIFromPath(folder), "/"))
	}

	return &Workspace{
		folders: folders,
		filter:  filter,
		logger:  logger,
		overlay: make(map[string]ports.TextDocument),
		disk:    make(map[string]diskEntry),
	}, nil
}

// Folders returns the workspace folder URIs.
func (w *Workspace) Folders() []string {
	return append([]string(nil), w.folders...)
}

// Open installs or replaces the editor copy of a document.
func (w *Workspace) Open(doc ports.TextDocument) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlay[doc.URI] = doc
}

// Close drops the editor copy of uri; later reads go to disk.
func (w *Workspace) Close(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.overlay, uri)
}

func (w *Workspace) IsOpen(uri string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.overlay[uri]
	return ok
}

func (w *Workspace) GetTextDocument(ctx context.Context, uri string) (*ports.TextDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.RLock()
	doc, ok := w.overlay[uri]
	w.mu.RUnlock()
	if ok {
		return &doc, nil
	}

	p, ok := PathFromURI(uri)
	if !ok {
		return nil, errors.NotFound(uri)
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, errors.NotFound(uri)
	}
	if err != nil {
		return nil, errors.Unavailable(uri, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	return &ports.TextDocument{
		URI:        uri,
		LanguageID: LanguageID,
		Version:    w.diskVersion(uri, text),
		Text:       text,
	}, nil
}

// diskVersion numbers the on-disk revisions of uri by content hash.
func (w *Workspace) diskVersion(uri, text string) int32 {
	h := xxhash.Sum64String(text)

	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.disk[uri]
	if !ok || entry.hash != h {
		entry = diskEntry{hash: h, version: entry.version + 1}
		w.disk[uri] = entry
	}
	return entry.version
}

func (w *Workspace) FindExistingPath(_ context.Context, primary string, alternates ...string) (string, bool) {
	for _, candidate := range append([]string{primary}, alternates...) {
		if w.IsOpen(candidate) {
			return candidate, true
		}
		p, ok := PathFromURI(candidate)
		if !ok {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func (w *Workspace) GetWorkspaceFolderURI(_ context.Context, uri string) (string, bool) {
	return folderFor(w.folders, uri)
}

// SetFilter replaces the filter used by workspace-wide listings.
func (w *Workspace) SetFilter(filter *Filter) {
	if filter == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.filter = filter
}

func (w *Workspace) GetWorkspaceRelatedFiles(ctx context.Context) ([]string, error) {
	w.mu.RLock()
	filter := w.filter
	w.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, folder := range w.folders {
		root, ok := PathFromURI(folder)
		if !ok {
			continue
		}

		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				w.logger.Debug("skipping unreadable path", "path", p, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			rel, relErr := filepath.Rel(root, p)
			if relErr != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") || filter.Excluded(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if filter.Match(rel) {
				seen[URIFromPath(p)] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	w.mu.RLock()
	for uri := range w.overlay {
		if folder, ok := folderFor(w.folders, uri); ok {
			if rel, _ := relativeTo(folder, uri); filter.Match(rel) {
				seen[uri] = struct{}{}
			}
		}
	}
	w.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for uri := range seen {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out, nil
}
