// # internal/engine/document/document.go
package document

import (
	"context"
	"sync"
	"time"

	"scriptls/internal/core/ports"
	"scriptls/internal/engine/location"
	"scriptls/internal/engine/syntax"
)

// ActiveDocument is the parse result for one version of a document. A
// reparse produces a new ActiveDocument; instances are never mutated apart
// from the memoized dependency list.
type ActiveDocument struct {
	URI          string
	Version      int32
	Content      string
	TextDocument ports.TextDocument
	Chunk        *syntax.Chunk // nil when the document could not be parsed at all
	Errors       []error
	ParsedAt     time.Time

	manager *Manager

	depsMu sync.Mutex
	deps   []location.Location
	depsOK bool
}

// Parsed reports whether the document produced a syntax tree.
func (d *ActiveDocument) Parsed() bool {
	return d.Chunk != nil
}

// Directory returns the URI of the directory containing the document.
func (d *ActiveDocument) Directory() string {
	return dirURI(d.URI)
}

func (d *ActiveDocument) builder(workspaceFolder string) uriBuilder {
	return uriBuilder{
		root:            d.Directory(),
		workspaceFolder: workspaceFolder,
		fallbackSuffix:  d.manager.opts.FallbackSuffix,
		logger:          d.manager.logger,
	}
}

// NativeImportLocations resolves every import_code reference. Unresolvable
// targets are dropped.
func (d *ActiveDocument) NativeImportLocations(ctx context.Context, workspaceFolder string) []location.Location {
	if d.Chunk == nil || len(d.Chunk.NativeImports) == 0 {
		return nil
	}

	b := d.builder(workspaceFolder)
	out := make([]location.Location, 0, len(d.Chunk.NativeImports))
	for _, ref := range d.Chunk.NativeImports {
		if ref.Directory == "" {
			continue
		}
		target, ok := b.resolve(ctx, d.manager.fs, ref.Directory)
		if !ok {
			d.manager.logger.Debug("native import unresolved", "uri", d.URI, "path", ref.Directory)
			continue
		}
		out = append(out, location.Location{Kind: location.KindNativeImport, URI: target})
	}
	return out
}

// ImportLocations resolves every #import reference, carrying the binding
// name as the first argument when the statement names one.
func (d *ActiveDocument) ImportLocations(ctx context.Context, workspaceFolder string) []location.Location {
	if d.Chunk == nil || len(d.Chunk.Imports) == 0 {
		return nil
	}

	b := d.builder(workspaceFolder)
	out := make([]location.Location, 0, len(d.Chunk.Imports))
	for _, ref := range d.Chunk.Imports {
		if ref.Path == "" {
			continue
		}
		target, ok := b.resolve(ctx, d.manager.fs, ref.Path)
		if !ok {
			d.manager.logger.Debug("import unresolved", "uri", d.URI, "path", ref.Path)
			continue
		}
		loc := location.Location{Kind: location.KindImport, URI: target}
		if ref.Name != "" {
			loc.Args = []string{ref.Name}
		}
		out = append(out, loc)
	}
	return out
}

// IncludeLocations resolves every #include reference.
func (d *ActiveDocument) IncludeLocations(ctx context.Context, workspaceFolder string) []location.Location {
	if d.Chunk == nil || len(d.Chunk.Includes) == 0 {
		return nil
	}

	b := d.builder(workspaceFolder)
	out := make([]location.Location, 0, len(d.Chunk.Includes))
	for _, ref := range d.Chunk.Includes {
		if ref.Path == "" {
			continue
		}
		target, ok := b.resolve(ctx, d.manager.fs, ref.Path)
		if !ok {
			d.manager.logger.Debug("include unresolved", "uri", d.URI, "path", ref.Path)
			continue
		}
		out = append(out, location.Location{Kind: location.KindInclude, URI: target})
	}
	return out
}

// Dependencies returns the union of native imports, imports and includes.
// The list is computed once per instance; a computation interrupted by ctx
// is returned but not memoized.
func (d *ActiveDocument) Dependencies(ctx context.Context) []location.Location {
	if d.Chunk == nil {
		return nil
	}

	d.depsMu.Lock()
	defer d.depsMu.Unlock()
	if d.depsOK {
		return d.deps
	}

	folder, _ := d.manager.fs.GetWorkspaceFolderURI(ctx, d.URI)

	var all []location.Location
	all = append(all, d.NativeImportLocations(ctx, folder)...)
	all = append(all, d.ImportLocations(ctx, folder)...)
	all = append(all, d.IncludeLocations(ctx, folder)...)
	deps := location.Unique(all)

	if ctx.Err() == nil {
		d.deps = deps
		d.depsOK = true
	}
	return deps
}
