// # internal/engine/document/uri.go
package document

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"scriptls/internal/core/ports"
)

// dirURI returns the URI of the directory containing uri.
func dirURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		idx := strings.LastIndex(uri, "/")
		if idx < 0 {
			return uri
		}
		return uri[:idx]
	}
	u.Path = path.Dir(u.Path)
	u.RawPath = ""
	return u.String()
}

// joinURI appends a slash-separated path to base and cleans the result.
func joinURI(base, p string) string {
	u, err := url.Parse(base)
	if err != nil {
		return path.Join(base, p)
	}
	u.Path = path.Join(u.Path, p)
	u.RawPath = ""
	return u.String()
}

// uriBuilder resolves the textual path of a reference. Relative paths are
// taken from the referencing document's directory, rooted paths from the
// workspace folder.
type uriBuilder struct {
	root            string
	workspaceFolder string
	fallbackSuffix  string
	logger          *slog.Logger
}

func (b uriBuilder) fromWorkspaceFolder(p string) string {
	if b.workspaceFolder == "" {
		b.logger.Debug("workspace folder unavailable, resolving rooted path relative to document", "path", p, "root", b.root)
		return joinURI(b.root, p)
	}
	return joinURI(b.workspaceFolder, p)
}

func (b uriBuilder) fromRoot(p string) string {
	return joinURI(b.root, p)
}

// resolve returns the URI of the existing target: the path itself or the
// path with the fallback suffix appended.
func (b uriBuilder) resolve(ctx context.Context, fs ports.FileSystem, p string) (string, bool) {
	var primary string
	if strings.HasPrefix(p, "/") {
		primary = b.fromWorkspaceFolder(p)
	} else {
		primary = b.fromRoot(p)
	}
	if b.fallbackSuffix == "" {
		return fs.FindExistingPath(ctx, primary)
	}
	return fs.FindExistingPath(ctx, primary, primary+b.fallbackSuffix)
}
