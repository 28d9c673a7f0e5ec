// # internal/core/workspace/uri.go
package workspace

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// LanguageID is reported for every document read from disk.
const LanguageID = "greyscript"

// URIFromPath converts a file system path into a file:// URI.
func URIFromPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// PathFromURI converts a file:// URI into a file system path.
func PathFromURI(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// relativeTo returns the slash-separated path of uri below folder.
func relativeTo(folder, uri string) (string, bool) {
	prefix := strings.TrimSuffix(folder, "/") + "/"
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	return path.Clean(strings.TrimPrefix(uri, prefix)), true
}

// folderFor returns the longest folder containing uri.
func folderFor(folders []string, uri string) (string, bool) {
	best := ""
	for _, folder := range folders {
		if _, ok := relativeTo(folder, uri); ok && len(folder) > len(best) {
			best = folder
		}
	}
	return best, best != ""
}
