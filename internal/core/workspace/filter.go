// # internal/core/workspace/filter.go
package workspace

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExtensions are the script file extensions of a workspace.
var DefaultExtensions = []string{"gs", "ms", "src"}

// Filter decides which workspace files take part in workspace-wide
// analysis.
type Filter struct {
	extensions map[string]bool
	excludes   []glob.Glob
}

func NewFilter(extensions, excludes []string) (*Filter, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	f := &Filter{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if normalized == "" {
			continue
		}
		f.extensions[normalized] = true
	}

	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		f.excludes = append(f.excludes, g)
	}
	return f, nil
}

// Excluded reports whether a slash-separated workspace relative path matches
// one of the exclusion patterns.
func (f *Filter) Excluded(rel string) bool {
	base := path.Base(rel)
	for _, g := range f.excludes {
		if g.Match(rel) || g.Match("/"+rel) || g.Match(base) {
			return true
		}
	}
	return false
}

// Match reports whether rel has a script extension and is not excluded.
func (f *Filter) Match(rel string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(rel)), ".")
	if !f.extensions[ext] {
		return false
	}
	return !f.Excluded(rel)
}
