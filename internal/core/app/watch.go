package app

import (
	"context"

	"scriptls/internal/core/errors"
	"scriptls/internal/core/workspace"
)

func (a *App) startWatcher(ctx context.Context) error {
	cfg := a.Config()
	filter, err := workspace.NewFilter(cfg.FileExtensions, cfg.TypeAnalyzer.Exclude)
	if err != nil {
		return err
	}

	w, err := workspace.NewWatcher(cfg.Watch.Debounce, cfg.Watch.ExcludeDirs, filter, func(uris []string) {
		a.HandleChanges(ctx, uris)
	})
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Watch(a.folders)
}

// HandleChanges reacts to documents changed on disk. Documents open in the
// editor are left alone; deleted documents are cleared and cached ones are
// scheduled for reparsing.
func (a *App) HandleChanges(ctx context.Context, uris []string) {
	for _, uri := range uris {
		if a.Workspace.IsOpen(uri) {
			continue
		}
		if err := a.limiter.Wait(ctx, 1); err != nil {
			return
		}

		doc, err := a.Workspace.GetTextDocument(ctx, uri)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				a.Documents.Clear(uri)
				a.Merger.FlushCacheKey(uri)
				continue
			}
			a.logger.Debug("failed to read changed document", "uri", uri, "code", errors.CodeOf(err), "error", err)
			continue
		}

		if _, cached := a.Documents.Cached(uri); cached {
			a.Documents.Schedule(*doc)
		}
	}
}
