package ports

import "context"

// TextDocument is one version of a document's text as seen by the editor or
// read from disk.
type TextDocument struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// FileSystem is the file/workspace collaborator. Every miss (unreadable
// document, unresolvable path, no workspace folder) is reported as a missing
// result, never as a reason to fail the caller.
type FileSystem interface {
	// GetTextDocument returns the open editor copy of uri, or reads it from
	// disk. A missing document yields an error with code NOT_FOUND.
	GetTextDocument(ctx context.Context, uri string) (*TextDocument, error)
	// FindExistingPath returns the first of primary and alternates that exists.
	FindExistingPath(ctx context.Context, primary string, alternates ...string) (string, bool)
	// GetWorkspaceFolderURI returns the workspace folder containing uri.
	GetWorkspaceFolderURI(ctx context.Context, uri string) (string, bool)
	// GetWorkspaceRelatedFiles lists every script document of the workspace
	// that passes the configured extension and exclusion filters.
	GetWorkspaceRelatedFiles(ctx context.Context) ([]string, error)
}
