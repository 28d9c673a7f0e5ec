package main

import (
	"encoding/json"
	"fmt"
	"io"

	"scriptls/internal/core/workspace"
)

func workspaceURI(path string) string {
	return workspace.URIFromPath(path)
}

func workspacePath(uri string) string {
	p, ok := workspace.PathFromURI(uri)
	if !ok {
		return uri
	}
	return p
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
