package app

import (
	"context"
	"errors"
	"sort"
	"strings"

	"scriptls/internal/engine/document"
	"scriptls/internal/engine/syntax"
)

type Severity string

const SeverityError Severity = "error"

// Diagnostic is one problem reported for a document version.
type Diagnostic struct {
	URI      string
	Version  int32
	Range    syntax.Range
	Severity Severity
	Source   string
	Message  string
}

// DiagnosticsFor turns the parse errors of doc into diagnostics. Errors
// without a position span the whole document.
func DiagnosticsFor(doc *document.ActiveDocument) []Diagnostic {
	if doc == nil || len(doc.Errors) == 0 {
		return nil
	}

	out := make([]Diagnostic, 0, len(doc.Errors))
	for _, err := range doc.Errors {
		d := Diagnostic{
			URI:      doc.URI,
			Version:  doc.Version,
			Severity: SeverityError,
			Source:   "parser",
			Message:  err.Error(),
		}

		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			d.Range = syntaxErr.Range()
			d.Source = string(syntaxErr.Kind)
			d.Message = syntaxErr.Message
		} else {
			d.Range = wholeDocument(doc.Content)
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.Start.Line != out[j].Range.Start.Line {
			return out[i].Range.Start.Line < out[j].Range.Start.Line
		}
		return out[i].Range.Start.Character < out[j].Range.Start.Character
	})
	return out
}

func wholeDocument(text string) syntax.Range {
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	return syntax.Range{
		Start: syntax.Position{Line: 1, Character: 1},
		End:   syntax.Position{Line: len(lines), Character: len(last) + 1},
	}
}

// Check parses the current text of uri right away and returns its
// diagnostics.
func (a *App) Check(ctx context.Context, uri string) ([]Diagnostic, error) {
	doc, err := a.textDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	diags := DiagnosticsFor(a.Documents.Refresh(doc))
	a.setDiagnostics(uri, diags)
	return diags, nil
}

// Diagnostics returns the diagnostics of the latest parse of uri.
func (a *App) Diagnostics(uri string) []Diagnostic {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	return append([]Diagnostic(nil), a.diagnostics[uri]...)
}

// DiagnosticURIs returns every document that currently has diagnostics.
func (a *App) DiagnosticURIs() []string {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	out := make([]string, 0, len(a.diagnostics))
	for uri := range a.diagnostics {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

func (a *App) setDiagnostics(uri string, diags []Diagnostic) {
	a.diagMu.Lock()
	defer a.diagMu.Unlock()
	if len(diags) == 0 {
		delete(a.diagnostics, uri)
		return
	}
	a.diagnostics[uri] = diags
}

func (a *App) clearDiagnostics(uri string) {
	a.diagMu.Lock()
	defer a.diagMu.Unlock()
	delete(a.diagnostics, uri)
}
