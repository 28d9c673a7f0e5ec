package main

import (
	"fmt"

	"scriptls/internal/core/app"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Parse documents and report syntax diagnostics",
	Long:  "Parses the given documents, or every document of the workspace, and prints their diagnostics. Exits non-zero when a problem is found.",
	RunE:  runCheck,
}

type cliDiagnostic struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	uris, err := targetURIs(cmd, a, args)
	if err != nil {
		return err
	}

	var found []cliDiagnostic
	for _, uri := range uris {
		diags, err := a.Check(cmd.Context(), uri)
		if err != nil {
			return fmt.Errorf("checking %s: %w", displayPath(uri), err)
		}
		for _, d := range diags {
			found = append(found, toCLIDiagnostic(d))
		}
	}

	out := cmd.OutOrStdout()
	if flagFormat == "json" {
		if found == nil {
			found = []cliDiagnostic{}
		}
		if err := writeJSON(out, found); err != nil {
			return err
		}
	} else {
		for _, d := range found {
			writeLine(out, "%s:%d:%d: %s: %s", d.Path, d.Line, d.Column, d.Source, d.Message)
		}
	}

	if len(found) > 0 {
		return fmt.Errorf("%d problem(s) in %d document(s)", len(found), len(uris))
	}
	return nil
}

func toCLIDiagnostic(d app.Diagnostic) cliDiagnostic {
	return cliDiagnostic{
		Path:    displayPath(d.URI),
		Line:    d.Range.Start.Line,
		Column:  d.Range.Start.Character,
		Source:  d.Source,
		Message: d.Message,
	}
}
