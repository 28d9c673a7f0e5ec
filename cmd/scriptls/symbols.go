package main

import (
	"fmt"
	"strings"

	"scriptls/internal/engine/typeinfo"

	"github.com/spf13/cobra"
)

var flagLookup string

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the merged type table of a document",
	Long:  "Merges the type table of a document with those of its dependencies, using the configured strategy, and prints every symbol.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagLookup, "lookup", "", "print a single dotted name, e.g. lib.greet")
}

type cliSymbol struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Source  string      `json:"source,omitempty"`
	Params  []string    `json:"params,omitempty"`
	Members []cliSymbol `json:"members,omitempty"`
}

func runSymbols(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	uri, err := documentURI(args[0])
	if err != nil {
		return err
	}

	var symbols []cliSymbol
	if flagLookup != "" {
		entity, ok, err := a.Lookup(cmd.Context(), uri, flagLookup)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: no symbol %q", args[0], flagLookup)
		}
		symbols = []cliSymbol{toCLISymbol(entity, 0)}
	} else {
		table, err := a.TypeTable(cmd.Context(), uri)
		if err != nil {
			return err
		}
		symbols = tableSymbols(table, 0)
	}

	out := cmd.OutOrStdout()
	if flagFormat == "json" {
		return writeJSON(out, symbols)
	}
	printSymbols(cmd, symbols, 0)
	return nil
}

// maxMemberDepth bounds the output for namespaces that refer back to
// themselves.
const maxMemberDepth = 8

func tableSymbols(table *typeinfo.Table, depth int) []cliSymbol {
	if table == nil || depth > maxMemberDepth {
		return nil
	}
	out := make([]cliSymbol, 0, table.Len())
	for _, name := range table.Names() {
		entity, _ := table.Lookup(name)
		out = append(out, toCLISymbol(entity, depth))
	}
	return out
}

func toCLISymbol(e *typeinfo.Entity, depth int) cliSymbol {
	return cliSymbol{
		Name:    e.Name,
		Kind:    string(e.Kind),
		Source:  displayPath(e.Source),
		Params:  e.Params,
		Members: tableSymbols(e.Members, depth+1),
	}
}

func printSymbols(cmd *cobra.Command, symbols []cliSymbol, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range symbols {
		line := fmt.Sprintf("%s%s %s", indent, s.Name, s.Kind)
		if s.Kind == string(typeinfo.KindFunction) {
			line += "(" + strings.Join(s.Params, ", ") + ")"
		}
		if s.Source != "" {
			line += "  [" + s.Source + "]"
		}
		writeLine(cmd.OutOrStdout(), "%s", line)
		printSymbols(cmd, s.Members, depth+1)
	}
}
