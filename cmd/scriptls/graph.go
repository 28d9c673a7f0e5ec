package main

import (
	"fmt"
	"strings"

	"scriptls/internal/engine/document"
	"scriptls/internal/engine/graph"
	"scriptls/internal/output"

	"github.com/spf13/cobra"
)

var (
	flagCycles bool
	flagOrder  bool
	flagRender string
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print the import tree of a document or workspace-wide graph reports",
	Long:  "Without flags, prints the import tree rooted at the given document. --cycles lists dependency cycles across the workspace and --order prints every document after its dependencies. --render draws the workspace graph as dot, mermaid or tsv.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().BoolVar(&flagCycles, "cycles", false, "report dependency cycles across the workspace")
	graphCmd.Flags().BoolVar(&flagOrder, "order", false, "print workspace documents in dependency order")
	graphCmd.Flags().StringVar(&flagRender, "render", "", "render the workspace graph: dot|mermaid|tsv")
}

type cliImportNode struct {
	Path     string          `json:"path"`
	Kind     string          `json:"kind"`
	Children []cliImportNode `json:"children,omitempty"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	workspaceModes := 0
	for _, set := range []bool{flagCycles, flagOrder, flagRender != ""} {
		if set {
			workspaceModes++
		}
	}
	if workspaceModes > 1 {
		return fmt.Errorf("--cycles, --order and --render cannot be used together")
	}
	if workspaceModes == 0 && len(args) == 0 {
		return fmt.Errorf("a file is required unless --cycles, --order or --render is given")
	}

	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	out := cmd.OutOrStdout()

	if workspaceModes > 0 {
		g, err := a.WorkspaceGraph(cmd.Context())
		if err != nil {
			return err
		}

		if flagRender != "" {
			rendered, err := render(g, flagRender)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		}

		if flagOrder {
			paths := displayPaths(g.Order())
			if flagFormat == "json" {
				return writeJSON(out, paths)
			}
			for _, p := range paths {
				writeLine(out, "%s", p)
			}
			return nil
		}

		cycles := make([][]string, 0)
		for _, cycle := range g.DetectCycles() {
			cycles = append(cycles, displayPaths(cycle))
		}
		if flagFormat == "json" {
			return writeJSON(out, cycles)
		}
		if len(cycles) == 0 {
			writeLine(out, "no cycles")
			return nil
		}
		for _, cycle := range cycles {
			writeLine(out, "%s -> %s", strings.Join(cycle, " -> "), cycle[0])
		}
		return nil
	}

	uri, err := documentURI(args[0])
	if err != nil {
		return err
	}
	root, err := a.ImportGraph(cmd.Context(), uri)
	if err != nil {
		return err
	}

	if flagFormat == "json" {
		return writeJSON(out, toCLINode(root))
	}
	root.Walk(func(node *document.ImportNode, depth int) {
		writeLine(out, "%s%s (%s)", strings.Repeat("  ", depth), displayPath(node.URI()), node.Location.Kind)
	})
	return nil
}

func render(g *graph.Graph, format string) (string, error) {
	switch format {
	case "dot":
		return output.NewDOTGenerator(g, displayPath).Generate(g.DetectCycles())
	case "mermaid":
		return output.NewMermaidGenerator(g, displayPath).Generate(g.DetectCycles())
	case "tsv":
		return output.NewTSVGenerator(g, displayPath).Generate()
	default:
		return "", fmt.Errorf("invalid --render %q: must be dot, mermaid or tsv", format)
	}
}

func toCLINode(n *document.ImportNode) cliImportNode {
	node := cliImportNode{Path: displayPath(n.URI()), Kind: string(n.Location.Kind)}
	for _, child := range n.Children {
		node.Children = append(node.Children, toCLINode(child))
	}
	return node
}

func displayPaths(uris []string) []string {
	out := make([]string, len(uris))
	for i, uri := range uris {
		out[i] = displayPath(uri)
	}
	return out
}
