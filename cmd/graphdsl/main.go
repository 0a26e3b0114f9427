// Command graphdsl runs the graph DSL engine against one tree-sitter
// query and one target source file, printing the resulting graph.
//
// For every match of the query, it creates one graph node and attaches
// one attribute per named capture, whose value is that capture's
// source text. This is
// a thin demonstration driver, not a DSL-stanza-source parser: building
// a full stanza language front end is out of scope for the engine this
// command wires together (see the module's design notes).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/viant/graphdsl"
	"github.com/viant/graphdsl/functions"
	"github.com/viant/graphdsl/hostutil"
	"github.com/viant/graphdsl/ident"
)

func main() {
	sourcePath := flag.String("source", "", "path to the target source file")
	queryPath := flag.String("query", "", "path to a tree-sitter query pattern file")
	globalsPath := flag.String("globals", "", "optional path to a globals.yaml file")
	lazy := flag.Bool("lazy", false, "run the lazy interpreter instead of the eager one")
	flag.Parse()

	if *sourcePath == "" || *queryPath == "" {
		fmt.Fprintln(os.Stderr, "usage: graphdsl -source <file> -query <file> [-globals <file>] [-lazy]")
		os.Exit(2)
	}

	if err := run(*sourcePath, *queryPath, *globalsPath, *lazy); err != nil {
		fmt.Fprintln(os.Stderr, "graphdsl:", err)
		os.Exit(1)
	}
}

func run(sourcePath, queryPath, globalsPath string, lazy bool) error {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	pattern, err := os.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("reading query: %w", err)
	}

	lang := python.GetLanguage()
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return fmt.Errorf("parsing source: %w", err)
	}

	query := sitter.NewQuery(pattern, lang)

	idc := ident.NewContext()
	stanza := buildDemoStanza(query, idc)
	file := &graphdsl.File{
		Stanzas:           []*graphdsl.Stanza{stanza},
		AllowSyntaxErrors: true,
	}

	globals := graphdsl.NewGlobals()
	if globalsPath != "" {
		globals, err = hostutil.LoadGlobals(ctx, globalsPath, idc)
		if err != nil {
			return fmt.Errorf("loading globals: %w", err)
		}
	}

	registry := functions.Stdlib()

	var graph *graphdsl.Graph
	if lazy {
		file.CombinedQuery = query
		graph, err = file.ExecuteLazy(idc, tree, source, registry, globals, logger)
	} else {
		graph, err = file.Execute(idc, tree, source, registry, globals, logger)
	}
	if err != nil {
		return fmt.Errorf("executing: %w", err)
	}

	fmt.Print(graph.Display(idc))
	return nil
}

// buildDemoStanza wires the compiled query into a single stanza: each
// match creates a new graph node, and every named capture becomes a
// node attribute holding that capture's source text.
func buildDemoStanza(query *sitter.Query, idc *ident.Context) *graphdsl.Stanza {
	names := captureNames(query)

	nodeVar := &graphdsl.UnscopedVariable{Name: idc.Intern("n"), NameText: "n"}
	statements := []graphdsl.Statement{
		graphdsl.CreateGraphNode{Node: nodeVar},
	}

	if len(names) > 0 {
		var attrs []graphdsl.Attribute
		for i, name := range names {
			attrs = append(attrs, graphdsl.Attribute{
				Name:     idc.Intern(name),
				NameText: name,
				Value: &graphdsl.Call{
					Function: "source-text",
					Parameters: []graphdsl.Expression{
						&graphdsl.Capture{Name: name, StanzaCaptureIndex: i, FileCaptureIndex: i, Quantifier: graphdsl.QuantifierOne},
					},
				},
			})
		}
		statements = append(statements, graphdsl.AddGraphNodeAttribute{Node: nodeVar, Attributes: attrs})
	}

	return &graphdsl.Stanza{Query: query, FullMatchCaptureIndex: -1, Statements: statements}
}

func captureNames(query *sitter.Query) []string {
	var names []string
	for i := uint32(0); i < query.CaptureCount(); i++ {
		names = append(names, query.CaptureNameForId(i))
	}
	return names
}
