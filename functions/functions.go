// Package functions implements the concrete stdlib function registry
// DSL programs call via `(function-name arg1 arg2 ...)` expressions.
package functions

import (
	"strings"

	"github.com/viant/graphdsl"
)

// Stdlib returns the registry's built-in functions: "replace" (string
// substring replacement) and "source-text" (the source text spanned by
// a captured syntax node).
func Stdlib() graphdsl.Functions {
	return graphdsl.FunctionsFunc(call)
}

func call(name string, graph *graphdsl.Graph, source []byte, args []graphdsl.Value) (graphdsl.Value, error) {
	switch name {
	case "replace":
		return replace(args)
	case "source-text":
		return sourceText(graph, source, args)
	default:
		return graphdsl.Value{}, graphdsl.UndefinedFunctionError(name)
	}
}

// replace(haystack, from, to) returns haystack with every occurrence of
// from substituted with to.
func replace(args []graphdsl.Value) (graphdsl.Value, error) {
	if len(args) != 3 {
		return graphdsl.Value{}, graphdsl.InvalidParametersError("replace expects 3 arguments, got %d", len(args))
	}
	haystack, err := args[0].IntoString()
	if err != nil {
		return graphdsl.Value{}, err
	}
	from, err := args[1].IntoString()
	if err != nil {
		return graphdsl.Value{}, err
	}
	to, err := args[2].IntoString()
	if err != nil {
		return graphdsl.Value{}, err
	}
	return graphdsl.StringValue(strings.ReplaceAll(haystack, from, to)), nil
}

// sourceText(node) returns the literal source text spanned by a
// captured syntax node.
func sourceText(graph *graphdsl.Graph, source []byte, args []graphdsl.Value) (graphdsl.Value, error) {
	if len(args) != 1 {
		return graphdsl.Value{}, graphdsl.InvalidParametersError("source-text expects 1 argument, got %d", len(args))
	}
	ref, err := args[0].IntoSyntaxNodeRef()
	if err != nil {
		return graphdsl.Value{}, err
	}
	node := graph.SyntaxNode(ref)
	if node == nil {
		return graphdsl.Value{}, graphdsl.InvalidParametersError("source-text: syntax node not registered with this graph")
	}
	return graphdsl.StringValue(node.Content(source)), nil
}
