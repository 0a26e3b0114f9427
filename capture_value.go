package graphdsl

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// queryCaptureValue resolves one Capture's Value for a given match, per
// its quantifier. It is shared by the eager and lazy interpreters.
// captureIndex is the capture's index within whichever Query produced
// mat (the stanza's own query in eager mode, the file's combined query
// in lazy mode).
func queryCaptureValue(captureIndex int, quantifier CaptureQuantifier, mat *sitter.QueryMatch, graph *Graph) Value {
	var nodes []*sitter.Node
	for _, c := range mat.Captures {
		if int(c.Index) == captureIndex {
			nodes = append(nodes, c.Node)
		}
	}
	switch quantifier {
	case QuantifierOne:
		if len(nodes) == 0 {
			return NullValue()
		}
		return SyntaxNodeValue(graph.AddSyntaxNode(nodes[0]))
	case QuantifierZeroOrOne:
		if len(nodes) == 0 {
			return NullValue()
		}
		return SyntaxNodeValue(graph.AddSyntaxNode(nodes[0]))
	case QuantifierZeroOrMore, QuantifierOneOrMore:
		vals := make([]Value, len(nodes))
		for i, n := range nodes {
			vals[i] = SyntaxNodeValue(graph.AddSyntaxNode(n))
		}
		return ListValue(vals)
	case QuantifierZero:
		// Not expressible in evaluation; reaching here is a caller bug
		// (the checker that produced this AST guarantees Zero-quantifier
		// captures are never evaluated).
		panic("graphdsl: evaluated a Zero-quantifier capture")
	default:
		return NullValue()
	}
}
