package graphdsl

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/graphdsl/ident"
)

// SyntaxNodeRef is an opaque handle identifying one host syntax node
// within a single execution. It is derived from the host node's byte
// range, which is stable and unique enough to key a single parse tree
// (the host binding does not expose a cheaper identity primitive).
type SyntaxNodeRef struct{ id uint64 }

// GraphNodeRef is a dense, 0-based, creation-order index into a Graph's
// node vector. Stable for the life of the Graph.
type GraphNodeRef struct{ id uint32 }

// Index returns the 0-based creation-order index backing r.
func (r GraphNodeRef) Index() int { return int(r.id) }

// Graph is the attributed, directed property graph a DSL file builds.
type Graph struct {
	syntaxNodes map[SyntaxNodeRef]*sitter.Node
	graphNodes  []*GraphNode
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{syntaxNodes: make(map[SyntaxNodeRef]*sitter.Node)}
}

// AddSyntaxNode registers n and returns its stable SyntaxNodeRef.
// Registering the same host node twice returns the same ref.
func (g *Graph) AddSyntaxNode(n *sitter.Node) SyntaxNodeRef {
	ref := syntaxNodeRefOf(n)
	if _, ok := g.syntaxNodes[ref]; !ok {
		g.syntaxNodes[ref] = n
	}
	return ref
}

func syntaxNodeRefOf(n *sitter.Node) SyntaxNodeRef {
	return SyntaxNodeRef{id: uint64(n.StartByte())<<32 | uint64(n.EndByte())}
}

// SyntaxNode resolves ref to its host node, or nil if never registered.
func (g *Graph) SyntaxNode(ref SyntaxNodeRef) *sitter.Node {
	return g.syntaxNodes[ref]
}

// AddGraphNode allocates a new graph node and returns its ref.
func (g *Graph) AddGraphNode() GraphNodeRef {
	ref := GraphNodeRef{id: uint32(len(g.graphNodes))}
	g.graphNodes = append(g.graphNodes, newGraphNode())
	return ref
}

// Node resolves ref to its GraphNode.
func (g *Graph) Node(ref GraphNodeRef) *GraphNode {
	return g.graphNodes[ref.id]
}

// NodeCount reports how many graph nodes have been created.
func (g *Graph) NodeCount() int { return len(g.graphNodes) }

// Display renders the graph per the stable format: each node in
// creation order, followed by its outgoing edges in ascending sink
// order, attributes in identifier order (the order in which their
// names were first interned, not alphabetical order).
func (g *Graph) Display(ctx *ident.Context) string {
	var b strings.Builder
	for i, n := range g.graphNodes {
		fmt.Fprintf(&b, "node %d\n", i)
		n.Attributes.display(&b, ctx, g, "  ")
		for _, e := range n.outgoingEdges {
			fmt.Fprintf(&b, "edge %d -> %d\n", i, e.sink.id)
			e.edge.Attributes.display(&b, ctx, g, "  ")
		}
	}
	return b.String()
}

// GraphNode holds outgoing edges (sorted, unique by sink) and a set of
// attributes (sorted, unique by identifier).
type GraphNode struct {
	Attributes    *Attributes
	outgoingEdges []graphEdgeEntry
}

type graphEdgeEntry struct {
	sink GraphNodeRef
	edge *Edge
}

func newGraphNode() *GraphNode {
	return &GraphNode{Attributes: newAttributes()}
}

// AddEdge inserts a new edge to sink if one does not already exist.
// Returns the edge and true if it was newly created; returns the
// existing edge and false otherwise.
func (n *GraphNode) AddEdge(sink GraphNodeRef) (*Edge, bool) {
	i := sort.Search(len(n.outgoingEdges), func(i int) bool {
		return n.outgoingEdges[i].sink.id >= sink.id
	})
	if i < len(n.outgoingEdges) && n.outgoingEdges[i].sink.id == sink.id {
		return n.outgoingEdges[i].edge, false
	}
	e := &Edge{Attributes: newAttributes()}
	entry := graphEdgeEntry{sink: sink, edge: e}
	n.outgoingEdges = append(n.outgoingEdges, graphEdgeEntry{})
	copy(n.outgoingEdges[i+1:], n.outgoingEdges[i:])
	n.outgoingEdges[i] = entry
	return e, true
}

// Edge returns the existing edge to sink, if any.
func (n *GraphNode) Edge(sink GraphNodeRef) (*Edge, bool) {
	i := sort.Search(len(n.outgoingEdges), func(i int) bool {
		return n.outgoingEdges[i].sink.id >= sink.id
	})
	if i < len(n.outgoingEdges) && n.outgoingEdges[i].sink.id == sink.id {
		return n.outgoingEdges[i].edge, true
	}
	return nil, false
}

// Edge holds the attributes attached to one directed edge.
type Edge struct {
	Attributes *Attributes
}

// Attributes is a sorted, unique-by-name sequence of (Identifier, Value).
type Attributes struct {
	entries []attrEntry
}

type attrEntry struct {
	name  ident.Identifier
	value Value
}

func newAttributes() *Attributes { return &Attributes{} }

// Add inserts (name, value). Returns true if name was not already
// present; returns false (and leaves the existing value untouched) if
// it was.
func (a *Attributes) Add(name ident.Identifier, value Value) bool {
	i := sort.Search(len(a.entries), func(i int) bool { return a.entries[i].name >= name })
	if i < len(a.entries) && a.entries[i].name == name {
		return false
	}
	a.entries = append(a.entries, attrEntry{})
	copy(a.entries[i+1:], a.entries[i:])
	a.entries[i] = attrEntry{name: name, value: value}
	return true
}

// Get looks up name.
func (a *Attributes) Get(name ident.Identifier) (Value, bool) {
	i := sort.Search(len(a.entries), func(i int) bool { return a.entries[i].name >= name })
	if i < len(a.entries) && a.entries[i].name == name {
		return a.entries[i].value, true
	}
	return Value{}, false
}

func (a *Attributes) display(b *strings.Builder, ctx *ident.Context, graph *Graph, indent string) {
	for _, e := range a.entries {
		fmt.Fprintf(b, "%s%s: %s\n", indent, ctx.Resolve(e.name), Display(e.value, graph))
	}
}
