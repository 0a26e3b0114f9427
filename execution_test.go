package graphdsl

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/require"

	"github.com/viant/graphdsl/ident"
)

func parsePython(t *testing.T, source string) *sitter.Tree {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	return tree
}

// buildSimpleGraphFile mirrors, statement-for-statement, a stanza like:
//
//	(module) @root
//	{
//	  node node0
//	  attr (node0) name = "node0", source = @root
//	  node node1
//	  attr (node1) name = "node1"
//	  edge node0 -> node1
//	  attr (node0 -> node1) precedence = 14
//	}
func buildSimpleGraphFile(t *testing.T, idc *ident.Context) *File {
	t.Helper()
	query := sitter.NewQuery([]byte("(module) @root"), python.GetLanguage())

	node0 := &UnscopedVariable{Name: idc.Intern("node0"), NameText: "node0"}
	node1 := &UnscopedVariable{Name: idc.Intern("node1"), NameText: "node1"}

	statements := []Statement{
		CreateGraphNode{Node: node0},
		AddGraphNodeAttribute{
			Node: node0,
			Attributes: []Attribute{
				{Name: idc.Intern("name"), NameText: "name", Value: StringConstant{Value: "node0"}},
				{Name: idc.Intern("source"), NameText: "source", Value: &Capture{Name: "root", StanzaCaptureIndex: 0, FileCaptureIndex: 0, Quantifier: QuantifierOne}},
			},
		},
		CreateGraphNode{Node: node1},
		AddGraphNodeAttribute{
			Node:       node1,
			Attributes: []Attribute{{Name: idc.Intern("name"), NameText: "name", Value: StringConstant{Value: "node1"}}},
		},
		CreateEdge{Source: node0, Sink: node1},
		AddEdgeAttribute{
			Source:     node0,
			Sink:       node1,
			Attributes: []Attribute{{Name: idc.Intern("precedence"), NameText: "precedence", Value: IntegerConstant{Value: 14}}},
		},
	}

	stanza := &Stanza{Query: query, FullMatchCaptureIndex: -1, Statements: statements}
	return &File{Stanzas: []*Stanza{stanza}, CombinedQuery: query, AllowSyntaxErrors: true}
}

func TestExecuteBuildsSimpleGraph(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "pass")
	file := buildSimpleGraphFile(t, idc)

	graph, err := file.Execute(idc, tree, []byte("pass"), FunctionsFunc(noFunctions), NewGlobals(), nil)
	require.NoError(t, err)

	expected := "node 0\n" +
		"  name: \"node0\"\n" +
		"  source: [syntax node module (1, 1)]\n" +
		"edge 0 -> 1\n" +
		"  precedence: 14\n" +
		"node 1\n" +
		"  name: \"node1\"\n"
	require.Equal(t, expected, graph.Display(idc))
}

func TestExecuteLazyBuildsSameGraph(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "pass")
	file := buildSimpleGraphFile(t, idc)

	graph, err := file.ExecuteLazy(idc, tree, []byte("pass"), FunctionsFunc(noFunctions), NewGlobals(), nil)
	require.NoError(t, err)

	expected := "node 0\n" +
		"  name: \"node0\"\n" +
		"  source: [syntax node module (1, 1)]\n" +
		"edge 0 -> 1\n" +
		"  precedence: 14\n" +
		"node 1\n" +
		"  name: \"node1\"\n"
	require.Equal(t, expected, graph.Display(idc))
}

func TestExecuteDuplicateEdgeFails(t *testing.T) {
	idc := ident.NewContext()
	query := sitter.NewQuery([]byte("(module) @root"), python.GetLanguage())
	node0 := &UnscopedVariable{Name: idc.Intern("node0"), NameText: "node0"}
	node1 := &UnscopedVariable{Name: idc.Intern("node1"), NameText: "node1"}
	stanza := &Stanza{Query: query, FullMatchCaptureIndex: -1, Statements: []Statement{
		CreateGraphNode{Node: node0},
		CreateGraphNode{Node: node1},
		CreateEdge{Source: node0, Sink: node1},
		CreateEdge{Source: node0, Sink: node1},
	}}
	file := &File{Stanzas: []*Stanza{stanza}, AllowSyntaxErrors: true}

	tree := parsePython(t, "pass")
	_, err := file.Execute(idc, tree, []byte("pass"), FunctionsFunc(noFunctions), NewGlobals(), nil)
	require.Error(t, err)
	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, ErrDuplicateEdge, kind)
}

func noFunctions(name string, graph *Graph, source []byte, args []Value) (Value, error) {
	return Value{}, UndefinedFunctionError(name)
}
