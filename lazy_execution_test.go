package graphdsl

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/require"

	"github.com/viant/graphdsl/ident"
)

// buildScopedAcrossStanzasFile mirrors:
//
//	(identifier) @id { node @id.node }
//	(identifier) @id { attr (@id.node) name = (source-text @id) }
//
// as two stanzas sharing one combined query, so that the second
// stanza's scoped read only resolves in declaration order eagerly, but
// in either order under lazy evaluation, since lazy mode defers the
// read past both stanzas having run.
func buildScopedAcrossStanzasFile(t *testing.T, idc *ident.Context, reverse bool) *File {
	t.Helper()
	combined := sitter.NewQuery([]byte("(identifier) @id\n\n(identifier) @id"), python.GetLanguage())

	idCap := func(fileIdx int) *Capture {
		return &Capture{Name: "id", StanzaCaptureIndex: 0, FileCaptureIndex: fileIdx, Quantifier: QuantifierOne}
	}

	defineStanza := &Stanza{
		Query:                 sitter.NewQuery([]byte("(identifier) @id"), python.GetLanguage()),
		FullMatchCaptureIndex: -1,
		Statements: []Statement{
			CreateGraphNode{Node: &ScopedVariable{Scope: idCap(0), Name: idc.Intern("node"), NameText: "node"}},
		},
	}
	attrStanza := &Stanza{
		Query:                 sitter.NewQuery([]byte("(identifier) @id"), python.GetLanguage()),
		FullMatchCaptureIndex: -1,
		Statements: []Statement{
			AddGraphNodeAttribute{
				Node: &ScopedVariable{Scope: idCap(0), Name: idc.Intern("node"), NameText: "node"},
				Attributes: []Attribute{
					{Name: idc.Intern("name"), NameText: "name", Value: &Call{Function: "source-text", Parameters: []Expression{idCap(0)}}},
				},
			},
		},
	}

	stanzas := []*Stanza{defineStanza, attrStanza}
	if reverse {
		stanzas = []*Stanza{attrStanza, defineStanza}
	}
	return &File{Stanzas: stanzas, CombinedQuery: combined, AllowSyntaxErrors: true}
}

func TestLazyExecutionAllowsForwardScopedReference(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "a")
	file := buildScopedAcrossStanzasFile(t, idc, false)

	graph, err := file.ExecuteLazy(idc, tree, []byte("a"), FunctionsFunc(stubFunctions), NewGlobals(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, graph.NodeCount())
}

func TestLazyExecutionAllowsBackwardScopedReference(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "a")
	file := buildScopedAcrossStanzasFile(t, idc, true)

	graph, err := file.ExecuteLazy(idc, tree, []byte("a"), FunctionsFunc(stubFunctions), NewGlobals(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, graph.NodeCount())
}

func TestEagerExecutionRejectsBackwardScopedReference(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "a")
	file := buildScopedAcrossStanzasFile(t, idc, true)

	_, err := file.Execute(idc, tree, []byte("a"), FunctionsFunc(stubFunctions), NewGlobals(), nil)
	require.Error(t, err)
	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, ErrUndefinedScopedVariable, kind)
}

func stubFunctions(name string, graph *Graph, source []byte, args []Value) (Value, error) {
	switch name {
	case "source-text":
		ref, err := args[0].IntoSyntaxNodeRef()
		if err != nil {
			return Value{}, err
		}
		node := graph.SyntaxNode(ref)
		return StringValue(node.Content(source)), nil
	default:
		return Value{}, UndefinedFunctionError(name)
	}
}

func TestLazyVariableForcedAtMostOnce(t *testing.T) {
	idc := ident.NewContext()
	tree := parsePython(t, "a")
	query := sitter.NewQuery([]byte("(module) @root"), python.GetLanguage())

	calls := 0
	counting := FunctionsFunc(func(name string, graph *Graph, source []byte, args []Value) (Value, error) {
		calls++
		return IntValue(uint32(calls)), nil
	})

	x := &UnscopedVariable{Name: idc.Intern("x"), NameText: "x"}
	node := &UnscopedVariable{Name: idc.Intern("n"), NameText: "n"}
	stanza := &Stanza{Query: query, FullMatchCaptureIndex: -1, Statements: []Statement{
		DeclareImmutable{Variable: x, Value: &Call{Function: "counter"}},
		CreateGraphNode{Node: node},
		AddGraphNodeAttribute{Node: node, Attributes: []Attribute{
			{Name: idc.Intern("a"), NameText: "a", Value: x},
			{Name: idc.Intern("b"), NameText: "b", Value: x},
		}},
	}}
	file := &File{Stanzas: []*Stanza{stanza}, CombinedQuery: query, AllowSyntaxErrors: true}

	_, err := file.ExecuteLazy(idc, tree, []byte("a"), counting, NewGlobals(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "a variable read twice must force its defining expression only once")
}
