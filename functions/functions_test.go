package functions

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/graphdsl"
)

func TestReplace(t *testing.T) {
	reg := Stdlib()
	v, err := reg.Call("replace", nil, nil, []graphdsl.Value{
		graphdsl.StringValue("abc"), graphdsl.StringValue("b"), graphdsl.StringValue("x"),
	})
	require.NoError(t, err)
	s, err := v.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "axc", s)
}

// TestReplaceNestedComposition mirrors the nested-call scenario:
// replace("accacc", replace("abc","b","c"), replace("abc","a","b")) == "bbcbbc".
func TestReplaceNestedComposition(t *testing.T) {
	reg := Stdlib()

	inner1, err := reg.Call("replace", nil, nil, []graphdsl.Value{
		graphdsl.StringValue("abc"), graphdsl.StringValue("b"), graphdsl.StringValue("c"),
	})
	require.NoError(t, err)
	inner1Str, _ := inner1.IntoString()
	assert.Equal(t, "acc", inner1Str)

	inner2, err := reg.Call("replace", nil, nil, []graphdsl.Value{
		graphdsl.StringValue("abc"), graphdsl.StringValue("a"), graphdsl.StringValue("b"),
	})
	require.NoError(t, err)
	inner2Str, _ := inner2.IntoString()
	assert.Equal(t, "bbc", inner2Str)

	outer, err := reg.Call("replace", nil, nil, []graphdsl.Value{
		graphdsl.StringValue("accacc"), inner1, inner2,
	})
	require.NoError(t, err)
	s, err := outer.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "bbcbbc", s)
}

func TestReplaceWrongArity(t *testing.T) {
	reg := Stdlib()
	_, err := reg.Call("replace", nil, nil, []graphdsl.Value{graphdsl.StringValue("a")})
	require.Error(t, err)
}

func TestSourceText(t *testing.T) {
	source := []byte("x = 1")
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)

	g := graphdsl.NewGraph()
	ref := g.AddSyntaxNode(tree.RootNode())

	reg := Stdlib()
	v, err := reg.Call("source-text", g, source, []graphdsl.Value{graphdsl.SyntaxNodeValue(ref)})
	require.NoError(t, err)
	s, err := v.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "x = 1", s)
}

func TestUndefinedFunction(t *testing.T) {
	reg := Stdlib()
	_, err := reg.Call("nope", nil, nil, nil)
	require.Error(t, err)
	kind, ok := graphdsl.Kind(err)
	require.True(t, ok)
	assert.Equal(t, graphdsl.ErrUndefinedFunction, kind)
}
