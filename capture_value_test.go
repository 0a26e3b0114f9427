package graphdsl

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCaptureValueZeroOrOne(t *testing.T) {
	tree := parsePython(t, "pass")
	node := tree.RootNode()
	g := NewGraph()

	empty := &sitter.QueryMatch{Captures: nil}
	v := queryCaptureValue(0, QuantifierZeroOrOne, empty, g)
	assert.True(t, v.IsNull(), "an unmatched optional capture must evaluate to null")

	single := &sitter.QueryMatch{Captures: []sitter.QueryCapture{{Index: 0, Node: node}}}
	v = queryCaptureValue(0, QuantifierZeroOrOne, single, g)
	ref, err := v.IntoSyntaxNodeRef()
	require.NoError(t, err)
	assert.Same(t, node, g.SyntaxNode(ref))
}

func TestQueryCaptureValueZeroOrMore(t *testing.T) {
	first := parsePython(t, "pass").RootNode()
	second := parsePython(t, "pass\npass").RootNode()
	g := NewGraph()

	empty := &sitter.QueryMatch{Captures: nil}
	v := queryCaptureValue(0, QuantifierZeroOrMore, empty, g)
	list, err := v.IntoList()
	require.NoError(t, err)
	assert.Len(t, list, 0, "no matches must evaluate to an empty list, not null")

	multi := &sitter.QueryMatch{Captures: []sitter.QueryCapture{
		{Index: 0, Node: first},
		{Index: 0, Node: second},
		{Index: 1, Node: second}, // a different capture index must be excluded
	}}
	v = queryCaptureValue(0, QuantifierZeroOrMore, multi, g)
	list, err = v.IntoList()
	require.NoError(t, err)
	require.Len(t, list, 2)
	ref0, _ := list[0].IntoSyntaxNodeRef()
	ref1, _ := list[1].IntoSyntaxNodeRef()
	assert.Same(t, first, g.SyntaxNode(ref0))
	assert.Same(t, second, g.SyntaxNode(ref1))
}

func TestQueryCaptureValueOne(t *testing.T) {
	node := parsePython(t, "pass").RootNode()
	g := NewGraph()

	mat := &sitter.QueryMatch{Captures: []sitter.QueryCapture{{Index: 0, Node: node}}}
	v := queryCaptureValue(0, QuantifierOne, mat, g)
	ref, err := v.IntoSyntaxNodeRef()
	require.NoError(t, err)
	assert.Same(t, node, g.SyntaxNode(ref))
}

func TestQueryCaptureValueZeroPanics(t *testing.T) {
	g := NewGraph()
	mat := &sitter.QueryMatch{Captures: nil}
	assert.Panics(t, func() {
		queryCaptureValue(0, QuantifierZero, mat, g)
	}, "a Zero-quantifier capture must never reach evaluation")
}
