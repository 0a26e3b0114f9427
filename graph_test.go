package graphdsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/graphdsl/ident"
)

func TestGraphAddEdgeDedups(t *testing.T) {
	g := NewGraph()
	n0 := g.AddGraphNode()
	n1 := g.AddGraphNode()

	_, isNew := g.Node(n0).AddEdge(n1)
	assert.True(t, isNew)

	_, isNew = g.Node(n0).AddEdge(n1)
	assert.False(t, isNew, "adding the same edge twice must report it as existing")
}

func TestAttributesAddRejectsDuplicate(t *testing.T) {
	idc := ident.NewContext()
	name := idc.Intern("color")

	attrs := newAttributes()
	assert.True(t, attrs.Add(name, StringValue("red")))
	assert.False(t, attrs.Add(name, StringValue("blue")), "a second write to the same attribute must fail")

	v, ok := attrs.Get(name)
	require.True(t, ok)
	s, err := v.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "red", s, "the first write wins")
}

func TestGraphDisplayOrdersEdgesBySink(t *testing.T) {
	idc := ident.NewContext()
	g := NewGraph()
	n0 := g.AddGraphNode()
	n1 := g.AddGraphNode()
	n2 := g.AddGraphNode()

	_, _ = g.Node(n0).AddEdge(n2)
	_, _ = g.Node(n0).AddEdge(n1)

	out := g.Display(idc)
	assert.Equal(t, "node 0\nedge 0 -> 1\nedge 0 -> 2\nnode 1\nnode 2\n", out)
}
