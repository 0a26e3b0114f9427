package graphdsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueCoercions(t *testing.T) {
	v := StringValue("hello")
	s, err := v.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = v.IntoInteger()
	require.Error(t, err)
	kind, ok := Kind(err)
	require.True(t, ok)
	assert.Equal(t, ErrExpectedInteger, kind)
}

func TestValueEqualAndCompare(t *testing.T) {
	a := ListValue([]Value{IntValue(1), IntValue(2)})
	b := ListValue([]Value{IntValue(1), IntValue(2)})
	c := ListValue([]Value{IntValue(1), IntValue(3)})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.Negative(t, Compare(a, c))
}

func TestSetValueDedupsAndSorts(t *testing.T) {
	s := SetValue([]Value{IntValue(3), IntValue(1), IntValue(2), IntValue(1)})
	elems, err := s.IntoList()
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, uint32(1), mustInt(t, elems[0]))
	assert.Equal(t, uint32(2), mustInt(t, elems[1]))
	assert.Equal(t, uint32(3), mustInt(t, elems[2]))
}

func mustInt(t *testing.T, v Value) uint32 {
	t.Helper()
	n, err := v.IntoInteger()
	require.NoError(t, err)
	return n
}

func TestDisplay(t *testing.T) {
	graph := NewGraph()
	ref := graph.AddGraphNode()
	assert.Equal(t, "#null", Display(NullValue(), graph))
	assert.Equal(t, "#true", Display(BoolValue(true), graph))
	assert.Equal(t, "42", Display(IntValue(42), graph))
	assert.Equal(t, `"hi"`, Display(StringValue("hi"), graph))
	assert.Equal(t, "[graph node 0]", Display(GraphNodeValue(ref), graph))
	assert.Equal(t, "[1, 2]", Display(ListValue([]Value{IntValue(1), IntValue(2)}), graph))
}
