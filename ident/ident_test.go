package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternIsIdempotent(t *testing.T) {
	c := NewContext()
	a := c.Intern("foo")
	b := c.Intern("foo")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, c.Len())
}

func TestInternDistinctNames(t *testing.T) {
	c := NewContext()
	a := c.Intern("foo")
	b := c.Intern("bar")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "foo", c.Resolve(a))
	assert.Equal(t, "bar", c.Resolve(b))
	assert.Equal(t, 2, c.Len())
}
