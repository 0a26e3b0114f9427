// Package ident interns DSL identifiers into small, comparable handles.
//
// The DSL engine treats identifiers (attribute names, variable names,
// function names) as opaque u32-sized handles so that comparison and
// ordering never touch the underlying string. A Context owns the
// string table; an Identifier is only meaningful relative to the
// Context that produced it.
package ident

import (
	"github.com/minio/highwayhash"
)

// Identifier is an interned symbol. Equality and ordering compare the
// interned id directly.
type Identifier uint32

// hashKey is fixed so that hashing is deterministic across runs; the
// hash only selects a bucket, it is never compared across Contexts.
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

func hashString(s string) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// hashKey is a fixed, valid 32-byte key; New64 cannot fail for it.
		panic(err)
	}
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Context owns the interning table for one execution.
type Context struct {
	strings []string
	buckets map[uint64][]Identifier
}

// NewContext returns an empty interning context.
func NewContext() *Context {
	return &Context{
		buckets: make(map[uint64][]Identifier),
	}
}

// Intern returns the Identifier for name, creating one if this is the
// first time name has been seen by this Context.
func (c *Context) Intern(name string) Identifier {
	h := hashString(name)
	for _, id := range c.buckets[h] {
		if c.strings[id] == name {
			return id
		}
	}
	id := Identifier(len(c.strings))
	c.strings = append(c.strings, name)
	c.buckets[h] = append(c.buckets[h], id)
	return id
}

// Resolve returns the string an Identifier was interned from. Resolve
// panics if id was not produced by this Context.
func (c *Context) Resolve(id Identifier) string {
	return c.strings[id]
}

// Len reports how many distinct identifiers this Context has interned.
func (c *Context) Len() int {
	return len(c.strings)
}
