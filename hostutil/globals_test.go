package hostutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/graphdsl/ident"
)

func writeTempGlobals(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "globals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGlobalsScalarsListsAndSets(t *testing.T) {
	path := writeTempGlobals(t, `
name: hello
flag: true
count: 42
nothing: null
items: [1, 2, 3]
tags: !!set [a, a, b]
`)
	idc := ident.NewContext()
	globals, err := LoadGlobals(context.Background(), path, idc)
	require.NoError(t, err)

	name, ok := globals.Get(idc.Intern("name"))
	require.True(t, ok)
	s, err := name.IntoString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	flag, ok := globals.Get(idc.Intern("flag"))
	require.True(t, ok)
	b, err := flag.IntoBoolean()
	require.NoError(t, err)
	assert.True(t, b)

	count, ok := globals.Get(idc.Intern("count"))
	require.True(t, ok)
	n, err := count.IntoInteger()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n)

	nothing, ok := globals.Get(idc.Intern("nothing"))
	require.True(t, ok)
	assert.True(t, nothing.IsNull())

	items, ok := globals.Get(idc.Intern("items"))
	require.True(t, ok)
	list, err := items.IntoList()
	require.NoError(t, err)
	require.Len(t, list, 3)
	first, _ := list[0].IntoInteger()
	assert.Equal(t, uint32(1), first)

	tags, ok := globals.Get(idc.Intern("tags"))
	require.True(t, ok)
	set, err := tags.IntoList()
	require.NoError(t, err)
	assert.Len(t, set, 2, "a set must dedupe its elements")
}

func TestLoadGlobalsDistinctNames(t *testing.T) {
	path := writeTempGlobals(t, "a: 1\nb: 2\n")
	idc := ident.NewContext()
	globals, err := LoadGlobals(context.Background(), path, idc)
	require.NoError(t, err)
	_, ok := globals.Get(idc.Intern("a"))
	assert.True(t, ok)
	_, ok = globals.Get(idc.Intern("b"))
	assert.True(t, ok)
}

func TestLoadGlobalsMissingFile(t *testing.T) {
	idc := ident.NewContext()
	_, err := LoadGlobals(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), idc)
	require.Error(t, err)
}
