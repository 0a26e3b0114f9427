package graphdsl

import (
	"github.com/viant/graphdsl/ident"
)

type lazyBinding struct {
	value   LazyValue
	mutable bool
}

// LazyVariableMap is the lazy-mode counterpart of VariableMap: locals
// bind to LazyValue (typically a StoreRefLazy handle) instead of Value,
// so that a variable referenced more than once resolves to the same
// thunk and is therefore forced at most once.
type LazyVariableMap struct {
	parent   *LazyVariableMap
	globals  *Globals
	bindings map[ident.Identifier]lazyBinding
}

// NewLazyVariableMap returns a root locals scope backed by globals
// (which may be nil).
func NewLazyVariableMap(globals *Globals) *LazyVariableMap {
	return &LazyVariableMap{globals: globals, bindings: make(map[ident.Identifier]lazyBinding)}
}

// Nested returns a new child scope of m.
func (m *LazyVariableMap) Nested() *LazyVariableMap {
	return &LazyVariableMap{parent: m, bindings: make(map[ident.Identifier]lazyBinding)}
}

// Clear empties m's own bindings, without touching its parent chain.
func (m *LazyVariableMap) Clear() {
	for k := range m.bindings {
		delete(m.bindings, k)
	}
}

func (m *LazyVariableMap) rootGlobals() *Globals {
	for cur := m; cur != nil; cur = cur.parent {
		if cur.globals != nil {
			return cur.globals
		}
	}
	return nil
}

// Get resolves name by walking globals, then this scope and its
// ancestors. Globals come back wrapped as a concrete LazyValue.
func (m *LazyVariableMap) Get(name ident.Identifier) (LazyValue, bool) {
	if g := m.rootGlobals(); g != nil {
		if v, ok := g.Get(name); ok {
			return ConcreteLazy(v), true
		}
	}
	for cur := m; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b.value, true
		}
	}
	return LazyValue{}, false
}

// Add binds name in this scope, with the same shadow/collision rules as
// VariableMap.Add.
func (m *LazyVariableMap) Add(name ident.Identifier, value LazyValue, mutable bool) error {
	if g := m.rootGlobals(); g != nil && g.Has(name) {
		return newExecErr(ErrDuplicateVariable, "variable already defined as a global")
	}
	if _, ok := m.bindings[name]; ok {
		return newExecErr(ErrDuplicateVariable, "variable already defined in this scope")
	}
	if m.parent != nil {
		if b, ok := m.parent.bindings[name]; ok && !b.mutable {
			return newExecErr(ErrDuplicateVariable, "variable already defined in the enclosing scope")
		}
	}
	m.bindings[name] = lazyBinding{value: value, mutable: mutable}
	return nil
}

// Set overwrites the nearest existing mutable binding for name, with
// the same rules as VariableMap.Set.
func (m *LazyVariableMap) Set(name ident.Identifier, value LazyValue) error {
	if g := m.rootGlobals(); g != nil && g.Has(name) {
		return newExecErr(ErrCannotAssignImmutableVariable, "cannot assign to a global variable")
	}
	for cur := m; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			if !b.mutable {
				return newExecErr(ErrCannotAssignImmutableVariable, "variable is immutable")
			}
			cur.bindings[name] = lazyBinding{value: value, mutable: true}
			return nil
		}
	}
	return newExecErr(ErrUndefinedVariable, "undefined variable")
}
