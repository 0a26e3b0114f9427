package graphdsl

import (
	"github.com/viant/graphdsl/ident"
)

// Variables is the read/write surface a scope exposes to the
// interpreter: unscoped variable lookups consult the Globals attached
// to the root VariableMap (see NewVariableMap) first, then walk child
// scopes up to the root.
type Variables interface {
	Get(name ident.Identifier) (Value, bool)
	Add(name ident.Identifier, value Value, mutable bool) error
	Set(name ident.Identifier, value Value) error
}

type binding struct {
	value   Value
	mutable bool
}

// Globals is the immutable map of Identifier to Value supplied by the
// host before execution.
type Globals struct {
	values map[ident.Identifier]Value
}

// NewGlobals returns an empty Globals.
func NewGlobals() *Globals {
	return &Globals{values: make(map[ident.Identifier]Value)}
}

// Add registers name with value. Add fails if name is already defined.
func (g *Globals) Add(name ident.Identifier, value Value) error {
	if _, ok := g.values[name]; ok {
		return newExecErr(ErrDuplicateVariable, "duplicate global variable")
	}
	g.values[name] = value
	return nil
}

// Get looks up name among the globals.
func (g *Globals) Get(name ident.Identifier) (Value, bool) {
	v, ok := g.values[name]
	return v, ok
}

// Has reports whether name is defined among the globals, independent of
// its value.
func (g *Globals) Has(name ident.Identifier) bool {
	_, ok := g.values[name]
	return ok
}

// VariableMap is a local scope: a mutable map of name to binding, with
// an optional parent scope it shadows into. The root VariableMap for a
// stanza match has no parent; child scopes (if/for-in/scan arms) nest
// under it or under each other.
type VariableMap struct {
	parent   *VariableMap
	globals  *Globals
	bindings map[ident.Identifier]binding
}

// NewVariableMap returns a root locals scope backed by globals (which
// may be nil).
func NewVariableMap(globals *Globals) *VariableMap {
	return &VariableMap{globals: globals, bindings: make(map[ident.Identifier]binding)}
}

// Nested returns a new child scope of m.
func (m *VariableMap) Nested() *VariableMap {
	return &VariableMap{parent: m, bindings: make(map[ident.Identifier]binding)}
}

// Clear empties m's own bindings, without touching its parent chain.
// Used to reuse one VariableMap across stanza matches or loop
// iterations instead of reallocating.
func (m *VariableMap) Clear() {
	for k := range m.bindings {
		delete(m.bindings, k)
	}
}

func (m *VariableMap) rootGlobals() *Globals {
	for cur := m; cur != nil; cur = cur.parent {
		if cur.globals != nil {
			return cur.globals
		}
	}
	return nil
}

// Get resolves name by walking globals, then this scope and its
// ancestors.
func (m *VariableMap) Get(name ident.Identifier) (Value, bool) {
	if g := m.rootGlobals(); g != nil {
		if v, ok := g.Get(name); ok {
			return v, true
		}
	}
	for cur := m; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			return b.value, true
		}
	}
	return Value{}, false
}

// Add binds name in this scope. It fails with DuplicateVariable if name
// collides with a global, with a binding already present in this exact
// scope, or with an immutable binding in the immediate parent scope (a
// child may only shadow a mutable parent binding).
func (m *VariableMap) Add(name ident.Identifier, value Value, mutable bool) error {
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
	m.bindings[name] = binding{value: value, mutable: mutable}
	return nil
}

// Set overwrites the nearest existing mutable binding for name. It
// fails with CannotAssignImmutableVariable if name is a global or an
// immutable local, and with UndefinedVariable if name is unbound.
func (m *VariableMap) Set(name ident.Identifier, value Value) error {
	if g := m.rootGlobals(); g != nil && g.Has(name) {
		return newExecErr(ErrCannotAssignImmutableVariable, "cannot assign to a global variable")
	}
	for cur := m; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings[name]; ok {
			if !b.mutable {
				return newExecErr(ErrCannotAssignImmutableVariable, "variable is immutable")
			}
			cur.bindings[name] = binding{value: value, mutable: true}
			return nil
		}
	}
	return newExecErr(ErrUndefinedVariable, "undefined variable")
}

// ScopedVariables holds the per-syntax-node variable namespaces
// ("node-scoped" variables) that persist across stanzas.
type ScopedVariables struct {
	scopes map[SyntaxNodeRef]*VariableMap
}

// NewScopedVariables returns an empty ScopedVariables table.
func NewScopedVariables() *ScopedVariables {
	return &ScopedVariables{scopes: make(map[SyntaxNodeRef]*VariableMap)}
}

// Scope returns the variable map attached to ref, creating an empty one
// on first access.
func (s *ScopedVariables) Scope(ref SyntaxNodeRef) *VariableMap {
	vm, ok := s.scopes[ref]
	if !ok {
		vm = NewVariableMap(nil)
		s.scopes[ref] = vm
	}
	return vm
}
