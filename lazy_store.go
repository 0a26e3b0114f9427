package graphdsl

import (
	"io"
	"log/slog"

	"github.com/viant/graphdsl/ident"
)

// EvaluationContext aggregates everything needed to force a LazyValue:
// the graph being built, the function registry, the store thunks are
// forced through, and the pending scoped-variable table. Unlike
// ExecutionContext it carries no per-match state. It is used both in
// the final pass and during stanza execution, where control-flow
// expressions (if conditions, for-in iterables, scan subjects) are
// forced immediately (see evalExprEager).
type EvaluationContext struct {
	Context     *ident.Context
	Source      []byte
	Graph       *Graph
	Functions   Functions
	Store       *LazyStore
	ScopedStore *LazyScopedVariables
	Logger      *slog.Logger
	// Output is where `print` statements write; see ExecutionContext.Output.
	Output io.Writer
}

func (ctx *EvaluationContext) forceScopedVar(scope LazyValue, name ident.Identifier) (Value, error) {
	scopeVal, err := scope.evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	ref, err := scopeVal.IntoSyntaxNodeRef()
	if err != nil {
		return Value{}, newExecErr(ErrInvalidVariableScope, "scope expression is not a syntax node")
	}

	var handle LazyStoreHandle
	count := 0
	for i := range ctx.ScopedStore.pending {
		p := &ctx.ScopedStore.pending[i]
		if p.name != name {
			continue
		}
		pScopeVal, err := p.scope.evaluate(ctx)
		if err != nil {
			return Value{}, err
		}
		pRef, err := pScopeVal.IntoSyntaxNodeRef()
		if err != nil {
			continue
		}
		if pRef != ref {
			continue
		}
		count++
		handle = p.handle
	}
	if count == 0 {
		return Value{}, newExecErr(ErrUndefinedScopedVariable, "undefined scoped variable")
	}
	if count > 1 {
		return Value{}, newExecErr(ErrDuplicateVariable, "scoped variable defined more than once")
	}
	ctx.ScopedStore.forced[ref] = true
	return ctx.Store.Force(handle, ctx)
}

type thunkState int

const (
	stateUnevaluated thunkState = iota
	stateEvaluating
	stateEvaluated
)

type thunk struct {
	value  LazyValue
	debug  DebugInfo
	state  thunkState
	result Value
	scoped bool
}

// LazyStoreHandle identifies one thunk registered with a LazyStore.
type LazyStoreHandle struct{ idx int }

// LazyStore is the append-only thunk table lazy execution registers
// values into. Forcing a handle memoizes the result and detects cycles
// via an explicit Evaluating state.
type LazyStore struct {
	thunks []*thunk
}

// NewLazyStore returns an empty LazyStore.
func NewLazyStore() *LazyStore { return &LazyStore{} }

// Add registers value for later forcing and returns its handle.
func (s *LazyStore) Add(value LazyValue, debug DebugInfo) LazyStoreHandle {
	return s.add(value, debug, false)
}

// AddScoped is like Add, but marks the thunk as registered via a scoped
// binding, so a cycle detected at it (the thunk is reached again while
// it is being forced) raises RecursivelyDefinedScopedVariable rather
// than RecursivelyDefinedVariable.
func (s *LazyStore) AddScoped(value LazyValue, debug DebugInfo) LazyStoreHandle {
	return s.add(value, debug, true)
}

func (s *LazyStore) add(value LazyValue, debug DebugInfo, scoped bool) LazyStoreHandle {
	s.thunks = append(s.thunks, &thunk{value: value, debug: debug, scoped: scoped})
	return LazyStoreHandle{idx: len(s.thunks) - 1}
}

// Force resolves h to a Value, memoizing the result. A handle observed
// mid-force (a cycle) fails with RecursivelyDefinedVariable or
// RecursivelyDefinedScopedVariable.
func (s *LazyStore) Force(h LazyStoreHandle, ctx *EvaluationContext) (Value, error) {
	t := s.thunks[h.idx]
	switch t.state {
	case stateEvaluated:
		return t.result, nil
	case stateEvaluating:
		kind := ErrRecursivelyDefinedVariable
		if t.scoped {
			kind = ErrRecursivelyDefinedScopedVariable
		}
		return Value{}, newExecErr(kind, "recursively defined value at %s", t.debug.Location)
	}
	t.state = stateEvaluating
	v, err := t.value.evaluate(ctx)
	if err != nil {
		return Value{}, err
	}
	t.state = stateEvaluated
	t.result = v
	if ctx.Logger != nil {
		ctx.Logger.Debug("forced lazy thunk", "location", t.debug.Location.String())
	}
	return v, nil
}

type scopedPending struct {
	scope  LazyValue
	name   ident.Identifier
	handle LazyStoreHandle
	debug  DebugInfo
}

// LazyScopedVariables is the lazy counterpart of ScopedVariables: adds
// append to a pending list (the scope is itself often an unforced
// thunk, e.g. a chained scoped-variable read), and resolution happens
// only when a lazy scoped lookup is forced. See DESIGN.md for why
// duplicate detection is deferred to force time, and why the
// forced-node check in Add covers only scopes that are already concrete.
type LazyScopedVariables struct {
	pending []scopedPending
	forced  map[SyntaxNodeRef]bool
}

// NewLazyScopedVariables returns an empty LazyScopedVariables table.
func NewLazyScopedVariables() *LazyScopedVariables {
	return &LazyScopedVariables{forced: make(map[SyntaxNodeRef]bool)}
}

// Add registers a pending scoped-variable definition. It rejects a
// retroactive addition onto a syntax node whose scoped variables have
// already been forced: a forced scope's variable set is considered
// closed, matching spec.md 4.6's "forced" flag. This only catches the
// case where scope is already concrete (the common case — a capture's
// scope is concrete the moment it is evaluated); a scope that is itself
// still an unforced thunk (chained scoped variables, e.g. `@a.b.c`)
// cannot be checked until it is forced, so that case is still caught,
// if at all, by the duplicate-pending-entry count in forceScopedVar.
func (s *LazyScopedVariables) Add(scope LazyValue, name ident.Identifier, handle LazyStoreHandle, debug DebugInfo) error {
	if scope.kind == LazyConcrete {
		if ref, err := scope.concrete.IntoSyntaxNodeRef(); err == nil && s.forced[ref] {
			return newExecErr(ErrVariableScopesAlreadyForced, "cannot add scoped variable %q: its scope was already forced", name)
		}
	}
	s.pending = append(s.pending, scopedPending{scope: scope, name: name, handle: handle, debug: debug})
	return nil
}
