package graphdsl

import (
	"github.com/viant/graphdsl/ident"
)

// LazyValueKind tags the variant held by a LazyValue.
type LazyValueKind int

const (
	LazyConcrete LazyValueKind = iota
	LazyStoreRefKind
	LazyScopedVarKind
	LazyListKind
	LazySetKind
	LazyCallKind
)

// LazyValue is the lazy-mode counterpart of Value: either an
// already-concrete Value, a reference to a LazyStore entry, a lazy
// scoped-variable lookup (scope thunk + name), a lazy list or set, or a
// lazy function call. Forcing a LazyValue yields a Value.
type LazyValue struct {
	kind LazyValueKind

	concrete Value

	storeRef LazyStoreHandle

	scopedScope *LazyValue
	scopedName  ident.Identifier

	elems []LazyValue

	call *LazyCall
}

// LazyCall is a deferred function call: its arguments are themselves
// thunks, forced left-to-right before the call is dispatched.
type LazyCall struct {
	Function string
	Args     []LazyValue
}

func ConcreteLazy(v Value) LazyValue { return LazyValue{kind: LazyConcrete, concrete: v} }

func StoreRefLazy(h LazyStoreHandle) LazyValue { return LazyValue{kind: LazyStoreRefKind, storeRef: h} }

func ScopedVarLazy(scope LazyValue, name ident.Identifier) LazyValue {
	return LazyValue{kind: LazyScopedVarKind, scopedScope: &scope, scopedName: name}
}

func ListLazy(elems []LazyValue) LazyValue { return LazyValue{kind: LazyListKind, elems: elems} }

func SetLazy(elems []LazyValue) LazyValue { return LazyValue{kind: LazySetKind, elems: elems} }

func CallLazy(function string, args []LazyValue) LazyValue {
	return LazyValue{kind: LazyCallKind, call: &LazyCall{Function: function, Args: args}}
}

// evaluate forces lv to a concrete Value, recursively forcing any
// nested thunks through ctx.
func (lv LazyValue) evaluate(ctx *EvaluationContext) (Value, error) {
	switch lv.kind {
	case LazyConcrete:
		return lv.concrete, nil
	case LazyStoreRefKind:
		return ctx.Store.Force(lv.storeRef, ctx)
	case LazyScopedVarKind:
		return ctx.forceScopedVar(*lv.scopedScope, lv.scopedName)
	case LazyListKind:
		vals := make([]Value, len(lv.elems))
		for i, e := range lv.elems {
			v, err := e.evaluate(ctx)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return ListValue(vals), nil
	case LazySetKind:
		vals := make([]Value, len(lv.elems))
		for i, e := range lv.elems {
			v, err := e.evaluate(ctx)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return SetValue(vals), nil
	case LazyCallKind:
		args := make([]Value, len(lv.call.Args))
		for i, a := range lv.call.Args {
			v, err := a.evaluate(ctx)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return ctx.Functions.Call(lv.call.Function, ctx.Graph, ctx.Source, args)
	default:
		return Value{}, newExecErr(ErrOther, "unknown lazy value kind %d", lv.kind)
	}
}
