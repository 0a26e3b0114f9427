package graphdsl

import (
	"log/slog"
	"os"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/graphdsl/ident"
)

// lazyStanzaContext aggregates everything one stanza's lazy dispatch
// needs while building the lazy program: the match being processed, a
// growing locals scope, and pointers into the shared lazy program /
// store / scoped-variable tables.
type lazyStanzaContext struct {
	*EvaluationContext
	Locals        *LazyVariableMap
	Match         *sitter.QueryMatch
	RegexCaptures []string
	LazyGraph     *[]LazyStatement
}

// ExecuteLazy runs f in lazy mode against tree, returning a freshly
// built Graph.
func (f *File) ExecuteLazy(ctx *ident.Context, tree *sitter.Tree, source []byte, functions Functions, globals *Globals, logger *slog.Logger) (*Graph, error) {
	graph := NewGraph()
	if err := f.ExecuteLazyInto(ctx, graph, tree, source, functions, globals, logger); err != nil {
		return nil, err
	}
	return graph, nil
}

// ExecuteLazyInto runs f in lazy mode against tree, mutating a
// pre-seeded graph.
func (f *File) ExecuteLazyInto(idc *ident.Context, graph *Graph, tree *sitter.Tree, source []byte, functions Functions, globals *Globals, logger *slog.Logger) error {
	if !f.AllowSyntaxErrors && tree.RootNode().HasError() {
		return newExecErr(ErrParseTreeHasErrors, "parse tree has errors")
	}
	if logger == nil {
		logger = slog.Default()
	}
	output := f.Output
	if output == nil {
		output = os.Stderr
	}

	store := NewLazyStore()
	scopedStore := NewLazyScopedVariables()
	var lazyProgram []LazyStatement

	evalCtx := &EvaluationContext{
		Context:     idc,
		Source:      source,
		Graph:       graph,
		Functions:   functions,
		Store:       store,
		ScopedStore: scopedStore,
		Logger:      logger,
		Output:      output,
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(f.CombinedQuery, tree.RootNode())

	for {
		mat, ok := cursor.NextMatch()
		if !ok {
			break
		}
		if int(mat.PatternIndex) >= len(f.Stanzas) {
			continue
		}
		stanza := f.Stanzas[mat.PatternIndex]
		if err := stanza.executeLazy(mat, evalCtx, globals, &lazyProgram); err != nil {
			return err
		}
	}

	progCtx := &lazyProgramContext{
		EvaluationContext:    evalCtx,
		PrevElementDebugInfo: make(map[GraphElementKey]DebugInfo),
	}
	for _, stmt := range lazyProgram {
		if err := stmt.Evaluate(progCtx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stanza) executeLazy(mat *sitter.QueryMatch, evalCtx *EvaluationContext, globals *Globals, lazyGraph *[]LazyStatement) error {
	if s.FullMatchCaptureIndex >= 0 {
		full := queryCaptureValue(s.FullMatchCaptureIndex, QuantifierOne, mat, evalCtx.Graph)
		evalCtx.Logger.Debug("dispatching stanza match", "location", s.Location.String(), "match", Display(full, evalCtx.Graph))
	}
	ctx := &lazyStanzaContext{
		EvaluationContext: evalCtx,
		Locals:            NewLazyVariableMap(globals),
		Match:              mat,
		LazyGraph:         lazyGraph,
	}
	for _, stmt := range s.Statements {
		if err := execStatementLazy(stmt, ctx); err != nil {
			return wrapExecErr(err, "executing %s", stmt)
		}
	}
	return nil
}

// ---- Statement dispatch (lazy) ----

func execStatementLazy(stmt Statement, ctx *lazyStanzaContext) error {
	switch s := stmt.(type) {
	case DeclareImmutable:
		v, err := evalExprLazy(s.Value, ctx)
		if err != nil {
			return err
		}
		return varAddLazy(s.Variable, ctx, v, false)
	case DeclareMutable:
		if _, ok := s.Variable.(*ScopedVariable); ok {
			return newExecErr(ErrCannotDefineMutableScopedVariable, "scoped variables cannot be mutable")
		}
		v, err := evalExprLazy(s.Value, ctx)
		if err != nil {
			return err
		}
		return varAddLazy(s.Variable, ctx, v, true)
	case Assign:
		if _, ok := s.Variable.(*ScopedVariable); ok {
			return newExecErr(ErrCannotAssignScopedVariable, "scoped variables cannot be assigned")
		}
		v, err := evalExprLazy(s.Value, ctx)
		if err != nil {
			return err
		}
		return varSetLazy(s.Variable, ctx, v)
	case CreateGraphNode:
		ref := ctx.Graph.AddGraphNode()
		return varAddLazy(s.Node, ctx, ConcreteLazy(GraphNodeValue(ref)), false)
	case AddGraphNodeAttribute:
		node, err := evalExprLazy(s.Node, ctx)
		if err != nil {
			return err
		}
		attrs, err := lazyAttributes(s.Attributes, ctx)
		if err != nil {
			return err
		}
		*ctx.LazyGraph = append(*ctx.LazyGraph, &LazyAddGraphNodeAttribute{
			Node: node, Attributes: attrs, Debug: DebugInfo{Location: s.Location},
		})
		return nil
	case CreateEdge:
		src, err := evalExprLazy(s.Source, ctx)
		if err != nil {
			return err
		}
		sink, err := evalExprLazy(s.Sink, ctx)
		if err != nil {
			return err
		}
		*ctx.LazyGraph = append(*ctx.LazyGraph, &LazyCreateEdge{
			Source: src, Sink: sink, Debug: DebugInfo{Location: s.Location},
		})
		return nil
	case AddEdgeAttribute:
		src, err := evalExprLazy(s.Source, ctx)
		if err != nil {
			return err
		}
		sink, err := evalExprLazy(s.Sink, ctx)
		if err != nil {
			return err
		}
		attrs, err := lazyAttributes(s.Attributes, ctx)
		if err != nil {
			return err
		}
		*ctx.LazyGraph = append(*ctx.LazyGraph, &LazyAddEdgeAttribute{
			Source: src, Sink: sink, Attributes: attrs, Debug: DebugInfo{Location: s.Location},
		})
		return nil
	case *Scan:
		return execScanLazy(s, ctx)
	case *Print:
		args := make([]LazyPrintArgument, len(s.Arguments))
		for i, a := range s.Arguments {
			if a.IsLiteral {
				args[i] = LazyPrintArgument{Literal: a.Literal, IsLiteral: true}
				continue
			}
			v, err := evalExprLazy(a.Expression, ctx)
			if err != nil {
				return err
			}
			args[i] = LazyPrintArgument{Value: v}
		}
		*ctx.LazyGraph = append(*ctx.LazyGraph, &LazyPrint{Arguments: args, Debug: DebugInfo{Location: s.Location}})
		return nil
	case *If:
		return execIfLazy(s, ctx)
	case *ForIn:
		return execForInLazy(s, ctx)
	default:
		return newExecErr(ErrOther, "unknown statement type %T", stmt)
	}
}

func lazyAttributes(decls []Attribute, ctx *lazyStanzaContext) ([]LazyAttribute, error) {
	out := make([]LazyAttribute, len(decls))
	for i, a := range decls {
		v, err := evalExprLazy(a.Value, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = LazyAttribute{Name: a.Name, NameText: a.NameText, Value: v}
	}
	return out, nil
}

func execIfLazy(s *If, ctx *lazyStanzaContext) error {
	for _, arm := range s.Arms {
		ok := true
		for _, cond := range arm.Conditions {
			result, err := testConditionEager(cond, ctx)
			if err != nil {
				return err
			}
			ok = ok && result
			if !ok {
				break
			}
		}
		if ok {
			child := ctx.withLocals(ctx.Locals.Nested())
			for _, stmt := range arm.Statements {
				if err := execStatementLazy(stmt, child); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return nil
}

func testConditionEager(cond Condition, ctx *lazyStanzaContext) (bool, error) {
	switch c := cond.(type) {
	case SomeCondition:
		v, err := evalExprEager(c.Value, ctx)
		if err != nil {
			return false, err
		}
		return !v.IsNull(), nil
	case NoneCondition:
		v, err := evalExprEager(c.Value, ctx)
		if err != nil {
			return false, err
		}
		return v.IsNull(), nil
	case BoolCondition:
		v, err := evalExprEager(c.Value, ctx)
		if err != nil {
			return false, err
		}
		return v.IntoBoolean()
	default:
		return false, newExecErr(ErrOther, "unknown condition type %T", cond)
	}
}

func execForInLazy(s *ForIn, ctx *lazyStanzaContext) error {
	v, err := evalExprEager(s.Value, ctx)
	if err != nil {
		return err
	}
	elems, err := v.IntoList()
	if err != nil {
		return err
	}
	loopLocals := ctx.Locals.Nested()
	for _, elem := range elems {
		loopLocals.Clear()
		child := ctx.withLocals(loopLocals)
		if err := varAddLazy(s.Variable, child, ConcreteLazy(elem), false); err != nil {
			return err
		}
		for _, stmt := range s.Body {
			if err := execStatementLazy(stmt, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ctx *lazyStanzaContext) withLocals(locals *LazyVariableMap) *lazyStanzaContext {
	cp := *ctx
	cp.Locals = locals
	return &cp
}

// ---- Scan (lazy) ----

func execScanLazy(s *Scan, ctx *lazyStanzaContext) error {
	v, err := evalExprEager(s.Value, ctx)
	if err != nil {
		return err
	}
	subject, err := v.IntoString()
	if err != nil {
		return err
	}

	type armMatch struct {
		armIndex int
		start    int
		end      int
		groups   []string
	}

	i := 0
	for i < len(subject) {
		var matches []armMatch
		for armIndex, arm := range s.Arms {
			loc := arm.Regex.FindStringSubmatchIndex(subject[i:])
			if loc == nil {
				continue
			}
			if loc[0] == loc[1] {
				return newExecErr(ErrEmptyRegexCapture, "scan arm %q produced an empty match", arm.Source)
			}
			groups := make([]string, arm.Regex.NumSubexp()+1)
			for g := 0; g < len(groups); g++ {
				if 2*g+1 < len(loc) && loc[2*g] >= 0 {
					groups[g] = subject[i+loc[2*g] : i+loc[2*g+1]]
				}
			}
			matches = append(matches, armMatch{armIndex: armIndex, start: loc[0], end: loc[1], groups: groups})
		}
		if len(matches) == 0 {
			break
		}
		sort.SliceStable(matches, func(a, b int) bool {
			if matches[a].start != matches[b].start {
				return matches[a].start < matches[b].start
			}
			return matches[a].armIndex < matches[b].armIndex
		})
		winner := matches[0]
		arm := s.Arms[winner.armIndex]
		child := ctx.withLocals(ctx.Locals.Nested())
		child.RegexCaptures = winner.groups
		for _, stmt := range arm.Statements {
			if err := execStatementLazy(stmt, child); err != nil {
				return err
			}
		}
		i += winner.end
	}
	return nil
}

// ---- Expression evaluation (lazy) ----

func evalExprLazy(expr Expression, ctx *lazyStanzaContext) (LazyValue, error) {
	switch e := expr.(type) {
	case FalseLiteral:
		return ConcreteLazy(BoolValue(false)), nil
	case TrueLiteral:
		return ConcreteLazy(BoolValue(true)), nil
	case NullLiteral:
		return ConcreteLazy(NullValue()), nil
	case IntegerConstant:
		return ConcreteLazy(IntValue(e.Value)), nil
	case StringConstant:
		return ConcreteLazy(StringValue(e.Value)), nil
	case ListComprehension:
		elems := make([]LazyValue, len(e.Elements))
		for i, el := range e.Elements {
			v, err := evalExprLazy(el, ctx)
			if err != nil {
				return LazyValue{}, err
			}
			elems[i] = v
		}
		return ListLazy(elems), nil
	case SetComprehension:
		elems := make([]LazyValue, len(e.Elements))
		for i, el := range e.Elements {
			v, err := evalExprLazy(el, ctx)
			if err != nil {
				return LazyValue{}, err
			}
			elems[i] = v
		}
		return SetLazy(elems), nil
	case *Capture:
		return ConcreteLazy(queryCaptureValue(e.FileCaptureIndex, e.Quantifier, ctx.Match, ctx.Graph)), nil
	case *ScopedVariable:
		scope, err := evalExprLazy(e.Scope, ctx)
		if err != nil {
			return LazyValue{}, err
		}
		return ScopedVarLazy(scope, e.Name), nil
	case *UnscopedVariable:
		v, ok := ctx.Locals.Get(e.Name)
		if !ok {
			return LazyValue{}, newExecErr(ErrUndefinedVariable, "undefined variable %q", e.NameText)
		}
		return v, nil
	case *RegexCapture:
		if e.MatchIndex < 0 || e.MatchIndex >= len(ctx.RegexCaptures) {
			return LazyValue{}, newExecErr(ErrUndefinedRegexCapture, "regex capture group $%d out of range", e.MatchIndex)
		}
		return ConcreteLazy(StringValue(ctx.RegexCaptures[e.MatchIndex])), nil
	case *Call:
		args := make([]LazyValue, len(e.Parameters))
		for i, p := range e.Parameters {
			v, err := evalExprLazy(p, ctx)
			if err != nil {
				return LazyValue{}, err
			}
			args[i] = v
		}
		return CallLazy(e.Function, args), nil
	default:
		return LazyValue{}, newExecErr(ErrOther, "unknown expression type %T", expr)
	}
}

// evalExprEager evaluates expr to a lazy thunk and immediately forces
// it. Used for control-flow expressions (scan subjects, if conditions,
// for-in iterables), which the DSL checker guarantees are "local" (do
// not depend on forward-defined values), so forcing them during stanza
// execution is always safe.
func evalExprEager(expr Expression, ctx *lazyStanzaContext) (Value, error) {
	lv, err := evalExprLazy(expr, ctx)
	if err != nil {
		return Value{}, err
	}
	return lv.evaluate(ctx.EvaluationContext)
}

func varAddLazy(variable Variable, ctx *lazyStanzaContext, value LazyValue, mutable bool) error {
	switch v := variable.(type) {
	case *UnscopedVariable:
		handle := ctx.Store.Add(value, DebugInfo{Location: v.Location})
		return ctx.Locals.Add(v.Name, StoreRefLazy(handle), mutable)
	case *ScopedVariable:
		if mutable {
			return newExecErr(ErrCannotDefineMutableScopedVariable, "scoped variables cannot be mutable")
		}
		scope, err := evalExprLazy(v.Scope, ctx)
		if err != nil {
			return err
		}
		handle := ctx.Store.AddScoped(value, DebugInfo{Location: v.Location})
		return ctx.ScopedStore.Add(scope, v.Name, handle, DebugInfo{Location: v.Location})
	default:
		return newExecErr(ErrOther, "unknown variable type %T", variable)
	}
}

func varSetLazy(variable Variable, ctx *lazyStanzaContext, value LazyValue) error {
	switch v := variable.(type) {
	case *UnscopedVariable:
		handle := ctx.Store.Add(value, DebugInfo{Location: v.Location})
		return ctx.Locals.Set(v.Name, StoreRefLazy(handle))
	case *ScopedVariable:
		return newExecErr(ErrCannotAssignScopedVariable, "scoped variables cannot be assigned")
	default:
		return newExecErr(ErrOther, "unknown variable type %T", variable)
	}
}
