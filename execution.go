package graphdsl

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/graphdsl/ident"
)

// ExecutionContext aggregates everything a statement or expression
// needs to run, for one stanza match, in eager mode.
type ExecutionContext struct {
	Context       *ident.Context
	Source        []byte
	Graph         *Graph
	Functions     Functions
	Locals        *VariableMap
	Scoped        *ScopedVariables
	RegexCaptures []string
	Match         *sitter.QueryMatch
	Logger        *slog.Logger
	// Output is where `print` statements write, verbatim and unescaped
	// plus a trailing newline. It carries no relation to Logger: a print
	// statement's text is program output, not a structured log record,
	// so it must never pass through slog's field-formatting/escaping.
	Output io.Writer
}

// Execute runs f eagerly against tree, returning a freshly built Graph.
func (f *File) Execute(ctx *ident.Context, tree *sitter.Tree, source []byte, functions Functions, globals *Globals, logger *slog.Logger) (*Graph, error) {
	graph := NewGraph()
	if err := f.ExecuteInto(ctx, graph, tree, source, functions, globals, logger); err != nil {
		return nil, err
	}
	return graph, nil
}

// ExecuteInto runs f eagerly against tree, mutating a pre-seeded graph.
func (f *File) ExecuteInto(ctx *ident.Context, graph *Graph, tree *sitter.Tree, source []byte, functions Functions, globals *Globals, logger *slog.Logger) error {
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
	scoped := NewScopedVariables()
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	root := tree.RootNode()
	for _, stanza := range f.Stanzas {
		if err := stanza.executeEager(cursor, root, ctx, source, graph, functions, globals, scoped, logger, output); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stanza) executeEager(cursor *sitter.QueryCursor, root *sitter.Node, idc *ident.Context, source []byte, graph *Graph, functions Functions, globals *Globals, scoped *ScopedVariables, logger *slog.Logger, output io.Writer) error {
	cursor.Exec(s.Query, root)
	locals := NewVariableMap(globals)
	for {
		mat, ok := cursor.NextMatch()
		if !ok {
			break
		}
		locals.Clear()
		exec := &ExecutionContext{
			Context: idc,
			Source:  source,
			Graph:   graph,
			Functions: functions,
			Locals:  locals,
			Output:  output,
			Scoped:  scoped,
			Match:   mat,
			Logger:  logger,
		}
		for _, stmt := range s.Statements {
			if err := execStatement(stmt, exec); err != nil {
				return wrapExecErr(err, "executing %s", stmt)
			}
		}
	}
	return nil
}

// ---- Statement dispatch ----

func execStatement(stmt Statement, exec *ExecutionContext) error {
	switch s := stmt.(type) {
	case DeclareImmutable:
		v, err := evalExpr(s.Value, exec)
		if err != nil {
			return err
		}
		return varAdd(s.Variable, exec, v, false)
	case DeclareMutable:
		if _, ok := s.Variable.(*ScopedVariable); ok {
			return newExecErr(ErrCannotDefineMutableScopedVariable, "scoped variables cannot be mutable")
		}
		v, err := evalExpr(s.Value, exec)
		if err != nil {
			return err
		}
		return varAdd(s.Variable, exec, v, true)
	case Assign:
		if _, ok := s.Variable.(*ScopedVariable); ok {
			return newExecErr(ErrCannotAssignScopedVariable, "scoped variables cannot be assigned")
		}
		v, err := evalExpr(s.Value, exec)
		if err != nil {
			return err
		}
		return varSet(s.Variable, exec, v)
	case CreateGraphNode:
		ref := exec.Graph.AddGraphNode()
		return varAdd(s.Node, exec, GraphNodeValue(ref), false)
	case AddGraphNodeAttribute:
		v, err := evalExpr(s.Node, exec)
		if err != nil {
			return err
		}
		ref, err := v.IntoGraphNodeRef()
		if err != nil {
			return err
		}
		return addAttributes(exec, exec.Graph.Node(ref).Attributes, s.Attributes)
	case CreateEdge:
		sv, err := evalExpr(s.Source, exec)
		if err != nil {
			return err
		}
		src, err := sv.IntoGraphNodeRef()
		if err != nil {
			return err
		}
		kv, err := evalExpr(s.Sink, exec)
		if err != nil {
			return err
		}
		sink, err := kv.IntoGraphNodeRef()
		if err != nil {
			return err
		}
		if _, isNew := exec.Graph.Node(src).AddEdge(sink); !isNew {
			return newExecErr(ErrDuplicateEdge, "edge %d -> %d already exists", src.Index(), sink.Index())
		}
		return nil
	case AddEdgeAttribute:
		sv, err := evalExpr(s.Source, exec)
		if err != nil {
			return err
		}
		src, err := sv.IntoGraphNodeRef()
		if err != nil {
			return err
		}
		kv, err := evalExpr(s.Sink, exec)
		if err != nil {
			return err
		}
		sink, err := kv.IntoGraphNodeRef()
		if err != nil {
			return err
		}
		edge, ok := exec.Graph.Node(src).Edge(sink)
		if !ok {
			return newExecErr(ErrUndefinedEdge, "edge %d -> %d does not exist", src.Index(), sink.Index())
		}
		return addAttributes(exec, edge.Attributes, s.Attributes)
	case *Scan:
		return execScan(s, exec)
	case *Print:
		return execPrint(s, exec)
	case *If:
		return execIf(s, exec)
	case *ForIn:
		return execForIn(s, exec)
	default:
		return newExecErr(ErrOther, "unknown statement type %T", stmt)
	}
}

func addAttributes(exec *ExecutionContext, attrs *Attributes, decls []Attribute) error {
	for _, a := range decls {
		v, err := evalExpr(a.Value, exec)
		if err != nil {
			return err
		}
		if !attrs.Add(a.Name, v) {
			return newExecErr(ErrDuplicateAttribute, "attribute %q already set", a.NameText)
		}
	}
	return nil
}

func execPrint(s *Print, exec *ExecutionContext) error {
	var out strings.Builder
	for _, a := range s.Arguments {
		if a.IsLiteral {
			out.WriteString(a.Literal)
			continue
		}
		v, err := evalExpr(a.Expression, exec)
		if err != nil {
			return err
		}
		out.WriteString(Display(v, exec.Graph))
	}
	out.WriteByte('\n')
	w := exec.Output
	if w == nil {
		w = os.Stderr
	}
	_, err := io.WriteString(w, out.String())
	return err
}

func execIf(s *If, exec *ExecutionContext) error {
	for _, arm := range s.Arms {
		ok := true
		for _, cond := range arm.Conditions {
			result, err := testCondition(cond, exec)
			if err != nil {
				return err
			}
			ok = ok && result
			if !ok {
				break
			}
		}
		if ok {
			child := exec.withLocals(exec.Locals.Nested())
			for _, stmt := range arm.Statements {
				if err := execStatement(stmt, child); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return nil
}

func testCondition(cond Condition, exec *ExecutionContext) (bool, error) {
	switch c := cond.(type) {
	case SomeCondition:
		v, err := evalExpr(c.Value, exec)
		if err != nil {
			return false, err
		}
		return !v.IsNull(), nil
	case NoneCondition:
		v, err := evalExpr(c.Value, exec)
		if err != nil {
			return false, err
		}
		return v.IsNull(), nil
	case BoolCondition:
		v, err := evalExpr(c.Value, exec)
		if err != nil {
			return false, err
		}
		return v.IntoBoolean()
	default:
		return false, newExecErr(ErrOther, "unknown condition type %T", cond)
	}
}

func execForIn(s *ForIn, exec *ExecutionContext) error {
	v, err := evalExpr(s.Value, exec)
	if err != nil {
		return err
	}
	elems, err := v.IntoList()
	if err != nil {
		return err
	}
	loopLocals := exec.Locals.Nested()
	for _, elem := range elems {
		loopLocals.Clear()
		child := exec.withLocals(loopLocals)
		if err := varAdd(s.Variable, child, elem, false); err != nil {
			return err
		}
		for _, stmt := range s.Body {
			if err := execStatement(stmt, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (exec *ExecutionContext) withLocals(locals *VariableMap) *ExecutionContext {
	cp := *exec
	cp.Locals = locals
	return &cp
}

// ---- Scan ----

func execScan(s *Scan, exec *ExecutionContext) error {
	v, err := evalExpr(s.Value, exec)
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
			matches = append(matches, armMatch{
				armIndex: armIndex,
				start:    loc[0],
				end:      loc[1],
				groups:   groups,
			})
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
		child := exec.withLocals(exec.Locals.Nested())
		child.RegexCaptures = winner.groups
		for _, stmt := range arm.Statements {
			if err := execStatement(stmt, child); err != nil {
				return err
			}
		}
		i += winner.end
	}
	return nil
}

// ---- Expression evaluation ----

func evalExpr(expr Expression, exec *ExecutionContext) (Value, error) {
	switch e := expr.(type) {
	case FalseLiteral:
		return BoolValue(false), nil
	case TrueLiteral:
		return BoolValue(true), nil
	case NullLiteral:
		return NullValue(), nil
	case IntegerConstant:
		return IntValue(e.Value), nil
	case StringConstant:
		return StringValue(e.Value), nil
	case ListComprehension:
		vals := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := evalExpr(el, exec)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return ListValue(vals), nil
	case SetComprehension:
		vals := make([]Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := evalExpr(el, exec)
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return SetValue(vals), nil
	case *Capture:
		return queryCaptureValue(e.StanzaCaptureIndex, e.Quantifier, exec.Match, exec.Graph), nil
	case *ScopedVariable:
		return scopedVarGet(e, exec)
	case *UnscopedVariable:
		v, ok := exec.Locals.Get(e.Name)
		if !ok {
			return Value{}, newExecErr(ErrUndefinedVariable, "undefined variable %q", e.NameText)
		}
		return v, nil
	case *RegexCapture:
		if e.MatchIndex < 0 || e.MatchIndex >= len(exec.RegexCaptures) {
			return Value{}, newExecErr(ErrUndefinedRegexCapture, "regex capture group $%d out of range", e.MatchIndex)
		}
		return StringValue(exec.RegexCaptures[e.MatchIndex]), nil
	case *Call:
		args := make([]Value, len(e.Parameters))
		for i, p := range e.Parameters {
			v, err := evalExpr(p, exec)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		v, err := exec.Functions.Call(e.Function, exec.Graph, exec.Source, args)
		if err != nil {
			return Value{}, err
		}
		return v, nil
	default:
		return Value{}, newExecErr(ErrOther, "unknown expression type %T", expr)
	}
}

func scopedVarGet(v *ScopedVariable, exec *ExecutionContext) (Value, error) {
	scopeVal, err := evalExpr(v.Scope, exec)
	if err != nil {
		return Value{}, err
	}
	ref, err := scopeVal.IntoSyntaxNodeRef()
	if err != nil {
		return Value{}, newExecErr(ErrInvalidVariableScope, "scope expression %s is not a syntax node", v.Scope)
	}
	vm := exec.Scoped.Scope(ref)
	val, ok := vm.Get(v.Name)
	if !ok {
		return Value{}, newExecErr(ErrUndefinedScopedVariable, "undefined scoped variable %q", v.NameText)
	}
	return val, nil
}

func varAdd(variable Variable, exec *ExecutionContext, value Value, mutable bool) error {
	switch v := variable.(type) {
	case *UnscopedVariable:
		return exec.Locals.Add(v.Name, value, mutable)
	case *ScopedVariable:
		if mutable {
			return newExecErr(ErrCannotDefineMutableScopedVariable, "scoped variables cannot be mutable")
		}
		scopeVal, err := evalExpr(v.Scope, exec)
		if err != nil {
			return err
		}
		ref, err := scopeVal.IntoSyntaxNodeRef()
		if err != nil {
			return newExecErr(ErrInvalidVariableScope, "scope expression %s is not a syntax node", v.Scope)
		}
		return exec.Scoped.Scope(ref).Add(v.Name, value, false)
	default:
		return newExecErr(ErrOther, "unknown variable type %T", variable)
	}
}

func varSet(variable Variable, exec *ExecutionContext, value Value) error {
	switch v := variable.(type) {
	case *UnscopedVariable:
		return exec.Locals.Set(v.Name, value)
	case *ScopedVariable:
		return newExecErr(ErrCannotAssignScopedVariable, "scoped variables cannot be assigned")
	default:
		_ = v
		return newExecErr(ErrOther, "unknown variable type %T", variable)
	}
}
