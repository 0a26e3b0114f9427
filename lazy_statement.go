package graphdsl

import (
	"io"
	"os"

	"github.com/viant/graphdsl/ident"
)

// graphElementKind discriminates the three kinds of graph writes the
// lazy program can duplicate-detect.
type graphElementKind int

const (
	elementNodeAttribute graphElementKind = iota
	elementEdge
	elementEdgeAttribute
)

// GraphElementKey identifies one node attribute, edge, or edge
// attribute, for the lazy evaluator's duplicate-write tracking.
type GraphElementKey struct {
	kind graphElementKind
	a, b GraphNodeRef
	name ident.Identifier
}

func nodeAttributeKey(node GraphNodeRef, name ident.Identifier) GraphElementKey {
	return GraphElementKey{kind: elementNodeAttribute, a: node, name: name}
}

func edgeKey(src, sink GraphNodeRef) GraphElementKey {
	return GraphElementKey{kind: elementEdge, a: src, b: sink}
}

func edgeAttributeKey(src, sink GraphNodeRef, name ident.Identifier) GraphElementKey {
	return GraphElementKey{kind: elementEdgeAttribute, a: src, b: sink, name: name}
}

// LazyStatement is one deferred graph-mutation operation appended to a
// File's lazy program during stanza execution, evaluated only in the
// final pass.
type LazyStatement interface {
	Evaluate(ctx *lazyProgramContext) error
}

// lazyProgramContext is the EvaluationContext plus the shared
// duplicate-write tracking table consulted during the final pass.
type lazyProgramContext struct {
	*EvaluationContext
	PrevElementDebugInfo map[GraphElementKey]DebugInfo
}

// LazyAttribute is one `name = value` pair inside a deferred attr
// statement.
type LazyAttribute struct {
	Name     ident.Identifier
	NameText string
	Value    LazyValue
}

type LazyAddGraphNodeAttribute struct {
	Node       LazyValue
	Attributes []LazyAttribute
	Debug      DebugInfo
}

func (s *LazyAddGraphNodeAttribute) Evaluate(ctx *lazyProgramContext) error {
	v, err := s.Node.evaluate(ctx.EvaluationContext)
	if err != nil {
		return err
	}
	ref, err := v.IntoGraphNodeRef()
	if err != nil {
		return err
	}
	attrs := ctx.Graph.Node(ref).Attributes
	for _, a := range s.Attributes {
		val, err := a.Value.evaluate(ctx.EvaluationContext)
		if err != nil {
			return err
		}
		key := nodeAttributeKey(ref, a.Name)
		if !attrs.Add(a.Name, val) {
			prev := ctx.PrevElementDebugInfo[key]
			return newExecErr(ErrDuplicateAttribute, "attribute %q already set at %s", a.NameText, prev.Location)
		}
		ctx.PrevElementDebugInfo[key] = s.Debug
	}
	return nil
}

type LazyCreateEdge struct {
	Source LazyValue
	Sink   LazyValue
	Debug  DebugInfo
}

func (s *LazyCreateEdge) Evaluate(ctx *lazyProgramContext) error {
	sv, err := s.Source.evaluate(ctx.EvaluationContext)
	if err != nil {
		return err
	}
	src, err := sv.IntoGraphNodeRef()
	if err != nil {
		return err
	}
	kv, err := s.Sink.evaluate(ctx.EvaluationContext)
	if err != nil {
		return err
	}
	sink, err := kv.IntoGraphNodeRef()
	if err != nil {
		return err
	}
	if _, isNew := ctx.Graph.Node(src).AddEdge(sink); !isNew {
		key := edgeKey(src, sink)
		prev := ctx.PrevElementDebugInfo[key]
		return newExecErr(ErrDuplicateEdge, "edge %d -> %d already exists, first created at %s", src.Index(), sink.Index(), prev.Location)
	}
	ctx.PrevElementDebugInfo[edgeKey(src, sink)] = s.Debug
	return nil
}

type LazyAddEdgeAttribute struct {
	Source     LazyValue
	Sink       LazyValue
	Attributes []LazyAttribute
	Debug      DebugInfo
}

func (s *LazyAddEdgeAttribute) Evaluate(ctx *lazyProgramContext) error {
	sv, err := s.Source.evaluate(ctx.EvaluationContext)
	if err != nil {
		return err
	}
	src, err := sv.IntoGraphNodeRef()
	if err != nil {
		return err
	}
	kv, err := s.Sink.evaluate(ctx.EvaluationContext)
	if err != nil {
		return err
	}
	sink, err := kv.IntoGraphNodeRef()
	if err != nil {
		return err
	}
	edge, ok := ctx.Graph.Node(src).Edge(sink)
	if !ok {
		return newExecErr(ErrUndefinedEdge, "edge %d -> %d does not exist", src.Index(), sink.Index())
	}
	for _, a := range s.Attributes {
		val, err := a.Value.evaluate(ctx.EvaluationContext)
		if err != nil {
			return err
		}
		key := edgeAttributeKey(src, sink, a.Name)
		if !edge.Attributes.Add(a.Name, val) {
			prev := ctx.PrevElementDebugInfo[key]
			return newExecErr(ErrDuplicateAttribute, "attribute %q already set at %s", a.NameText, prev.Location)
		}
		ctx.PrevElementDebugInfo[key] = s.Debug
	}
	return nil
}

type LazyPrintArgument struct {
	Literal   string
	IsLiteral bool
	Value     LazyValue
}

type LazyPrint struct {
	Arguments []LazyPrintArgument
	Debug     DebugInfo
}

func (s *LazyPrint) Evaluate(ctx *lazyProgramContext) error {
	var out string
	for _, a := range s.Arguments {
		if a.IsLiteral {
			out += a.Literal
			continue
		}
		v, err := a.Value.evaluate(ctx.EvaluationContext)
		if err != nil {
			return err
		}
		out += Display(v, ctx.Graph)
	}
	w := ctx.Output
	if w == nil {
		w = os.Stderr
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
