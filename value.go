package graphdsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBoolean
	KindInteger
	KindString
	KindList
	KindSet
	KindSyntaxNode
	KindGraphNode
)

// Value is the eager-mode tagged union: Null, Boolean, Integer, String,
// List, Set, SyntaxNode or GraphNode. The zero Value is Null.
type Value struct {
	kind       ValueKind
	boolean    bool
	integer    uint32
	str        string
	list       []Value
	set        []Value // sorted, deduplicated by Compare
	syntaxNode SyntaxNodeRef
	graphNode  GraphNodeRef
}

func NullValue() Value                  { return Value{kind: KindNull} }
func BoolValue(b bool) Value             { return Value{kind: KindBoolean, boolean: b} }
func IntValue(n uint32) Value            { return Value{kind: KindInteger, integer: n} }
func StringValue(s string) Value         { return Value{kind: KindString, str: s} }
func SyntaxNodeValue(r SyntaxNodeRef) Value { return Value{kind: KindSyntaxNode, syntaxNode: r} }
func GraphNodeValue(r GraphNodeRef) Value   { return Value{kind: KindGraphNode, graphNode: r} }

// ListValue builds a List value, preserving element order.
func ListValue(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindList, list: cp}
}

// SetValue builds a Set value: sorted and deduplicated by Compare.
func SetValue(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	sort.Slice(cp, func(i, j int) bool { return Compare(cp[i], cp[j]) < 0 })
	out := cp[:0]
	for i, v := range cp {
		if i == 0 || Compare(out[len(out)-1], v) != 0 {
			out = append(out, v)
		}
	}
	return Value{kind: KindSet, set: out}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// Compare gives the total order over Value: lexicographic on variant
// tag, then on payload.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBoolean:
		return boolCompare(a.boolean, b.boolean)
	case KindInteger:
		switch {
		case a.integer < b.integer:
			return -1
		case a.integer > b.integer:
			return 1
		default:
			return 0
		}
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindList, KindSet:
		ae, be := a.elems(), b.elems()
		for i := 0; i < len(ae) && i < len(be); i++ {
			if c := Compare(ae[i], be[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(ae) < len(be):
			return -1
		case len(ae) > len(be):
			return 1
		default:
			return 0
		}
	case KindSyntaxNode:
		return uint64Compare(a.syntaxNode.id, b.syntaxNode.id)
	case KindGraphNode:
		return uint32Compare(a.graphNode.id, b.graphNode.id)
	default:
		return 0
	}
}

func (v Value) elems() []Value {
	if v.kind == KindSet {
		return v.set
	}
	return v.list
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func uint32Compare(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func uint64Compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports structural equality.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// IntoBoolean coerces v to a bool, or fails with ExpectedBoolean.
func (v Value) IntoBoolean() (bool, error) {
	if v.kind != KindBoolean {
		return false, newExecErr(ErrExpectedBoolean, "expected boolean, found %s", v.kind.String())
	}
	return v.boolean, nil
}

// IntoInteger coerces v to a uint32, or fails with ExpectedInteger.
func (v Value) IntoInteger() (uint32, error) {
	if v.kind != KindInteger {
		return 0, newExecErr(ErrExpectedInteger, "expected integer, found %s", v.kind.String())
	}
	return v.integer, nil
}

// IntoString coerces v to a string, or fails with ExpectedString.
func (v Value) IntoString() (string, error) {
	if v.kind != KindString {
		return "", newExecErr(ErrExpectedString, "expected string, found %s", v.kind.String())
	}
	return v.str, nil
}

// IntoList coerces v to a slice of Value, or fails with ExpectedList.
// Both List and Set values satisfy this coercion.
func (v Value) IntoList() ([]Value, error) {
	switch v.kind {
	case KindList:
		return v.list, nil
	case KindSet:
		return v.set, nil
	default:
		return nil, newExecErr(ErrExpectedList, "expected list, found %s", v.kind.String())
	}
}

// IntoGraphNodeRef coerces v to a GraphNodeRef, or fails with
// ExpectedGraphNode.
func (v Value) IntoGraphNodeRef() (GraphNodeRef, error) {
	if v.kind != KindGraphNode {
		return GraphNodeRef{}, newExecErr(ErrExpectedGraphNode, "expected graph node, found %s", v.kind.String())
	}
	return v.graphNode, nil
}

// IntoSyntaxNodeRef coerces v to a SyntaxNodeRef, or fails with
// ExpectedSyntaxNode.
func (v Value) IntoSyntaxNodeRef() (SyntaxNodeRef, error) {
	if v.kind != KindSyntaxNode {
		return SyntaxNodeRef{}, newExecErr(ErrExpectedSyntaxNode, "expected syntax node, found %s", v.kind.String())
	}
	return v.syntaxNode, nil
}

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindSyntaxNode:
		return "syntax node"
	case KindGraphNode:
		return "graph node"
	default:
		return "unknown"
	}
}

// Display renders v per the stable graph-display format: #null,
// #true/#false, decimal integers, quoted escaped strings, [v1, v2, …]
// for lists, {v1, v2, …} for sets, and bracketed syntax/graph node
// references resolved against graph.
func Display(v Value, graph *Graph) string {
	var b strings.Builder
	writeValue(&b, v, graph)
	return b.String()
}

func writeValue(b *strings.Builder, v Value, graph *Graph) {
	switch v.kind {
	case KindNull:
		b.WriteString("#null")
	case KindBoolean:
		if v.boolean {
			b.WriteString("#true")
		} else {
			b.WriteString("#false")
		}
	case KindInteger:
		b.WriteString(strconv.FormatUint(uint64(v.integer), 10))
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindList:
		b.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e, graph)
		}
		b.WriteByte(']')
	case KindSet:
		b.WriteByte('{')
		for i, e := range v.set {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e, graph)
		}
		b.WriteByte('}')
	case KindSyntaxNode:
		node := graph.SyntaxNode(v.syntaxNode)
		row, col := 1, 1
		kind := "unknown"
		if node != nil {
			p := node.StartPoint()
			row, col = int(p.Row)+1, int(p.Column)+1
			kind = node.Type()
		}
		fmt.Fprintf(b, "[syntax node %s (%d, %d)]", kind, row, col)
	case KindGraphNode:
		fmt.Fprintf(b, "[graph node %d]", v.graphNode.id)
	}
}
