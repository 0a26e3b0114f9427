package graphdsl

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/graphdsl/ident"
)

// CaptureQuantifier mirrors the host query engine's capture
// multiplicity for one (pattern, capture) pair.
type CaptureQuantifier int

const (
	QuantifierZero CaptureQuantifier = iota
	QuantifierZeroOrOne
	QuantifierZeroOrMore
	QuantifierOne
	QuantifierOneOrMore
)

// Location is a 0-based source position (String renders it 1-based)
// used for error context and debug traces; it does not identify a host
// syntax node.
type Location struct {
	Row    int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Row+1, l.Column+1)
}

// DebugInfo is attached to every lazy statement and every store/scoped
// thunk so that errors and duplicate-write diagnostics can point back
// to a source location.
type DebugInfo struct {
	Location Location
}

// File is the root of one DSL program: an ordered sequence of stanzas
// plus, for lazy execution, a single combined query whose pattern
// indices line up 1:1 with Stanzas.
type File struct {
	Stanzas           []*Stanza
	CombinedQuery     *sitter.Query
	AllowSyntaxErrors bool
	// Output is where `print` statements write; defaults to os.Stderr
	// when nil, matching the reference interpreter's eprintln! target.
	Output io.Writer
}

// Stanza is one `(query) { statements }` unit.
type Stanza struct {
	Query                 *sitter.Query
	FullMatchCaptureIndex int // -1 if the stanza has no full-match capture
	Statements            []Statement
	Location               Location
}

func (s *Stanza) String() string {
	return fmt.Sprintf("stanza at %s", s.Location)
}

// Statement is any executable DSL statement.
type Statement interface {
	fmt.Stringer
	isStatement()
}

// Expression is any DSL expression; it may additionally be a Variable.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// Variable is an assignable Expression: either scoped (@e.name) or
// unscoped (a plain identifier).
type Variable interface {
	Expression
	isVariable()
}

// ---- Expressions ----

type FalseLiteral struct{}
type TrueLiteral struct{}
type NullLiteral struct{}

type IntegerConstant struct{ Value uint32 }
type StringConstant struct{ Value string }

type ListComprehension struct{ Elements []Expression }
type SetComprehension struct{ Elements []Expression }

// Capture is a named binding `@name` inside a query pattern.
// StanzaCaptureIndex indexes the capture within the stanza's own,
// independently-compiled Query (used in eager mode); FileCaptureIndex
// indexes the same-named capture within File.CombinedQuery (used in
// lazy mode), where capture ids are shared by name across patterns.
type Capture struct {
	Name                string
	StanzaCaptureIndex  int
	FileCaptureIndex    int
	Quantifier          CaptureQuantifier
	Location            Location
}

// ScopedVariable reads or assigns `@scope.name`: Scope evaluates to a
// SyntaxNode that keys a per-node variable namespace.
type ScopedVariable struct {
	Scope    Expression
	Name     ident.Identifier
	NameText string
	Location Location
}

// UnscopedVariable reads or assigns a plain variable name.
type UnscopedVariable struct {
	Name     ident.Identifier
	NameText string
	Location Location
}

// RegexCapture reads `$k`, the k-th capture group of the currently
// active scan arm's match.
type RegexCapture struct {
	MatchIndex int
	Location   Location
}

// Call is a function-call expression `(f a1 … an)`.
type Call struct {
	Function   string
	Parameters []Expression
	Location   Location
}

func (FalseLiteral) isExpression()       {}
func (TrueLiteral) isExpression()        {}
func (NullLiteral) isExpression()        {}
func (IntegerConstant) isExpression()    {}
func (StringConstant) isExpression()     {}
func (ListComprehension) isExpression()  {}
func (SetComprehension) isExpression()   {}
func (*Capture) isExpression()           {}
func (*ScopedVariable) isExpression()    {}
func (*UnscopedVariable) isExpression()  {}
func (*RegexCapture) isExpression()      {}
func (*Call) isExpression()              {}

func (*ScopedVariable) isVariable()   {}
func (*UnscopedVariable) isVariable() {}

func (FalseLiteral) String() string { return "#false" }
func (TrueLiteral) String() string  { return "#true" }
func (NullLiteral) String() string  { return "#null" }
func (c IntegerConstant) String() string { return fmt.Sprintf("%d", c.Value) }
func (c StringConstant) String() string  { return fmt.Sprintf("%q", c.Value) }

func (l ListComprehension) String() string { return exprListString("[", "]", l.Elements) }
func (s SetComprehension) String() string  { return exprListString("{", "}", s.Elements) }

func exprListString(open, close string, elems []Expression) string {
	var b strings.Builder
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteString(close)
	return b.String()
}

func (c *Capture) String() string { return "@" + c.Name }
func (v *ScopedVariable) String() string {
	return fmt.Sprintf("%s.%s", v.Scope, v.NameText)
}
func (v *UnscopedVariable) String() string { return v.NameText }
func (r *RegexCapture) String() string     { return fmt.Sprintf("$%d", r.MatchIndex) }
func (c *Call) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(c.Function)
	for _, p := range c.Parameters {
		b.WriteByte(' ')
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

// ---- Conditions ----

// Condition is an `if`/`elif` arm's guard.
type Condition interface {
	fmt.Stringer
	isCondition()
}

type SomeCondition struct{ Value Expression }
type NoneCondition struct{ Value Expression }
type BoolCondition struct{ Value Expression }

func (SomeCondition) isCondition() {}
func (NoneCondition) isCondition() {}
func (BoolCondition) isCondition() {}

func (c SomeCondition) String() string { return "some " + c.Value.String() }
func (c NoneCondition) String() string { return "none " + c.Value.String() }
func (c BoolCondition) String() string { return c.Value.String() }

// ---- Statements ----

type Attribute struct {
	Name     ident.Identifier
	NameText string
	Value    Expression
}

func (a Attribute) String() string { return fmt.Sprintf("%s = %s", a.NameText, a.Value) }

func attrListString(attrs []Attribute) string {
	var b strings.Builder
	for i, a := range attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	return b.String()
}

type DeclareImmutable struct {
	Variable Variable
	Value    Expression
	Location Location
}

type DeclareMutable struct {
	Variable Variable
	Value    Expression
	Location Location
}

type Assign struct {
	Variable Variable
	Value    Expression
	Location Location
}

type CreateGraphNode struct {
	Node     Variable
	Location Location
}

type AddGraphNodeAttribute struct {
	Node       Expression
	Attributes []Attribute
	Location   Location
}

type CreateEdge struct {
	Source   Expression
	Sink     Expression
	Location Location
}

type AddEdgeAttribute struct {
	Source     Expression
	Sink       Expression
	Attributes []Attribute
	Location   Location
}

// ScanArm is one `/regex/ { statements }` arm of a scan statement.
type ScanArm struct {
	Regex      *regexp.Regexp
	Source     string
	Statements []Statement
}

type Scan struct {
	Value    Expression
	Arms     []ScanArm
	Location Location
}

// PrintArgument is either a literal string (emitted verbatim) or an
// expression (evaluated then rendered by the value display rules).
type PrintArgument struct {
	Literal    string
	IsLiteral  bool
	Expression Expression
}

type Print struct {
	Arguments []PrintArgument
	Location  Location
}

type IfArm struct {
	Conditions []Condition
	Statements []Statement
}

type If struct {
	Arms     []IfArm
	Location Location
}

type ForIn struct {
	Variable Variable
	Value    Expression
	Body     []Statement
	Location Location
}

func (DeclareImmutable) isStatement()      {}
func (DeclareMutable) isStatement()        {}
func (Assign) isStatement()                {}
func (CreateGraphNode) isStatement()       {}
func (AddGraphNodeAttribute) isStatement() {}
func (CreateEdge) isStatement()            {}
func (AddEdgeAttribute) isStatement()      {}
func (*Scan) isStatement()                 {}
func (*Print) isStatement()                {}
func (*If) isStatement()                   {}
func (*ForIn) isStatement()                {}

func (s DeclareImmutable) String() string { return fmt.Sprintf("let %s = %s", s.Variable, s.Value) }
func (s DeclareMutable) String() string   { return fmt.Sprintf("var %s = %s", s.Variable, s.Value) }
func (s Assign) String() string           { return fmt.Sprintf("set %s = %s", s.Variable, s.Value) }
func (s CreateGraphNode) String() string  { return fmt.Sprintf("node %s", s.Node) }
func (s AddGraphNodeAttribute) String() string {
	return fmt.Sprintf("attr (%s) %s", s.Node, attrListString(s.Attributes))
}
func (s CreateEdge) String() string { return fmt.Sprintf("edge %s -> %s", s.Source, s.Sink) }
func (s AddEdgeAttribute) String() string {
	return fmt.Sprintf("attr (%s -> %s) %s", s.Source, s.Sink, attrListString(s.Attributes))
}
func (s *Scan) String() string { return fmt.Sprintf("scan %s", s.Value) }
func (s *Print) String() string {
	var parts []string
	for _, a := range s.Arguments {
		if a.IsLiteral {
			parts = append(parts, fmt.Sprintf("%q", a.Literal))
		} else {
			parts = append(parts, a.Expression.String())
		}
	}
	return "print " + strings.Join(parts, ", ")
}
func (s *If) String() string   { return "if" }
func (s *ForIn) String() string { return fmt.Sprintf("for %s in %s", s.Variable, s.Value) }
