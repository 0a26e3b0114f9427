package graphdsl

import (
	"errors"
	"fmt"
)

// ErrorKind names a stable category of execution failure. Names match
// the interpreter's original error taxonomy so tests can assert on a
// specific failure mode without string-matching messages.
type ErrorKind string

const (
	ErrCannotAssignImmutableVariable    ErrorKind = "CannotAssignImmutableVariable"
	ErrCannotAssignScopedVariable       ErrorKind = "CannotAssignScopedVariable"
	ErrCannotDefineMutableScopedVariable ErrorKind = "CannotDefineMutableScopedVariable"
	ErrDuplicateAttribute               ErrorKind = "DuplicateAttribute"
	ErrDuplicateEdge                    ErrorKind = "DuplicateEdge"
	ErrDuplicateVariable                ErrorKind = "DuplicateVariable"
	ErrExpectedGraphNode                ErrorKind = "ExpectedGraphNode"
	ErrExpectedList                     ErrorKind = "ExpectedList"
	ErrExpectedBoolean                  ErrorKind = "ExpectedBoolean"
	ErrExpectedInteger                  ErrorKind = "ExpectedInteger"
	ErrExpectedString                   ErrorKind = "ExpectedString"
	ErrExpectedSyntaxNode               ErrorKind = "ExpectedSyntaxNode"
	ErrInvalidParameters                ErrorKind = "InvalidParameters"
	ErrInvalidVariableScope             ErrorKind = "InvalidVariableScope"
	ErrRecursivelyDefinedScopedVariable ErrorKind = "RecursivelyDefinedScopedVariable"
	ErrRecursivelyDefinedVariable       ErrorKind = "RecursivelyDefinedVariable"
	ErrUndefinedCapture                 ErrorKind = "UndefinedCapture"
	ErrUndefinedFunction                ErrorKind = "UndefinedFunction"
	ErrUndefinedRegexCapture            ErrorKind = "UndefinedRegexCapture"
	ErrUndefinedScopedVariable          ErrorKind = "UndefinedScopedVariable"
	ErrEmptyRegexCapture                ErrorKind = "EmptyRegexCapture"
	ErrUndefinedEdge                    ErrorKind = "UndefinedEdge"
	ErrUndefinedVariable                ErrorKind = "UndefinedVariable"
	ErrVariableScopesAlreadyForced      ErrorKind = "VariableScopesAlreadyForced"
	ErrParseTreeHasErrors               ErrorKind = "ParseTreeHasErrors"
	ErrOther                            ErrorKind = "Other"
)

// ExecutionError is the concrete error type raised by both interpreters.
// Kind is stable for callers that need to branch on failure mode; Cause
// optionally carries an underlying error, returned by Unwrap (the
// constructors in this package leave it nil). Context chaining wraps
// the *ExecutionError itself via fmt.Errorf (see wrapExecErr).
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

func newExecErr(kind ErrorKind, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// wrapExecErr augments err with one more line of context, the way the
// original interpreter's `.with_context(|| format!("Executing {}", stmt))`
// chains augment a propagating error. The returned error still unwraps
// to the original *ExecutionError via errors.As.
func wrapExecErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether err (or any error it wraps) is an *ExecutionError
// of the given kind.
func Is(err error, kind ErrorKind) bool {
	var ee *ExecutionError
	for err != nil {
		if errors.As(err, &ee) && ee.Kind == kind {
			return true
		}
		ee = nil
		err = errors.Unwrap(err)
	}
	return false
}

// Kind extracts the ErrorKind from err, if err wraps an *ExecutionError.
func Kind(err error) (ErrorKind, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// UndefinedFunctionError builds the stable error a Functions
// implementation returns for an unrecognized function name.
func UndefinedFunctionError(name string) error {
	return newExecErr(ErrUndefinedFunction, "undefined function %q", name)
}

// InvalidParametersError builds the stable error a Functions
// implementation returns when it is called with the wrong argument
// shape.
func InvalidParametersError(format string, args ...interface{}) error {
	return newExecErr(ErrInvalidParameters, format, args...)
}
