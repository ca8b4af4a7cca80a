// Package blueperr defines the error taxonomy shared by the plan builder and
// the executor. Errors are distinguished by kind, not by a flat error type:
// callers use errors.As to recover the structured fields they need.
package blueperr

import "fmt"

// ScriptError is a planning-time violation: branching on a Deferred, wrong
// arity on an intrinsic, or a non-serializable value reaching a plan file.
type ScriptError struct {
	Msg  string
	Span *Span
}

// Span mirrors plan.Span without importing the plan package, to avoid an
// import cycle (plan imports blueperr, not the reverse).
type Span struct {
	File   string
	Line   int
	Column int
}

func (e *ScriptError) Error() string {
	if e.Span == nil {
		return fmt.Sprintf("script error: %s", e.Msg)
	}
	return fmt.Sprintf("script error: %s (%s:%d:%d)", e.Msg, e.Span.File, e.Span.Line, e.Span.Column)
}

// NewScriptError builds a ScriptError without a span, for call sites that
// cannot attach source location (e.g. executor-time revalidation).
func NewScriptError(format string, args ...interface{}) *ScriptError {
	return &ScriptError{Msg: fmt.Sprintf(format, args...)}
}

// OperationError wraps a driver failure: an I/O, HTTP transport, or
// subprocess error that is not itself the result payload.
type OperationError struct {
	NodeID uint64
	Kind   string
	Cause  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("node %d (%s): %v", e.NodeID, e.Kind, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// Cancelled marks a node that did not complete because the plan was
// cancelled before or during its run.
type Cancelled struct {
	NodeID uint64
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("node %d: cancelled", e.NodeID)
}

// DependencyError marks a node that could not run because a data_dep or
// order_dep it relies on failed.
type DependencyError struct {
	NodeID    uint64
	FailedDep uint64
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("node %d: dependency %d failed", e.NodeID, e.FailedDep)
}

// NewOperationError wraps cause as the failure of the given node/kind. A nil
// cause (e.g. any() over zero ops) is replaced with a generic message so the
// error chain is never silently empty.
func NewOperationError(nodeID uint64, kind string, cause error) *OperationError {
	if cause == nil {
		cause = fmt.Errorf("no operation succeeded")
	}
	return &OperationError{NodeID: nodeID, Kind: kind, Cause: cause}
}
