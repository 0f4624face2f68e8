package object

import (
	"errors"
	"fmt"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

var (
	ErrNotDeclared     = errors.New("not declared")
	ErrNotAssigned     = errors.New("not assigned")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrAlreadyDeclared = errors.New("already declared")
	// ErrNativeReferenceUnresolved is reported when the host object behind a
	// native slot does not exist yet.
	ErrNativeReferenceUnresolved = native.ErrNotRetrieved
	ErrNativeException           = native.ErrException
	ErrRuntimeError              = errors.New("runtime error")
	ErrFunctionsAreImmutable     = errors.New("functions are immutable")
	ErrCyclicParent              = errors.New("cyclic parent")
	ErrReadOnly                  = errors.New("read-only variable")
	ErrMarshalling               = errors.New("marshalling error")

	ErrInvalidMetaFunctionAccess     = errors.New("invalid meta function access")
	ErrInvalidMetaFunctionReturnType = errors.New("invalid meta function return type")
)

// VariableError is raised by the non-Try variable operations.
type VariableError struct {
	Op    string
	Name  string
	State VariableState
	Cause error
}

func (e *VariableError) Error() string {
	msg := fmt.Sprintf("cannot %s variable %q: %s", e.Op, e.Name, e.State)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the state sentinel and the cause.
func (e *VariableError) Unwrap() []error {
	var errs []error
	if err := e.State.Err(); err != nil {
		errs = append(errs, err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func variableError(op, name string, state VariableState, cause error) error {
	if state == Success {
		return nil
	}
	return &VariableError{Op: op, Name: name, State: state, Cause: cause}
}

// MetaFunctionError reports a meta function that violates its contract.
type MetaFunctionError struct {
	Class    string
	Function string
	Err      error
	Detail   string
}

func (e *MetaFunctionError) Error() string {
	return fmt.Sprintf("class %s: meta function %s: %v: %s", e.Class, e.Function, e.Err, e.Detail)
}

func (e *MetaFunctionError) Unwrap() error { return e.Err }

// RuntimeError is a script-level failure, e.g. raised by script code run inside
// an annotation hook.
type RuntimeError struct {
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrRuntimeError.
func (e *RuntimeError) Is(target error) bool { return target == ErrRuntimeError }

// NewRuntimeError creates a script-level error.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}
