// Package native describes Go host types to the script runtime.
//
// Host members are exposed through accessor closures that are registered once per
// type (see FieldOf, MethodOf and ConstructorOf), so reading or writing a native
// field never goes through reflection at call time.
package native

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRetrieved is returned by a DynamicRef that currently has no host object,
	// e.g. because the owning native object has not been constructed yet.
	ErrNotRetrieved = errors.New("native reference not retrieved")
	// ErrNotAssigned is returned when a DynamicRef cannot be bound.
	ErrNotAssigned = errors.New("native reference cannot be assigned")
	// ErrException is matched by every *Exception.
	ErrException = errors.New("native exception")
	// ErrTargetType is returned by an accessor invoked on a target of the wrong type.
	ErrTargetType = errors.New("unexpected native target type")
)

// Exception is a failure raised by host code while it was invoked from a script.
type Exception struct {
	Member string
	Cause  error
}

func (e *Exception) Error() string {
	return fmt.Sprintf("native %s: %v", e.Member, e.Cause)
}

func (e *Exception) Unwrap() error { return e.Cause }

// Is reports whether target is ErrException.
func (e *Exception) Is(target error) bool { return target == ErrException }

// invoke runs fn and converts both a returned error and a panic into an *Exception.
func invoke[T any](member string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &Exception{Member: member, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	result, err = fn()
	if err != nil {
		var ex *Exception
		if !errors.As(err, &ex) {
			err = &Exception{Member: member, Cause: err}
		}
	}
	return result, err
}
