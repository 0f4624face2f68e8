package object

// VariableState is the outcome of a non-raising variable operation.
type VariableState int

const (
	Success VariableState = iota
	FailedNotDeclared
	FailedNotAssigned
	FailedTypeMismatch
	FailedNativeError
	FailedNativeException
	FailedRuntimeError
	FailedAlreadyDeclared
	FailedFunctionsAreImmutable
	FailedCyclicParent
	FailedReadOnly
)

var stateNames = [...]string{
	Success:                     "success",
	FailedNotDeclared:           "not declared",
	FailedNotAssigned:           "not assigned",
	FailedTypeMismatch:          "type mismatch",
	FailedNativeError:           "native error",
	FailedNativeException:       "native exception",
	FailedRuntimeError:          "runtime error",
	FailedAlreadyDeclared:       "already declared",
	FailedFunctionsAreImmutable: "functions are immutable",
	FailedCyclicParent:          "cyclic parent",
	FailedReadOnly:              "read-only",
}

func (s VariableState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown state"
	}
	return stateNames[s]
}

// Err returns the sentinel error matching s. Success and FailedNativeError have
// none; a native error is described by its cause.
func (s VariableState) Err() error {
	switch s {
	case FailedNotDeclared:
		return ErrNotDeclared
	case FailedNotAssigned:
		return ErrNotAssigned
	case FailedTypeMismatch:
		return ErrTypeMismatch
	case FailedNativeException:
		return ErrNativeException
	case FailedRuntimeError:
		return ErrRuntimeError
	case FailedAlreadyDeclared:
		return ErrAlreadyDeclared
	case FailedFunctionsAreImmutable:
		return ErrFunctionsAreImmutable
	case FailedCyclicParent:
		return ErrCyclicParent
	case FailedReadOnly:
		return ErrReadOnly
	}
	return nil
}
