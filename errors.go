package solscript

import "errors"

var (
	ErrAlreadyBuilt = errors.New("assembly was already built")
	ErrNotBuilt     = errors.New("assembly is not built")

	ErrUnknownClass      = errors.New("unknown class")
	ErrNotInheritable    = errors.New("class cannot be inherited")
	ErrInheritanceCycle  = errors.New("inheritance cycle")
	ErrNothingToOverride = errors.New("no base function to override")
	ErrNotAnnotation     = errors.New("class is not an annotation")
	ErrMissingBody       = errors.New("function has no body")
	ErrFieldRedeclared   = errors.New("field redeclared by a subclass")
	ErrNativeConstructor = errors.New("constructor hides the native constructor")

	ErrCannotCreate        = errors.New("class cannot be created")
	ErrAbstractClass       = errors.New("class is abstract")
	ErrRecursiveAnnotation = errors.New("annotation applied recursively")
)
