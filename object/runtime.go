package object

import (
	"log/slog"
	"reflect"
)

// Marshaller converts values at the boundary between scripts and host code.
type Marshaller interface {
	ToScriptValue(t reflect.Type, v any) (Object, error)
	ToHostValue(obj Object, t reflect.Type) (any, error)
	ToHostArgs(args []Object, params []reflect.Type, variadic bool) ([]any, error)
}

// Runtime is the per-assembly context the scopes and instances of this package
// are created in.
type Runtime interface {
	TypeResolver
	Marshaller() Marshaller
	Logger() *slog.Logger
	// LanguageVersion selects the meta function keys that are recognized.
	LanguageVersion() string
	// GlobalScope is the innermost assembly global scope. Function bodies
	// without an owning instance and class global scopes chain to it.
	GlobalScope() Scope
	// GlobalScopeFor returns the assembly global scope of one access modifier.
	GlobalScopeFor(access AccessModifier) Scope
}

// Chunk is a compiled block of script code.
type Chunk interface {
	Run(scope Scope) (Object, error)
}

// ChunkFunc adapts a Go function to Chunk.
type ChunkFunc func(scope Scope) (Object, error)

// Run calls f(scope).
func (f ChunkFunc) Run(scope Scope) (Object, error) { return f(scope) }

// Value returns a chunk that evaluates to obj.
func Value(obj Object) Chunk {
	return ChunkFunc(func(Scope) (Object, error) { return obj, nil })
}
