package object

import (
	"reflect"
	"strings"
)

// Names of the builtin script types. Any other name refers to a class.
const (
	TypeAny      = "any"
	TypeNil      = "nil"
	TypeBool     = "bool"
	TypeNumber   = "number"
	TypeString   = "string"
	TypeTable    = "table"
	TypeFunction = "function"
)

// TypeRef is a declared script type: a type name and whether nil is accepted.
// The textual form is the name with a trailing "?" for nullable types.
type TypeRef struct {
	Name     string
	CanBeNil bool
}

// AnyType accepts every value, including nil.
var AnyType = TypeRef{Name: TypeAny, CanBeNil: true}

// Nullable returns the nullable type name.
func Nullable(name string) TypeRef { return TypeRef{Name: name, CanBeNil: true} }

// NonNull returns the non-nullable type name.
func NonNull(name string) TypeRef { return TypeRef{Name: name} }

// ParseTypeRef parses "name" or "name?". The empty string is AnyType.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnyType
	}
	if name, ok := strings.CutSuffix(s, "?"); ok {
		return Nullable(name)
	}
	if s == TypeNil {
		return Nullable(TypeNil)
	}
	return NonNull(s)
}

// IsZero reports whether t was never set.
func (t TypeRef) IsZero() bool { return t.Name == "" }

func (t TypeRef) String() string {
	if t.CanBeNil && t.Name != TypeNil {
		return t.Name + "?"
	}
	return t.Name
}

// TypeResolver answers class assignability questions.
type TypeResolver interface {
	// IsAssignable reports whether a value of class from can be stored where
	// class to is expected.
	IsAssignable(from, to string) bool
}

// IsCompatible reports whether a value of type other can be stored in t.
func (t TypeRef) IsCompatible(r TypeResolver, other TypeRef) bool {
	if other.Name == TypeNil {
		return t.CanBeNil
	}
	if other.CanBeNil && !t.CanBeNil {
		return false
	}
	if t.Name == TypeAny || t.Name == other.Name {
		return true
	}
	if isBuiltinType(t.Name) || isBuiltinType(other.Name) || r == nil {
		return false
	}
	return r.IsAssignable(other.Name, t.Name)
}

// Accepts reports whether the runtime value obj can be stored in t.
func (t TypeRef) Accepts(r TypeResolver, obj Object) bool {
	return t.IsCompatible(r, TypeOf(obj))
}

// TypeOf returns the runtime type of obj.
func TypeOf(obj Object) TypeRef {
	switch obj := obj.(type) {
	case nil, *Nil:
		return Nullable(TypeNil)
	case *Boolean:
		return NonNull(TypeBool)
	case *Number:
		return NonNull(TypeNumber)
	case *String:
		return NonNull(TypeString)
	case *Table:
		return NonNull(TypeTable)
	case Function:
		return NonNull(TypeFunction)
	case *ClassInstance:
		return NonNull(obj.Definition().Name)
	}
	return NonNull(TypeAny)
}

func isBuiltinType(name string) bool {
	switch name {
	case TypeAny, TypeNil, TypeBool, TypeNumber, TypeString, TypeTable, TypeFunction:
		return true
	}
	return false
}

// hostCarries reports whether a host value of type h can hold every value of t.
func hostCarries(t TypeRef, h reflect.Type) bool {
	if h == nil {
		return false
	}
	if h.Kind() == reflect.Interface {
		return true
	}
	if t.CanBeNil && t.Name != TypeAny && !isNillable(h) {
		return false
	}
	switch t.Name {
	case TypeAny:
		return false
	case TypeNil:
		return isNillable(h)
	case TypeBool:
		return h.Kind() == reflect.Bool
	case TypeString:
		return h.Kind() == reflect.String
	case TypeNumber:
		switch h.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case TypeTable:
		switch h.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return true
		}
		return false
	case TypeFunction:
		return h.Kind() == reflect.Func
	}
	// class types are carried by host reference types
	switch h.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func:
		return true
	}
	return false
}
