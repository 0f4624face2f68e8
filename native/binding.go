package native

import (
	"fmt"
	"reflect"
)

// Field is a host field or property with registered accessors.
type Field struct {
	Name string
	Type reflect.Type
	Get  func(target any) (any, error)
	// Set is nil for read-only members.
	Set func(target any, value any) error
	// Static fields ignore their target.
	Static bool
}

// Read invokes the getter.
func (f Field) Read(target any) (any, error) {
	return invoke("field "+f.Name, func() (any, error) { return f.Get(target) })
}

// Write invokes the setter.
func (f Field) Write(target any, value any) error {
	if f.Set == nil {
		return &Exception{Member: "field " + f.Name, Cause: fmt.Errorf("field is read-only")}
	}
	_, err := invoke("field "+f.Name, func() (struct{}, error) { return struct{}{}, f.Set(target, value) })
	return err
}

// Method is a host method. Return is nil for methods without a result.
type Method struct {
	Name     string
	Params   []reflect.Type
	Variadic bool
	Return   reflect.Type
	Call     func(target any, args []any) (any, error)
}

// Invoke calls the method on target.
func (m Method) Invoke(target any, args []any) (any, error) {
	return invoke("method "+m.Name, func() (any, error) { return m.Call(target, args) })
}

// Constructor creates a new host object.
type Constructor struct {
	Params   []reflect.Type
	Variadic bool
	New      func(args []any) (any, error)
}

// Accepts reports whether the constructor can be called with n script arguments.
func (c Constructor) Accepts(n int) bool {
	if c.Variadic {
		return n >= len(c.Params)-1
	}
	return n <= len(c.Params)
}

// Invoke calls the constructor.
func (c Constructor) Invoke(args []any) (any, error) {
	return invoke("constructor", func() (any, error) { return c.New(args) })
}

// TypeBinding describes one host type exposed to scripts as a class.
type TypeBinding struct {
	// Name is the script class name.
	Name         string
	Type         reflect.Type
	Fields       []Field
	Methods      []Method
	Constructors []Constructor
}

// Bind starts a binding for *T.
func Bind[T any](name string) *TypeBinding {
	return &TypeBinding{Name: name, Type: reflect.TypeFor[*T]()}
}

// WithField appends fields and returns the binding.
func (b *TypeBinding) WithField(fields ...Field) *TypeBinding {
	b.Fields = append(b.Fields, fields...)
	return b
}

// WithMethod appends methods and returns the binding.
func (b *TypeBinding) WithMethod(methods ...Method) *TypeBinding {
	b.Methods = append(b.Methods, methods...)
	return b
}

// WithConstructor appends constructors and returns the binding.
func (b *TypeBinding) WithConstructor(ctors ...Constructor) *TypeBinding {
	b.Constructors = append(b.Constructors, ctors...)
	return b
}

// Field finds a field by name.
func (b *TypeBinding) Field(name string) (Field, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Method finds a method by name.
func (b *TypeBinding) Method(name string) (Method, bool) {
	for _, m := range b.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

func target[T any](v any) (*T, error) {
	t, ok := v.(*T)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: want %s, got %T", ErrTargetType, reflect.TypeFor[*T](), v)
	}
	return t, nil
}

func coerce[V any](v any) (V, error) {
	var zero V
	if v == nil {
		return zero, nil
	}
	val, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("cannot use %T as %s", v, reflect.TypeFor[V]())
	}
	return val, nil
}

// FieldOf builds a Field of *T from typed accessors. set may be nil.
func FieldOf[T, V any](name string, get func(*T) V, set func(*T, V)) Field {
	f := Field{
		Name: name,
		Type: reflect.TypeFor[V](),
		Get: func(v any) (any, error) {
			t, err := target[T](v)
			if err != nil {
				return nil, err
			}
			return get(t), nil
		},
	}
	if set != nil {
		f.Set = func(v any, value any) error {
			t, err := target[T](v)
			if err != nil {
				return err
			}
			val, err := coerce[V](value)
			if err != nil {
				return err
			}
			set(t, val)
			return nil
		}
	}
	return f
}

// StaticField builds a Field that ignores its target. set may be nil.
func StaticField[V any](name string, get func() V, set func(V)) Field {
	f := Field{
		Name:   name,
		Type:   reflect.TypeFor[V](),
		Get:    func(any) (any, error) { return get(), nil },
		Static: true,
	}
	if set != nil {
		f.Set = func(_ any, value any) error {
			val, err := coerce[V](value)
			if err != nil {
				return err
			}
			set(val)
			return nil
		}
	}
	return f
}

// MethodOf builds a Method of *T. ret is nil for methods without a result.
func MethodOf[T any](name string, params []reflect.Type, ret reflect.Type, call func(t *T, args []any) (any, error)) Method {
	return Method{
		Name:   name,
		Params: params,
		Return: ret,
		Call: func(v any, args []any) (any, error) {
			t, err := target[T](v)
			if err != nil {
				return nil, err
			}
			return call(t, args)
		},
	}
}

// Func builds a Method that needs no receiver.
func Func(name string, params []reflect.Type, ret reflect.Type, call func(args []any) (any, error)) Method {
	return Method{
		Name:   name,
		Params: params,
		Return: ret,
		Call:   func(_ any, args []any) (any, error) { return call(args) },
	}
}

// ConstructorOf builds a Constructor producing *T.
func ConstructorOf[T any](params []reflect.Type, fn func(args []any) (*T, error)) Constructor {
	return Constructor{
		Params: params,
		New: func(args []any) (any, error) {
			t, err := fn(args)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	}
}
