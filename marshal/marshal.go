// Package marshal converts values between scripts and Go host code.
//
// Host reference values (pointers, maps, channels) of registered types are
// wrapped into class instances. A Marshaller remembers the wrapper of every host
// object it has seen, so the same host object always yields the same script
// instance while that instance is alive.
package marshal

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/PatrickSachs/SolScript-sub001/native"
	"github.com/PatrickSachs/SolScript-sub001/object"
)

// Resolver knows the classes of the host types.
type Resolver interface {
	ClassForHostType(t reflect.Type) (*object.ClassDefinition, bool)
	// WrapHost creates an initialized instance of def backed by host without
	// running any script initialization.
	WrapHost(def *object.ClassDefinition, host any) (*object.ClassInstance, error)
}

// MarshallingError reports a value that has no conversion.
type MarshallingError struct {
	TypeName string
	Cause    error
}

func (e *MarshallingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot marshal %s: %v", e.TypeName, e.Cause)
	}
	return fmt.Sprintf("cannot marshal %s", e.TypeName)
}

func (e *MarshallingError) Unwrap() error { return e.Cause }

// Is reports whether target is object.ErrMarshalling.
func (e *MarshallingError) Is(target error) bool { return target == object.ErrMarshalling }

// Marshaller implements object.Marshaller for one assembly.
type Marshaller struct {
	resolver Resolver
	cache    *identityCache
	logger   *slog.Logger
}

var _ object.Marshaller = (*Marshaller)(nil)

// New creates a Marshaller. logger may be nil.
func New(resolver Resolver, logger *slog.Logger) *Marshaller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Marshaller{resolver: resolver, cache: newIdentityCache(), logger: logger}
}

// ToScriptValue converts a host value of type t. A nil t stands for a method
// without result.
func (m *Marshaller) ToScriptValue(t reflect.Type, v any) (object.Object, error) {
	if t == nil || v == nil {
		return object.NIL, nil
	}
	if obj, ok := v.(object.Object); ok {
		return obj, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return object.NativeBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &object.Number{Value: float64(rv.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &object.Number{Value: float64(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return &object.Number{Value: rv.Float()}, nil
	case reflect.String:
		return &object.String{Value: rv.String()}, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return object.NIL, nil
		}
		values := make([]object.Object, rv.Len())
		for i := range values {
			ev, err := m.ToScriptValue(rv.Type().Elem(), rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			values[i] = ev
		}
		return object.NewArrayTable(values...), nil
	case reflect.Map:
		if rv.IsNil() {
			return object.NIL, nil
		}
		if _, ok := m.resolver.ClassForHostType(rv.Type()); ok {
			return m.wrap(rv)
		}
		return m.mapToTable(rv)
	case reflect.Pointer, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return object.NIL, nil
		}
		return m.wrap(rv)
	}
	return nil, &MarshallingError{TypeName: rv.Type().String()}
}

func (m *Marshaller) mapToTable(rv reflect.Value) (object.Object, error) {
	t := object.NewTable()
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.ToScriptValue(rv.Type().Key(), iter.Key().Interface())
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		v, err := m.ToScriptValue(rv.Type().Elem(), iter.Value().Interface())
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		if err := t.Set(k, v); err != nil {
			return nil, &MarshallingError{TypeName: rv.Type().String(), Cause: err}
		}
	}
	return t, nil
}

// wrap returns the script instance of a host reference value.
func (m *Marshaller) wrap(rv reflect.Value) (object.Object, error) {
	typ := rv.Type()
	def, ok := m.resolver.ClassForHostType(typ)
	if !ok {
		return nil, &MarshallingError{TypeName: typ.String(), Cause: fmt.Errorf("type is not registered")}
	}
	// function values have no usable identity
	cacheable := typ.Kind() != reflect.Func
	key := identityKey{typ: typ}
	if cacheable {
		key.addr = rv.Pointer()
		if inst, ok := m.cache.load(key); ok {
			m.logger.Debug("identity cache hit", slog.String("type", typ.String()), slog.String("class", def.Name))
			return inst, nil
		}
	}
	inst, err := m.resolver.WrapHost(def, rv.Interface())
	if err != nil {
		return nil, &MarshallingError{TypeName: typ.String(), Cause: err}
	}
	if cacheable {
		m.cache.store(key, inst)
		m.logger.Debug("identity cache miss", slog.String("type", typ.String()), slog.String("class", def.Name))
	}
	return inst, nil
}

// Track records inst as the wrapper of its native object, so marshalling that
// object later yields inst.
func (m *Marshaller) Track(inst *object.ClassInstance) {
	host, ok := inst.NativeObject()
	if !ok {
		return
	}
	rv := reflect.ValueOf(host)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan:
		if rv.IsNil() {
			return
		}
		m.cache.store(identityKey{typ: rv.Type(), addr: rv.Pointer()}, inst)
	}
}

// ToHostValue converts obj to a host value of type t.
func (m *Marshaller) ToHostValue(obj object.Object, t reflect.Type) (any, error) {
	if obj == nil {
		obj = object.NIL
	}
	if t == nil {
		return nil, &MarshallingError{TypeName: "void"}
	}
	if object.IsNil(obj) && t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return nil, nil
	}
	if reflect.TypeOf(obj).AssignableTo(t) {
		return obj, nil
	}
	if tbl, ok := obj.(*object.Table); ok {
		return m.tableToHost(tbl, t)
	}
	if c, ok := obj.(object.HostConvertible); ok {
		v, err := c.ToHost(t)
		if err != nil {
			return nil, &MarshallingError{TypeName: t.String(), Cause: err}
		}
		return v.Interface(), nil
	}
	return nil, &MarshallingError{TypeName: t.String(), Cause: fmt.Errorf("no conversion from %s", obj.Type())}
}

func (m *Marshaller) tableToHost(tbl *object.Table, t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.Slice:
		elems := tbl.Array()
		out := reflect.MakeSlice(t, len(elems), len(elems))
		for i, e := range elems {
			if err := m.setHost(out.Index(i), e); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return out.Interface(), nil
	case reflect.Map:
		out := reflect.MakeMapWithSize(t, tbl.Len())
		for k, v := range tbl.All() {
			hk, err := m.ToHostValue(k, t.Key())
			if err != nil {
				return nil, fmt.Errorf("map key: %w", err)
			}
			hv := reflect.New(t.Elem()).Elem()
			if err := m.setHost(hv, v); err != nil {
				return nil, fmt.Errorf("map value: %w", err)
			}
			out.SetMapIndex(reflect.ValueOf(hk), hv)
		}
		return out.Interface(), nil
	}
	return nil, &MarshallingError{TypeName: t.String(), Cause: fmt.Errorf("no conversion from table")}
}

// setHost converts obj into the settable dst.
func (m *Marshaller) setHost(dst reflect.Value, obj object.Object) error {
	v, err := m.ToHostValue(obj, dst.Type())
	if err != nil {
		return err
	}
	if v != nil {
		dst.Set(reflect.ValueOf(v))
	}
	return nil
}

// ToHostArgs converts script arguments for a host method with the given
// parameter types. The last parameter of a variadic method is a slice taking
// every remaining argument. Missing arguments become the zero value, which is
// nil for nillable parameters.
func (m *Marshaller) ToHostArgs(args []object.Object, params []reflect.Type, variadic bool) ([]any, error) {
	fixed := len(params)
	if variadic {
		if fixed == 0 || params[fixed-1].Kind() != reflect.Slice {
			return nil, fmt.Errorf("variadic parameter list must end with a slice")
		}
		fixed--
	} else if len(args) > len(params) {
		return nil, fmt.Errorf("too many arguments: want %d, got %d", len(params), len(args))
	}

	out := make([]any, 0, len(params))
	for i := 0; i < fixed; i++ {
		p := params[i]
		if i >= len(args) {
			out = append(out, reflect.Zero(p).Interface())
			continue
		}
		v, err := m.ToHostValue(args[i], p)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	if variadic {
		last := params[fixed]
		var rest []object.Object
		if len(args) > fixed {
			rest = args[fixed:]
		}
		tail := reflect.MakeSlice(last, len(rest), len(rest))
		for j, a := range rest {
			if err := m.setHost(tail.Index(j), a); err != nil {
				return nil, fmt.Errorf("argument %d: %w", fixed+j+1, err)
			}
		}
		out = append(out, tail.Interface())
	}
	return out, nil
}

// ScriptType returns the script type declared for host values of type t.
// Registered host types map to their class.
func ScriptType(reg *native.Registry, t reflect.Type) object.TypeRef {
	if t == nil {
		return object.AnyType
	}
	if reg != nil {
		if b, ok := reg.Lookup(t); ok {
			return object.Nullable(b.Name)
		}
	}
	switch t.Kind() {
	case reflect.Bool:
		return object.NonNull(object.TypeBool)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return object.NonNull(object.TypeNumber)
	case reflect.String:
		return object.NonNull(object.TypeString)
	case reflect.Slice, reflect.Map:
		return object.Nullable(object.TypeTable)
	case reflect.Array:
		return object.NonNull(object.TypeTable)
	}
	return object.AnyType
}
