package object

import (
	"fmt"
	"math"
	"reflect"
)

// HostConvertible is implemented by values that know how to turn themselves into
// a Go value of a requested type.
type HostConvertible interface {
	ToHost(t reflect.Type) (reflect.Value, error)
}

func isNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// ToHost converts nil to the zero value of a nillable type.
func (n *Nil) ToHost(t reflect.Type) (reflect.Value, error) {
	if !isNillable(t) {
		return reflect.Value{}, fmt.Errorf("cannot convert nil to %s", t)
	}
	return reflect.Zero(t), nil
}

// ToHost converts the number to any numeric kind. Integer targets reject
// fractional and out of range values.
func (n *Number) ToHost(t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	f := n.Value
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || math.Abs(f) >= 1<<63 || v.OverflowInt(int64(f)) {
			return reflect.Value{}, fmt.Errorf("number %s does not fit %s", n.Inspect(), t)
		}
		v.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f < 0 || f != math.Trunc(f) || f >= 1<<64 || v.OverflowUint(uint64(f)) {
			return reflect.Value{}, fmt.Errorf("number %s does not fit %s", n.Inspect(), t)
		}
		v.SetUint(uint64(f))
	case reflect.Interface:
		if !reflect.TypeFor[float64]().Implements(t) {
			return reflect.Value{}, fmt.Errorf("cannot convert number to %s", t)
		}
		v.Set(reflect.ValueOf(f))
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert number to %s", t)
	}
	return v, nil
}

// ToHost converts the string to a string kind.
func (s *String) ToHost(t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s.Value)
	case reflect.Interface:
		if !reflect.TypeFor[string]().Implements(t) {
			return reflect.Value{}, fmt.Errorf("cannot convert string to %s", t)
		}
		v.Set(reflect.ValueOf(s.Value))
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert string to %s", t)
	}
	return v, nil
}

// ToHost converts the boolean to a bool kind.
func (b *Boolean) ToHost(t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(b.Value)
	case reflect.Interface:
		if !reflect.TypeFor[bool]().Implements(t) {
			return reflect.Value{}, fmt.Errorf("cannot convert bool to %s", t)
		}
		v.Set(reflect.ValueOf(b.Value))
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert bool to %s", t)
	}
	return v, nil
}
