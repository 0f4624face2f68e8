package object

import (
	"fmt"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

// ValueSlot holds one variable. Its storage is either a raw script value or a
// native field read through a dynamic reference; this never changes after the
// slot was declared.
type ValueSlot struct {
	rt   Runtime
	name string
	typ  TypeRef

	value    Object
	assigned bool

	field *native.Field
	ref   native.DynamicRef

	annotations []*ClassInstance
	function    bool
	readOnly    bool
}

func newRawSlot(rt Runtime, name string, typ TypeRef) *ValueSlot {
	return &ValueSlot{rt: rt, name: name, typ: typ}
}

func newNativeSlot(rt Runtime, name string, typ TypeRef, field native.Field, ref native.DynamicRef) *ValueSlot {
	return &ValueSlot{rt: rt, name: name, typ: typ, field: &field, ref: ref}
}

// Name returns the variable name.
func (s *ValueSlot) Name() string { return s.name }

// Type returns the declared type.
func (s *ValueSlot) Type() TypeRef { return s.typ }

// IsNative reports whether the slot is backed by a host field.
func (s *ValueSlot) IsNative() bool { return s.field != nil }

// IsFunction reports whether the slot holds a materialized function.
func (s *ValueSlot) IsFunction() bool { return s.function }

// IsAssigned reports whether reading the slot can produce a value. Native
// slots count as assigned once their reference resolves.
func (s *ValueSlot) IsAssigned() bool {
	if s.field != nil {
		_, err := s.ref.Retrieve()
		return err == nil
	}
	return s.assigned
}

// Annotations returns the annotation instances attached to the slot.
func (s *ValueSlot) Annotations() []*ClassInstance { return s.annotations }

// AssignAnnotations replaces the annotations of the slot.
func (s *ValueSlot) AssignAnnotations(annotations ...*ClassInstance) {
	s.annotations = append([]*ClassInstance(nil), annotations...)
}

// TryGet reads the value and passes it through the get hooks of the annotations.
func (s *ValueSlot) TryGet() (Object, VariableState, error) {
	v, state, err := s.TryGetRaw()
	if state != Success {
		return nil, state, err
	}
	return s.intercept(MetaGetVariable.Name, v)
}

// TryGetRaw reads the value without running annotations.
func (s *ValueSlot) TryGetRaw() (Object, VariableState, error) {
	if s.field == nil {
		if !s.assigned {
			return nil, FailedNotAssigned, fmt.Errorf("%w: %s", ErrNotAssigned, s.name)
		}
		return s.value, Success, nil
	}
	target, err := s.ref.Retrieve()
	if err != nil {
		return nil, FailedNativeError, fmt.Errorf("resolve native field %s: %w", s.name, err)
	}
	hv, err := s.field.Read(target)
	if err != nil {
		return nil, FailedNativeException, err
	}
	v, err := s.rt.Marshaller().ToScriptValue(s.field.Type, hv)
	if err != nil {
		return nil, FailedNativeError, fmt.Errorf("read native field %s: %w", s.name, err)
	}
	return v, Success, nil
}

// TryAssign type checks v, passes it through the set hooks of the annotations
// and stores the result.
func (s *ValueSlot) TryAssign(v Object) (VariableState, error) {
	if s.function {
		return FailedFunctionsAreImmutable, fmt.Errorf("%w: %s", ErrFunctionsAreImmutable, s.name)
	}
	if s.readOnly {
		return FailedReadOnly, fmt.Errorf("%w: %s", ErrReadOnly, s.name)
	}
	if v == nil {
		v = NIL
	}
	if !s.typ.Accepts(s.rt, v) {
		return FailedTypeMismatch, fmt.Errorf("%w: cannot assign %s to %s of type %s", ErrTypeMismatch, TypeOf(v), s.name, s.typ)
	}
	v, state, err := s.intercept(MetaSetVariable.Name, v)
	if state != Success {
		return state, err
	}
	return s.store(v)
}

func (s *ValueSlot) store(v Object) (VariableState, error) {
	if s.field == nil {
		s.value = v
		s.assigned = true
		return Success, nil
	}
	target, err := s.ref.Retrieve()
	if err != nil {
		return FailedNativeError, fmt.Errorf("resolve native field %s: %w", s.name, err)
	}
	hv, err := s.rt.Marshaller().ToHostValue(v, s.field.Type)
	if err != nil {
		return FailedNativeError, fmt.Errorf("write native field %s: %w", s.name, err)
	}
	if err := s.field.Write(target, hv); err != nil {
		return FailedNativeException, err
	}
	return Success, nil
}

// set stores a value bypassing hooks and the read-only flag.
func (s *ValueSlot) set(v Object) {
	s.value = v
	s.assigned = true
}

// intercept runs hook on every annotation in order. A hook returning a table
// with an "override" entry replaces the value seen by later hooks and the caller.
func (s *ValueSlot) intercept(hook string, v Object) (Object, VariableState, error) {
	for _, a := range s.annotations {
		res, found, err := a.CallMeta(hook, v, &String{Value: s.name})
		if err != nil {
			return nil, FailedRuntimeError, fmt.Errorf("annotation %s on %s: %w", a.Definition().Name, s.name, err)
		}
		if !found {
			continue
		}
		t, ok := res.(*Table)
		if !ok {
			continue
		}
		override, ok := t.GetString("override")
		if !ok {
			continue
		}
		if !s.typ.Accepts(s.rt, override) {
			return nil, FailedTypeMismatch, fmt.Errorf("%w: annotation %s overrides %s with %s, want %s",
				ErrTypeMismatch, a.Definition().Name, s.name, TypeOf(override), s.typ)
		}
		v = override
	}
	return v, Success, nil
}
