package object

import (
	"fmt"
	"maps"
	"slices"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

// ScopeTable maps the names declared in one scope to their slots.
type ScopeTable struct {
	rt    Runtime
	slots map[string]*ValueSlot
}

// NewScopeTable creates an empty table.
func NewScopeTable(rt Runtime) *ScopeTable {
	return &ScopeTable{rt: rt, slots: make(map[string]*ValueSlot)}
}

// Slot returns the slot declared under name.
func (t *ScopeTable) Slot(name string) (*ValueSlot, bool) {
	s, ok := t.slots[name]
	return s, ok
}

// Names returns the declared names in sorted order.
func (t *ScopeTable) Names() []string {
	return slices.Sorted(maps.Keys(t.slots))
}

// Declare adds a raw slot.
func (t *ScopeTable) Declare(name string, typ TypeRef) (VariableState, error) {
	if _, ok := t.slots[name]; ok {
		return FailedAlreadyDeclared, fmt.Errorf("%w: %s", ErrAlreadyDeclared, name)
	}
	if typ.IsZero() {
		typ = AnyType
	}
	t.slots[name] = newRawSlot(t.rt, name, typ)
	return Success, nil
}

// DeclareNative adds a slot backed by a host field. The host field type must be
// able to carry every value of typ.
func (t *ScopeTable) DeclareNative(name string, typ TypeRef, field native.Field, ref native.DynamicRef) (VariableState, error) {
	if _, ok := t.slots[name]; ok {
		return FailedAlreadyDeclared, fmt.Errorf("%w: %s", ErrAlreadyDeclared, name)
	}
	if typ.IsZero() {
		typ = AnyType
	}
	if typ.Name != TypeAny && !hostCarries(typ, field.Type) {
		return FailedTypeMismatch, fmt.Errorf("%w: host field %s of type %s cannot hold %s", ErrTypeMismatch, name, field.Type, typ)
	}
	if ref == nil {
		ref = native.NullRef{}
	}
	t.slots[name] = newNativeSlot(t.rt, name, typ, field, ref)
	return Success, nil
}

// TryGet reads name.
func (t *ScopeTable) TryGet(name string) (Object, VariableState, error) {
	s, ok := t.slots[name]
	if !ok {
		return nil, FailedNotDeclared, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	return s.TryGet()
}

// TryAssign assigns name.
func (t *ScopeTable) TryAssign(name string, v Object) (VariableState, error) {
	s, ok := t.slots[name]
	if !ok {
		return FailedNotDeclared, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	return s.TryAssign(v)
}

// Assign assigns name and raises a *VariableError on failure.
func (t *ScopeTable) Assign(name string, v Object) error {
	state, err := t.TryAssign(name, v)
	return variableError("assign", name, state, err)
}

// IsDeclared reports whether name is declared in this table.
func (t *ScopeTable) IsDeclared(name string) bool {
	_, ok := t.slots[name]
	return ok
}

// IsAssigned reports whether name is declared in this table and holds a value.
func (t *ScopeTable) IsAssigned(name string) bool {
	s, ok := t.slots[name]
	return ok && s.IsAssigned()
}

// AssignAnnotations attaches annotations to the slot of name.
func (t *ScopeTable) AssignAnnotations(name string, annotations ...*ClassInstance) (VariableState, error) {
	s, ok := t.slots[name]
	if !ok {
		return FailedNotDeclared, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	s.AssignAnnotations(annotations...)
	return Success, nil
}

func (t *ScopeTable) declareFunction(name string, fn Function) *ValueSlot {
	s := newRawSlot(t.rt, name, NonNull(TypeFunction))
	s.set(fn)
	s.function = true
	t.slots[name] = s
	return s
}

func (t *ScopeTable) declareMember(name string, m *ExtraMember, v Object) *ValueSlot {
	typ := m.Type
	if typ.IsZero() {
		typ = AnyType
	}
	s := newRawSlot(t.rt, name, typ)
	s.set(v)
	s.readOnly = m.ReadOnly
	t.slots[name] = s
	return s
}
