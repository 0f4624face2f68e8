package object

import (
	"fmt"
	"reflect"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

type inheritanceLevel struct {
	def      *ClassDefinition
	local    *InheritanceLevelScope
	internal *InheritanceLevelScope
}

// ClassInstance is an instance of a class. It owns one Local and one Internal
// scope per inheritance level, an internal scope and a global scope shared by
// all levels, and the holder of its native object.
type ClassInstance struct {
	rt          Runtime
	def         *ClassDefinition
	levels      []*inheritanceLevel
	global      *ClassGlobalScope
	internal    *ClassInternalScope
	native      *native.Holder
	initialized bool
}

// NewClassInstance creates the scopes of an instance of def. No field is
// declared yet; see DeclareFields.
func NewClassInstance(rt Runtime, def *ClassDefinition) *ClassInstance {
	inst := &ClassInstance{rt: rt, def: def, native: &native.Holder{}}
	inst.global = newClassGlobalScope(inst)
	inst.internal = newClassInternalScope(inst)
	for i, d := range def.Levels() {
		inst.levels = append(inst.levels, &inheritanceLevel{def: d})
		inst.levels[i].local = newInheritanceLevelScope(inst, i, Local)
		inst.levels[i].internal = newInheritanceLevelScope(inst, i, Internal)
	}
	return inst
}

// Type returns the type of the ClassInstance object.
func (inst *ClassInstance) Type() ObjectType { return CLASS_INSTANCE_OBJ }

// Inspect returns a string representation of the instance.
func (inst *ClassInstance) Inspect() string { return "<" + inst.def.Name + " instance>" }

// Definition returns the class of the instance.
func (inst *ClassInstance) Definition() *ClassDefinition { return inst.def }

// Runtime returns the runtime the instance was created in.
func (inst *ClassInstance) Runtime() Runtime { return inst.rt }

// LevelCount returns the number of inheritance levels.
func (inst *ClassInstance) LevelCount() int { return len(inst.levels) }

// LevelScope returns the Local or Internal scope of a level, base class first.
func (inst *ClassInstance) LevelScope(level int, access AccessModifier) *InheritanceLevelScope {
	if level < 0 || level >= len(inst.levels) {
		return nil
	}
	switch access {
	case Local:
		return inst.levels[level].local
	case Internal:
		return inst.levels[level].internal
	}
	return nil
}

// LevelScopeOf returns the level scope of the class def.
func (inst *ClassInstance) LevelScopeOf(def *ClassDefinition, access AccessModifier) (*InheritanceLevelScope, bool) {
	level, ok := inst.levelOf(def)
	if !ok {
		return nil, false
	}
	s := inst.LevelScope(level, access)
	return s, s != nil
}

func (inst *ClassInstance) levelOf(def *ClassDefinition) (int, bool) {
	for i, l := range inst.levels {
		if l.def == def {
			return i, true
		}
	}
	return 0, false
}

// GlobalScope returns the scope holding the public members.
func (inst *ClassInstance) GlobalScope() *ClassGlobalScope { return inst.global }

// InternalScope returns the scope holding the internal members and "self".
func (inst *ClassInstance) InternalScope() *ClassInternalScope { return inst.internal }

// NativeRef returns the dynamic reference to the native object.
func (inst *ClassInstance) NativeRef() native.DynamicRef { return inst.native }

// NativeObject returns the native object if one is bound.
func (inst *ClassInstance) NativeObject() (any, bool) {
	v, err := inst.native.Retrieve()
	return v, err == nil
}

// BindNative sets the native object.
func (inst *ClassInstance) BindNative(v any) error {
	if inst.native.IsBound() {
		return fmt.Errorf("instance of %s already has a native object", inst.def.Name)
	}
	return inst.native.Bind(v)
}

// IsInitialized reports whether creation finished.
func (inst *ClassInstance) IsInitialized() bool { return inst.initialized }

// MarkInitialized records that creation finished.
func (inst *ClassInstance) MarkInitialized() { inst.initialized = true }

// FieldScope returns the scope a field of the given level and access lives in.
func (inst *ClassInstance) FieldScope(level int, access AccessModifier) Scope {
	switch access {
	case Local:
		return inst.levels[level].local
	case Internal:
		return inst.internal
	}
	return inst.global
}

// DeclareFields declares the fields of every level without assigning them.
// Native fields are bound to the native object of the instance.
func (inst *ClassInstance) DeclareFields() error {
	for i, l := range inst.levels {
		for _, f := range l.def.Fields() {
			s := inst.FieldScope(i, f.Access)
			var err error
			if f.Native != nil {
				var ref native.DynamicRef = inst.native
				if f.Native.Static {
					ref = native.Static()
				}
				err = s.DeclareNative(f.Name, f.Type, *f.Native, ref)
			} else {
				err = s.Declare(f.Name, f.Type)
			}
			if err != nil {
				return fmt.Errorf("class %s: %w", l.def.Name, err)
			}
		}
	}
	return nil
}

// TryGetMember reads a public member without consulting the assembly scopes.
func (inst *ClassInstance) TryGetMember(name string) (Object, VariableState, error) {
	return inst.global.TryGetMember(name)
}

// TryAssignMember assigns a public member without consulting the assembly scopes.
func (inst *ClassInstance) TryAssignMember(name string, v Object) (VariableState, error) {
	return inst.global.TryAssignMember(name, v)
}

// GetMember is TryGetMember raising a *VariableError.
func (inst *ClassInstance) GetMember(name string) (Object, error) {
	v, state, err := inst.TryGetMember(name)
	if state != Success {
		return nil, variableError("get member", name, state, err)
	}
	return v, nil
}

// AssignMember is TryAssignMember raising a *VariableError.
func (inst *ClassInstance) AssignMember(name string, v Object) error {
	state, err := inst.TryAssignMember(name, v)
	return variableError("assign member", name, state, err)
}

// FunctionFor materializes def in the scope matching its access modifier.
func (inst *ClassInstance) FunctionFor(def *FunctionDef) (Function, error) {
	var s *scope
	switch def.Access {
	case Local:
		level, ok := inst.levelOf(def.DefinedIn)
		if !ok {
			return nil, fmt.Errorf("function %s is not defined in a level of %s", def.Name, inst.def.Name)
		}
		s = &inst.levels[level].local.scope
	case Internal:
		s = &inst.internal.scope
	default:
		s = &inst.global.scope
	}
	v, state, err := s.tryGet(def.Name, false)
	if state != Success {
		return nil, variableError("get", def.Name, state, err)
	}
	fn, ok := v.(Function)
	if !ok || fn.Definition() != def {
		return nil, fmt.Errorf("%s of %s does not resolve to its function", def.Name, inst.def.Name)
	}
	return fn, nil
}

// CallMeta calls the meta function name if the class has one. found is false
// when it does not.
func (inst *ClassInstance) CallMeta(name string, args ...Object) (result Object, found bool, err error) {
	def, ok := inst.def.MetaFunction(name)
	if !ok {
		return nil, false, nil
	}
	fn, err := inst.FunctionFor(def)
	if err != nil {
		return nil, true, err
	}
	res, err := fn.Call(args...)
	return res, true, err
}

// ToHost returns the native object, or the instance itself for targets it
// satisfies.
func (inst *ClassInstance) ToHost(t reflect.Type) (reflect.Value, error) {
	if v, ok := inst.NativeObject(); ok {
		rv := reflect.ValueOf(v)
		if rv.Type().AssignableTo(t) {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
	}
	rv := reflect.ValueOf(inst)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s instance to %s", inst.def.Name, t)
}
