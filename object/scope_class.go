package object

// --- Inheritance Level Scope ---

// InheritanceLevelScope holds the variables of one inheritance level of an
// instance. The Local flavour resolves the Local functions declared at that
// level, the Internal flavour the Internal ones. Functions of other levels are
// never visible here.
type InheritanceLevelScope struct {
	scope
	inst   *ClassInstance
	level  int
	access AccessModifier
}

func newInheritanceLevelScope(inst *ClassInstance, level int, access AccessModifier) *InheritanceLevelScope {
	s := &InheritanceLevelScope{inst: inst, level: level, access: access}
	s.init(inst.rt, s)
	return s
}

// Level returns the position of the level in the inheritance chain, base first.
func (s *InheritanceLevelScope) Level() int { return s.level }

// Definition returns the class definition of the level.
func (s *InheritanceLevelScope) Definition() *ClassDefinition { return s.inst.levels[s.level].def }

func (s *InheritanceLevelScope) parentScope() Scope { return s.inst.internal }

func (s *InheritanceLevelScope) visibleFunction(name string) (*FunctionDef, bool) {
	return s.Definition().TryGetFunction(name, true, func(def *FunctionDef) bool {
		return def.Access == s.access
	})
}

func (s *InheritanceLevelScope) extraMember(string) (*ExtraMember, bool) { return nil, false }

func (s *InheritanceLevelScope) owner() *ClassInstance { return s.inst }

func (s *InheritanceLevelScope) kind() string {
	return "level(" + s.Definition().Name + ", " + s.access.String() + ")"
}

// --- Class Internal Scope ---

// ClassInternalScope holds the internal fields of an instance and resolves
// Internal functions across the whole inheritance chain. It provides "self".
type ClassInternalScope struct {
	scope
	inst *ClassInstance
}

func newClassInternalScope(inst *ClassInstance) *ClassInternalScope {
	s := &ClassInternalScope{inst: inst}
	s.init(inst.rt, s)
	return s
}

func (s *ClassInternalScope) parentScope() Scope { return s.inst.global }

func (s *ClassInternalScope) visibleFunction(name string) (*FunctionDef, bool) {
	return s.inst.def.TryGetFunction(name, false, func(def *FunctionDef) bool {
		return def.Access == Internal
	})
}

func (s *ClassInternalScope) extraMember(name string) (*ExtraMember, bool) {
	if name != "self" {
		return nil, false
	}
	return &ExtraMember{
		Type:     NonNull(s.inst.def.Name),
		New:      func() (Object, error) { return s.inst, nil },
		ReadOnly: true,
	}, true
}

func (s *ClassInternalScope) owner() *ClassInstance { return s.inst }

func (s *ClassInternalScope) kind() string { return "internal(" + s.inst.def.Name + ")" }

// --- Class Global Scope ---

// ClassGlobalScope holds the public fields of an instance and resolves public
// functions across the inheritance chain. Its parent is the innermost assembly
// global scope.
type ClassGlobalScope struct {
	scope
	inst *ClassInstance
}

func newClassGlobalScope(inst *ClassInstance) *ClassGlobalScope {
	s := &ClassGlobalScope{inst: inst}
	s.init(inst.rt, s)
	return s
}

func (s *ClassGlobalScope) parentScope() Scope { return s.rt.GlobalScope() }

func (s *ClassGlobalScope) visibleFunction(name string) (*FunctionDef, bool) {
	return s.inst.def.TryGetFunction(name, false, func(def *FunctionDef) bool {
		return def.Access == None
	})
}

func (s *ClassGlobalScope) extraMember(string) (*ExtraMember, bool) { return nil, false }

func (s *ClassGlobalScope) owner() *ClassInstance { return s.inst }

func (s *ClassGlobalScope) kind() string { return "global(" + s.inst.def.Name + ")" }
