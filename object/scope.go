package object

import (
	"fmt"
	"log/slog"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

// Scope is a link of a scope chain. It is the whole contract the evaluator uses
// to work with variables.
type Scope interface {
	Get(name string) (Object, error)
	TryGet(name string) (Object, VariableState, error)
	Declare(name string, typ TypeRef) error
	DeclareNative(name string, typ TypeRef, field native.Field, ref native.DynamicRef) error
	Assign(name string, value Object) error
	TryAssign(name string, value Object) (VariableState, error)
	AssignAnnotations(name string, annotations ...*ClassInstance) error
	IsDeclared(name string) bool
	IsAssigned(name string) bool
	// Parent returns the scope consulted when a name is not found here, or nil.
	Parent() Scope
	Table() *ScopeTable
	Runtime() Runtime
}

// ExtraMember is a member a scope creates on its first use, such as "self".
type ExtraMember struct {
	Type TypeRef
	New  func() (Object, error)
	// AfterAssign runs once after the value was stored in its slot.
	AfterAssign func(slot *ValueSlot)
	ReadOnly    bool
}

// resolver is what distinguishes the scope variants.
type resolver interface {
	parentScope() Scope
	// visibleFunction returns the function definition name refers to if the
	// variant accepts its access modifier.
	visibleFunction(name string) (*FunctionDef, bool)
	extraMember(name string) (*ExtraMember, bool)
	// owner is the instance member functions are bound to, or nil.
	owner() *ClassInstance
	kind() string
}

// scope implements the lookup algorithm shared by all variants.
type scope struct {
	rt        Runtime
	table     *ScopeTable
	r         resolver
	resolving map[string]bool
}

func (s *scope) init(rt Runtime, r resolver) {
	s.rt = rt
	s.table = NewScopeTable(rt)
	s.r = r
	s.resolving = make(map[string]bool)
}

// Table returns the table of names declared in this scope.
func (s *scope) Table() *ScopeTable { return s.table }

// Runtime returns the runtime the scope was created in.
func (s *scope) Runtime() Runtime { return s.rt }

// Parent returns the next scope of the chain.
func (s *scope) Parent() Scope { return s.r.parentScope() }

func (s *scope) Get(name string) (Object, error) {
	v, state, err := s.TryGet(name)
	if state != Success {
		return nil, variableError("get", name, state, err)
	}
	return v, nil
}

// TryGet resolves name through this scope and its parents.
func (s *scope) TryGet(name string) (Object, VariableState, error) {
	return s.tryGet(name, true)
}

// TryGetMember resolves name in this scope only.
func (s *scope) TryGetMember(name string) (Object, VariableState, error) {
	return s.tryGet(name, false)
}

func (s *scope) Declare(name string, typ TypeRef) error {
	state, err := s.table.Declare(name, typ)
	return variableError("declare", name, state, err)
}

func (s *scope) DeclareNative(name string, typ TypeRef, field native.Field, ref native.DynamicRef) error {
	state, err := s.table.DeclareNative(name, typ, field, ref)
	return variableError("declare", name, state, err)
}

func (s *scope) Assign(name string, value Object) error {
	state, err := s.TryAssign(name, value)
	return variableError("assign", name, state, err)
}

// TryAssign assigns name in this scope or the nearest parent declaring it.
func (s *scope) TryAssign(name string, value Object) (VariableState, error) {
	return s.tryAssign(name, value, true)
}

// TryAssignMember assigns name in this scope only.
func (s *scope) TryAssignMember(name string, value Object) (VariableState, error) {
	return s.tryAssign(name, value, false)
}

func (s *scope) AssignAnnotations(name string, annotations ...*ClassInstance) error {
	state, err := s.table.AssignAnnotations(name, annotations...)
	return variableError("annotate", name, state, err)
}

func (s *scope) IsDeclared(name string) bool {
	if s.table.IsDeclared(name) {
		return true
	}
	if _, ok := s.r.extraMember(name); ok {
		return true
	}
	if _, ok := s.r.visibleFunction(name); ok {
		return true
	}
	if p := s.Parent(); p != nil {
		return p.IsDeclared(name)
	}
	return false
}

func (s *scope) IsAssigned(name string) bool {
	if slot, ok := s.table.Slot(name); ok {
		return slot.IsAssigned()
	}
	if _, ok := s.r.extraMember(name); ok {
		// extra members count as assigned once their factory succeeded
		slot, state, _ := s.resolveMember(name)
		return state == Success && slot != nil && slot.IsAssigned()
	}
	if _, ok := s.r.visibleFunction(name); ok {
		return true
	}
	if p := s.Parent(); p != nil {
		return p.IsAssigned(name)
	}
	return false
}

func (s *scope) tryGet(name string, walk bool) (Object, VariableState, error) {
	if slot, ok := s.table.Slot(name); ok {
		return slot.TryGet()
	}
	slot, state, err := s.resolve(name)
	if state != Success {
		return nil, state, err
	}
	if slot != nil {
		return slot.TryGet()
	}
	if walk {
		if p := s.Parent(); p != nil {
			return p.TryGet(name)
		}
	}
	return nil, FailedNotDeclared, fmt.Errorf("%w: %s", ErrNotDeclared, name)
}

func (s *scope) tryAssign(name string, value Object, walk bool) (VariableState, error) {
	if slot, ok := s.table.Slot(name); ok {
		return slot.TryAssign(value)
	}
	if _, ok := s.r.extraMember(name); ok {
		slot, state, err := s.resolveMember(name)
		if state != Success {
			return state, err
		}
		return slot.TryAssign(value)
	}
	if _, ok := s.r.visibleFunction(name); ok {
		return FailedFunctionsAreImmutable, fmt.Errorf("%w: %s", ErrFunctionsAreImmutable, name)
	}
	if walk {
		if p := s.Parent(); p != nil {
			return p.TryAssign(name, value)
		}
	}
	return FailedNotDeclared, fmt.Errorf("%w: %s", ErrNotDeclared, name)
}

// resolve synthesizes name into the table if it is an extra member or a visible
// function. A nil slot with Success means neither applies.
func (s *scope) resolve(name string) (*ValueSlot, VariableState, error) {
	slot, state, err := s.resolveMember(name)
	if state != Success || slot != nil {
		return slot, state, err
	}
	def, ok := s.r.visibleFunction(name)
	if !ok {
		return nil, Success, nil
	}
	fn, err := newFunction(s.rt, def, s.r.owner())
	if err != nil {
		return nil, FailedRuntimeError, fmt.Errorf("materialize function %s: %w", name, err)
	}
	s.rt.Logger().Debug("materialized function",
		slog.String("scope", s.r.kind()),
		slog.String("name", name),
		slog.String("body", def.Body.kind()))
	return s.table.declareFunction(name, fn), Success, nil
}

func (s *scope) resolveMember(name string) (*ValueSlot, VariableState, error) {
	m, ok := s.r.extraMember(name)
	if !ok {
		return nil, Success, nil
	}
	if s.resolving[name] {
		return nil, FailedNotAssigned, fmt.Errorf("%w: %s is still being initialized", ErrNotAssigned, name)
	}
	s.resolving[name] = true
	v, err := m.New()
	delete(s.resolving, name)
	if err != nil {
		return nil, FailedRuntimeError, fmt.Errorf("initialize %s: %w", name, err)
	}
	if slot, ok := s.table.Slot(name); ok {
		return slot, Success, nil
	}
	if v == nil {
		v = NIL
	}
	if !m.Type.IsZero() && !m.Type.Accepts(s.rt, v) {
		return nil, FailedTypeMismatch, fmt.Errorf("%w: member %s initialized with %s, want %s", ErrTypeMismatch, name, TypeOf(v), m.Type)
	}
	slot := s.table.declareMember(name, m, v)
	if m.AfterAssign != nil {
		m.AfterAssign(slot)
	}
	s.rt.Logger().Debug("registered extra member",
		slog.String("scope", s.r.kind()),
		slog.String("name", name))
	return slot, Success, nil
}

// --- Chunk Scope ---

// ChunkScope is the scope of a block of script code. It is the only scope whose
// parent can change after construction.
type ChunkScope struct {
	scope
	parent Scope
}

// NewChunkScope creates a chunk scope below parent, which may be nil.
func NewChunkScope(rt Runtime, parent Scope) *ChunkScope {
	c := &ChunkScope{parent: parent}
	c.init(rt, c)
	return c
}

// SetParent replaces the parent. It fails with FailedCyclicParent, leaving the
// current parent in place, if the new chain leads back to c.
func (c *ChunkScope) SetParent(parent Scope) (VariableState, error) {
	for cur := parent; cur != nil; cur = cur.Parent() {
		if cur == Scope(c) {
			return FailedCyclicParent, fmt.Errorf("%w: scope would become its own ancestor", ErrCyclicParent)
		}
	}
	c.parent = parent
	return Success, nil
}

func (c *ChunkScope) parentScope() Scope                        { return c.parent }
func (c *ChunkScope) visibleFunction(string) (*FunctionDef, bool) { return nil, false }
func (c *ChunkScope) extraMember(string) (*ExtraMember, bool)     { return nil, false }
func (c *ChunkScope) owner() *ClassInstance                       { return nil }
func (c *ChunkScope) kind() string                                { return "chunk" }
