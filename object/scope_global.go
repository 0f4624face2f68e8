package object

// GlobalSource supplies the assembly-wide functions and lazily created members
// of the global scopes.
type GlobalSource interface {
	GlobalFunction(name string) (*FunctionDef, bool)
	ExtraMember(access AccessModifier, name string) (*ExtraMember, bool)
}

// --- Assembly Global Scope ---

// GlobalScope is one of the assembly global scopes. It accepts global functions
// with exactly its access modifier.
type GlobalScope struct {
	scope
	access AccessModifier
	parent Scope
	source GlobalSource
}

// NewGlobalScope creates the assembly global scope for access.
func NewGlobalScope(rt Runtime, access AccessModifier, parent Scope, source GlobalSource) *GlobalScope {
	g := &GlobalScope{access: access, parent: parent, source: source}
	g.init(rt, g)
	return g
}

// Access returns the access modifier the scope serves.
func (g *GlobalScope) Access() AccessModifier { return g.access }

func (g *GlobalScope) parentScope() Scope { return g.parent }

func (g *GlobalScope) visibleFunction(name string) (*FunctionDef, bool) {
	if g.source == nil {
		return nil, false
	}
	def, ok := g.source.GlobalFunction(name)
	if !ok || def.Access != g.access {
		return nil, false
	}
	return def, true
}

func (g *GlobalScope) extraMember(name string) (*ExtraMember, bool) {
	if g.source == nil {
		return nil, false
	}
	return g.source.ExtraMember(g.access, name)
}

func (g *GlobalScope) owner() *ClassInstance { return nil }

func (g *GlobalScope) kind() string { return "global(" + g.access.String() + ")" }
