package object

import (
	"fmt"
	"sync"

	"github.com/PatrickSachs/SolScript-sub001/native"
)

// TypeMode determines how a class can be used.
type TypeMode int

const (
	ModeDefault TypeMode = iota
	ModeSealed
	ModeAbstract
	ModeSingleton
	ModeAnnotation
)

var typeModeNames = [...]string{
	ModeDefault:    "default",
	ModeSealed:     "sealed",
	ModeAbstract:   "abstract",
	ModeSingleton:  "singleton",
	ModeAnnotation: "annotation",
}

func (m TypeMode) String() string {
	if m < 0 || int(m) >= len(typeModeNames) {
		return fmt.Sprintf("TypeMode(%d)", int(m))
	}
	return typeModeNames[m]
}

// ParseTypeMode parses the textual form returned by String. The empty string
// is ModeDefault.
func ParseTypeMode(s string) (TypeMode, error) {
	if s == "" {
		return ModeDefault, nil
	}
	for m, name := range typeModeNames {
		if name == s {
			return TypeMode(m), nil
		}
	}
	return ModeDefault, fmt.Errorf("unknown type mode %q", s)
}

// AnnotationDef is an annotation usage: the annotation class and the
// expressions of its constructor arguments.
type AnnotationDef struct {
	Class *ClassDefinition
	Args  []Chunk
}

// FieldDef is the definition of a class or global field. Native fields have no
// initializer.
type FieldDef struct {
	Name        string
	Type        TypeRef
	Access      AccessModifier
	Initializer Chunk
	Native      *native.Field
	Annotations []AnnotationDef
	// DefinedIn is nil for global fields.
	DefinedIn *ClassDefinition
}

// ClassDefinition is a class as produced by the assembly build. It is not
// modified once the assembly was built.
type ClassDefinition struct {
	Name        string
	Mode        TypeMode
	Base        *ClassDefinition
	Annotations []AnnotationDef
	// Native is set for classes backed by a host type.
	Native *native.TypeBinding
	// LanguageVersion selects the meta keys; see MetaKeys.
	LanguageVersion string

	fields        []*FieldDef
	functions     map[string]*FunctionDef
	functionOrder []string

	metaOnce sync.Once
	meta     map[string]*FunctionDef
	metaErr  error
}

// NewClassDefinition creates a class without members.
func NewClassDefinition(name string, mode TypeMode) *ClassDefinition {
	return &ClassDefinition{
		Name:      name,
		Mode:      mode,
		functions: make(map[string]*FunctionDef),
	}
}

func (c *ClassDefinition) String() string { return c.Name }

// AddField declares a field at this level.
func (c *ClassDefinition) AddField(f *FieldDef) error {
	if _, ok := c.Field(f.Name); ok {
		return fmt.Errorf("class %s: field %s: %w", c.Name, f.Name, ErrAlreadyDeclared)
	}
	if _, ok := c.functions[f.Name]; ok {
		return fmt.Errorf("class %s: field %s clashes with a function: %w", c.Name, f.Name, ErrAlreadyDeclared)
	}
	f.DefinedIn = c
	c.fields = append(c.fields, f)
	return nil
}

// AddFunction declares a function at this level.
func (c *ClassDefinition) AddFunction(f *FunctionDef) error {
	if _, ok := c.functions[f.Name]; ok {
		return fmt.Errorf("class %s: function %s: %w", c.Name, f.Name, ErrAlreadyDeclared)
	}
	if _, ok := c.Field(f.Name); ok {
		return fmt.Errorf("class %s: function %s clashes with a field: %w", c.Name, f.Name, ErrAlreadyDeclared)
	}
	f.DefinedIn = c
	c.functions[f.Name] = f
	c.functionOrder = append(c.functionOrder, f.Name)
	return nil
}

// Fields returns the fields declared at this level in declaration order.
func (c *ClassDefinition) Fields() []*FieldDef { return c.fields }

// Functions returns the functions declared at this level in declaration order.
func (c *ClassDefinition) Functions() []*FunctionDef {
	out := make([]*FunctionDef, len(c.functionOrder))
	for i, name := range c.functionOrder {
		out[i] = c.functions[name]
	}
	return out
}

// Field returns the field declared at this level.
func (c *ClassDefinition) Field(name string) (*FieldDef, bool) {
	for _, f := range c.fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Function returns the function declared at this level.
func (c *ClassDefinition) Function(name string) (*FunctionDef, bool) {
	f, ok := c.functions[name]
	return f, ok
}

// TryGetFunction finds name starting at c and walking the base classes unless
// declaredOnly is set. The first class declaring name decides: its function
// is returned if validator accepts it, otherwise nothing is found. validator
// may be nil.
func (c *ClassDefinition) TryGetFunction(name string, declaredOnly bool, validator func(*FunctionDef) bool) (*FunctionDef, bool) {
	for def := c; def != nil; def = def.Base {
		if f, ok := def.functions[name]; ok {
			if validator != nil && !validator(f) {
				return nil, false
			}
			return f, true
		}
		if declaredOnly {
			break
		}
	}
	return nil, false
}

// TryGetField is TryGetFunction for fields.
func (c *ClassDefinition) TryGetField(name string, declaredOnly bool, validator func(*FieldDef) bool) (*FieldDef, bool) {
	for def := c; def != nil; def = def.Base {
		if f, ok := def.Field(name); ok {
			if validator != nil && !validator(f) {
				return nil, false
			}
			return f, true
		}
		if declaredOnly {
			break
		}
	}
	return nil, false
}

// Levels returns the inheritance chain, base class first.
func (c *ClassDefinition) Levels() []*ClassDefinition {
	var chain []*ClassDefinition
	for def := c; def != nil; def = def.Base {
		chain = append(chain, def)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// CanBeCreated reports whether scripts may create instances with new.
func (c *ClassDefinition) CanBeCreated() bool {
	return c.Mode == ModeDefault || c.Mode == ModeSealed
}

// CanBeInherited reports whether other classes may extend c.
func (c *ClassDefinition) CanBeInherited() bool {
	return c.Mode == ModeDefault || c.Mode == ModeAbstract
}

// IsSubclassOf reports whether c is other or extends it.
func (c *ClassDefinition) IsSubclassOf(other *ClassDefinition) bool {
	for def := c; def != nil; def = def.Base {
		if def == other {
			return true
		}
	}
	return false
}

// AbstractFunctions returns the names of abstract functions without an
// implementation in the most derived class declaring them.
func (c *ClassDefinition) AbstractFunctions() []string {
	var names []string
	seen := make(map[string]bool)
	for def := c; def != nil; def = def.Base {
		for _, name := range def.functionOrder {
			if seen[name] {
				continue
			}
			seen[name] = true
			if def.functions[name].Member == Abstract {
				names = append(names, name)
			}
		}
	}
	return names
}

// BuildMetaFunctions looks up and validates the meta functions of c. The result
// is computed once; later calls return the first outcome.
func (c *ClassDefinition) BuildMetaFunctions() error {
	c.metaOnce.Do(func() {
		c.meta, c.metaErr = c.buildMeta()
	})
	return c.metaErr
}

func (c *ClassDefinition) buildMeta() (map[string]*FunctionDef, error) {
	meta := make(map[string]*FunctionDef)
	for _, key := range MetaKeys(c.LanguageVersion) {
		if key.AnnotationOnly && c.Mode != ModeAnnotation {
			continue
		}
		def, ok := c.TryGetFunction(key.Name, false, nil)
		if !ok {
			continue
		}
		if def.Access != Local && def.Access != Internal {
			return nil, &MetaFunctionError{
				Class:    c.Name,
				Function: key.Name,
				Err:      ErrInvalidMetaFunctionAccess,
				Detail:   fmt.Sprintf("access is %s, must be local or internal", def.Access),
			}
		}
		ret := def.Return
		if ret.IsZero() {
			ret = AnyType
		}
		if !key.Return.IsCompatible(nil, ret) {
			return nil, &MetaFunctionError{
				Class:    c.Name,
				Function: key.Name,
				Err:      ErrInvalidMetaFunctionReturnType,
				Detail:   fmt.Sprintf("returns %s, must return %s", ret, key.Return),
			}
		}
		meta[key.Name] = def
	}
	return meta, nil
}

// MetaFunction returns the meta function registered under name. It builds the
// meta functions on first use and reports nothing if that failed.
func (c *ClassDefinition) MetaFunction(name string) (*FunctionDef, bool) {
	if err := c.BuildMetaFunctions(); err != nil {
		return nil, false
	}
	def, ok := c.meta[name]
	return def, ok
}
