package solscript

import (
	"fmt"

	"github.com/PatrickSachs/SolScript-sub001/native"
	"github.com/PatrickSachs/SolScript-sub001/object"
)

// AnnotationBuilder is an annotation usage: the annotation class name and the
// expressions of its constructor arguments.
type AnnotationBuilder struct {
	Class string
	Args  []object.Chunk
}

// FieldBuilder describes a class or global field.
type FieldBuilder struct {
	Name        string
	Type        object.TypeRef
	Access      object.AccessModifier
	Initializer object.Chunk
	Annotations []AnnotationBuilder
}

// FunctionBuilder describes a class or global function. Abstract functions
// have no body.
type FunctionBuilder struct {
	Name        string
	Access      object.AccessModifier
	Member      object.MemberModifier
	Params      object.ParameterInfo
	Return      object.TypeRef
	Body        object.FunctionBody
	Annotations []AnnotationBuilder
}

// ClassBuilder describes a class. Base and annotation classes are referenced by
// name and resolved by Build.
type ClassBuilder struct {
	Name        string
	Mode        object.TypeMode
	Base        string
	Fields      []FieldBuilder
	Functions   []FunctionBuilder
	Annotations []AnnotationBuilder
}

// NewClass starts a class builder.
func NewClass(name string) *ClassBuilder {
	return &ClassBuilder{Name: name}
}

// Extends sets the base class.
func (b *ClassBuilder) Extends(base string) *ClassBuilder {
	b.Base = base
	return b
}

// WithMode sets the type mode.
func (b *ClassBuilder) WithMode(mode object.TypeMode) *ClassBuilder {
	b.Mode = mode
	return b
}

// WithField appends fields.
func (b *ClassBuilder) WithField(fields ...FieldBuilder) *ClassBuilder {
	b.Fields = append(b.Fields, fields...)
	return b
}

// WithFunction appends functions.
func (b *ClassBuilder) WithFunction(functions ...FunctionBuilder) *ClassBuilder {
	b.Functions = append(b.Functions, functions...)
	return b
}

// Annotate adds a class annotation.
func (b *ClassBuilder) Annotate(class string, args ...object.Chunk) *ClassBuilder {
	b.Annotations = append(b.Annotations, AnnotationBuilder{Class: class, Args: args})
	return b
}

// DefineClass adds a class. Its base and annotations may refer to classes
// defined later.
func (a *Assembly) DefineClass(b *ClassBuilder) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	if b.Name == "" {
		return fmt.Errorf("class without a name")
	}
	if _, ok := a.classes[b.Name]; ok {
		return fmt.Errorf("class %s: %w", b.Name, object.ErrAlreadyDeclared)
	}
	a.addClass(object.NewClassDefinition(b.Name, b.Mode))
	a.pending = append(a.pending, b)
	return nil
}

// RegisterNative exposes a host type as a class. The fields, methods and
// constructors of the binding become native members of the class.
func (a *Assembly) RegisterNative(binding *native.TypeBinding, mode object.TypeMode) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	if mode == object.ModeAnnotation {
		return fmt.Errorf("native class %s cannot be an annotation", binding.Name)
	}
	if _, ok := a.classes[binding.Name]; ok {
		return fmt.Errorf("class %s: %w", binding.Name, object.ErrAlreadyDeclared)
	}
	if err := a.registry.Register(binding); err != nil {
		return err
	}
	def := object.NewClassDefinition(binding.Name, mode)
	def.Native = binding
	a.addClass(def)
	return nil
}

func (a *Assembly) addClass(def *object.ClassDefinition) {
	a.classes[def.Name] = def
	a.classOrder = append(a.classOrder, def.Name)
}

// DefineFunction adds a global function. It is visible in the global scope of
// its access modifier.
func (a *Assembly) DefineFunction(b FunctionBuilder) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	if b.Member != object.NoMember {
		return fmt.Errorf("global function %s cannot be %s", b.Name, b.Member)
	}
	if b.Body == nil {
		return fmt.Errorf("global function %s has no body", b.Name)
	}
	if a.isGlobalName(b.Name) {
		return fmt.Errorf("global function %s: %w", b.Name, object.ErrAlreadyDeclared)
	}
	a.functions[b.Name] = b.definition()
	if len(b.Annotations) > 0 {
		a.functionAnnotations[b.Name] = b.Annotations
	}
	return nil
}

// DefineField adds a global field. It is declared in the global scope of its
// access modifier and initialized by Build.
func (a *Assembly) DefineField(b FieldBuilder) error {
	if a.attempted {
		return ErrAlreadyBuilt
	}
	if a.isGlobalName(b.Name) {
		return fmt.Errorf("global field %s: %w", b.Name, object.ErrAlreadyDeclared)
	}
	a.pendingFields = append(a.pendingFields, &b)
	return nil
}

func (a *Assembly) isGlobalName(name string) bool {
	if _, ok := a.functions[name]; ok {
		return true
	}
	if _, ok := a.globals[name]; ok {
		return true
	}
	for _, f := range a.pendingFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (b FunctionBuilder) definition() *object.FunctionDef {
	return &object.FunctionDef{
		Name:   b.Name,
		Access: b.Access,
		Member: b.Member,
		Body:   b.Body,
		Params: b.Params,
		Return: b.Return,
	}
}
