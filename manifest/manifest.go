// Package manifest loads assembly definitions from YAML.
//
// A manifest describes classes, global functions and global fields. Function
// bodies and initializers are constants or reads of a variable, which is
// enough to inspect the scope layout of an assembly without a parser.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	solscript "github.com/PatrickSachs/SolScript-sub001"
	"github.com/PatrickSachs/SolScript-sub001/object"
	"gopkg.in/yaml.v3"
)

// Manifest is the root of a manifest file.
type Manifest struct {
	LanguageVersion string     `yaml:"languageVersion"`
	ScopeOrder      string     `yaml:"scopeOrder"`
	Classes         []Class    `yaml:"classes"`
	Functions       []Function `yaml:"functions"`
	Fields          []Field    `yaml:"fields"`
}

// Class describes a class.
type Class struct {
	Name        string       `yaml:"name"`
	Mode        string       `yaml:"mode"`
	Base        string       `yaml:"base"`
	Fields      []Field      `yaml:"fields"`
	Functions   []Function   `yaml:"functions"`
	Annotations []Annotation `yaml:"annotations"`
}

// Field describes a class or global field. Value is the initializer; fields
// without one stay unassigned.
type Field struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"`
	Access      string       `yaml:"access"`
	Value       yaml.Node    `yaml:"value"`
	Annotations []Annotation `yaml:"annotations"`
}

// Param is a function parameter.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Function describes a class or global function. The body returns Value, or
// the variable named by Get when it is set.
type Function struct {
	Name        string       `yaml:"name"`
	Access      string       `yaml:"access"`
	Member      string       `yaml:"member"`
	Params      []Param      `yaml:"params"`
	Variadic    bool         `yaml:"variadic"`
	Returns     string       `yaml:"returns"`
	Value       yaml.Node    `yaml:"value"`
	Get         string       `yaml:"get"`
	Annotations []Annotation `yaml:"annotations"`
}

// Annotation is an annotation usage. It is written either as the class name
// or as a mapping with the class and constant arguments.
type Annotation struct {
	Class string      `yaml:"class"`
	Args  []yaml.Node `yaml:"args"`
}

// UnmarshalYAML accepts the short form "Name".
func (a *Annotation) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		a.Class = value.Value
		return nil
	}
	type plain Annotation
	return value.Decode((*plain)(a))
}

// Load decodes a manifest. Unknown keys are rejected.
func Load(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty manifest")
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// LoadFile decodes the manifest stored at path.
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Options returns the assembly options set by the manifest.
func (m *Manifest) Options() ([]solscript.Option, error) {
	var options []solscript.Option
	if m.LanguageVersion != "" {
		options = append(options, solscript.WithLanguageVersion(m.LanguageVersion))
	}
	order, err := solscript.ParseGlobalScopeOrder(m.ScopeOrder)
	if err != nil {
		return nil, err
	}
	options = append(options, solscript.WithGlobalScopeOrder(order))
	return options, nil
}

// Apply adds the definitions of the manifest to a.
func (m *Manifest) Apply(a *solscript.Assembly) error {
	for _, c := range m.Classes {
		b, err := c.builder()
		if err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
		if err := a.DefineClass(b); err != nil {
			return err
		}
	}
	for _, f := range m.Functions {
		b, err := f.builder()
		if err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
		if err := a.DefineFunction(b); err != nil {
			return err
		}
	}
	for _, f := range m.Fields {
		b, err := f.builder()
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := a.DefineField(b); err != nil {
			return err
		}
	}
	return nil
}

// Assemble creates an assembly from the manifest and builds it. The options
// are applied after the ones of the manifest.
func (m *Manifest) Assemble(ctx context.Context, options ...solscript.Option) (*solscript.Assembly, error) {
	own, err := m.Options()
	if err != nil {
		return nil, err
	}
	a, err := solscript.New(append(own, options...)...)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(a); err != nil {
		return nil, err
	}
	if err := a.Build(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (c Class) builder() (*solscript.ClassBuilder, error) {
	mode, err := object.ParseTypeMode(c.Mode)
	if err != nil {
		return nil, err
	}
	b := solscript.NewClass(c.Name).WithMode(mode).Extends(c.Base)
	for _, f := range c.Fields {
		fb, err := f.builder()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		b.WithField(fb)
	}
	for _, f := range c.Functions {
		fb, err := f.builder()
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", f.Name, err)
		}
		b.WithFunction(fb)
	}
	b.Annotations, err = annotations(c.Annotations)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f Field) builder() (solscript.FieldBuilder, error) {
	access, err := object.ParseAccessModifier(f.Access)
	if err != nil {
		return solscript.FieldBuilder{}, err
	}
	b := solscript.FieldBuilder{
		Name:   f.Name,
		Type:   object.ParseTypeRef(f.Type),
		Access: access,
	}
	if !isAbsent(&f.Value) {
		if b.Initializer, err = constant(&f.Value); err != nil {
			return solscript.FieldBuilder{}, err
		}
	}
	if b.Annotations, err = annotations(f.Annotations); err != nil {
		return solscript.FieldBuilder{}, err
	}
	return b, nil
}

func (f Function) builder() (solscript.FunctionBuilder, error) {
	access, err := object.ParseAccessModifier(f.Access)
	if err != nil {
		return solscript.FunctionBuilder{}, err
	}
	member, err := object.ParseMemberModifier(f.Member)
	if err != nil {
		return solscript.FunctionBuilder{}, err
	}
	b := solscript.FunctionBuilder{
		Name:   f.Name,
		Access: access,
		Member: member,
		Return: object.ParseTypeRef(f.Returns),
		Params: object.ParameterInfo{Variadic: f.Variadic},
	}
	for _, p := range f.Params {
		b.Params.Params = append(b.Params.Params, object.Parameter{Name: p.Name, Type: object.ParseTypeRef(p.Type)})
	}
	if b.Annotations, err = annotations(f.Annotations); err != nil {
		return solscript.FunctionBuilder{}, err
	}

	hasValue := !isAbsent(&f.Value)
	switch {
	case member == object.Abstract:
		if hasValue || f.Get != "" {
			return solscript.FunctionBuilder{}, fmt.Errorf("abstract function cannot have a body")
		}
	case f.Get != "":
		if hasValue {
			return solscript.FunctionBuilder{}, fmt.Errorf("value and get are exclusive")
		}
		name := f.Get
		b.Body = object.ScriptBody{Chunk: object.ChunkFunc(func(env object.Scope) (object.Object, error) {
			return env.Get(name)
		})}
	case hasValue:
		chunk, err := constant(&f.Value)
		if err != nil {
			return solscript.FunctionBuilder{}, err
		}
		b.Body = object.ScriptBody{Chunk: chunk}
	default:
		b.Body = object.ScriptBody{Chunk: object.Value(object.NIL)}
	}
	return b, nil
}

func annotations(in []Annotation) ([]solscript.AnnotationBuilder, error) {
	var out []solscript.AnnotationBuilder
	for _, a := range in {
		if a.Class == "" {
			return nil, fmt.Errorf("annotation without a class")
		}
		b := solscript.AnnotationBuilder{Class: a.Class}
		for i := range a.Args {
			chunk, err := constant(&a.Args[i])
			if err != nil {
				return nil, fmt.Errorf("annotation %s: %w", a.Class, err)
			}
			b.Args = append(b.Args, chunk)
		}
		out = append(out, b)
	}
	return out, nil
}

func isAbsent(n *yaml.Node) bool { return n.Kind == 0 }

// constant returns a chunk producing the value of n. Every run creates a new
// value so tables are never shared between instances.
func constant(n *yaml.Node) (object.Chunk, error) {
	if _, err := ToObject(n); err != nil {
		return nil, err
	}
	return object.ChunkFunc(func(object.Scope) (object.Object, error) {
		return ToObject(n)
	}), nil
}

// ToObject converts a YAML value to a script value. Sequences become array
// tables and mappings become tables with string keys.
func ToObject(n *yaml.Node) (object.Object, error) {
	switch n.Kind {
	case 0:
		return object.NIL, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return object.NIL, nil
		}
		return ToObject(n.Content[0])
	case yaml.AliasNode:
		return ToObject(n.Alias)
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return object.NIL, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return object.NativeBool(b), nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, err
			}
			return &object.Number{Value: f}, nil
		}
		return &object.String{Value: n.Value}, nil
	case yaml.SequenceNode:
		values := make([]object.Object, len(n.Content))
		for i, c := range n.Content {
			v, err := ToObject(c)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return object.NewArrayTable(values...), nil
	case yaml.MappingNode:
		t := object.NewTable()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := ToObject(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			t.SetString(n.Content[i].Value, v)
		}
		return t, nil
	}
	return nil, fmt.Errorf("line %d: unsupported value", n.Line)
}
